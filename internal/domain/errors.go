package domain

import "errors"

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidCourseType   = errors.New("invalid course type")
	ErrInvalidDuration     = errors.New("duration must be positive")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
)

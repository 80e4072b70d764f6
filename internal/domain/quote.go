package domain

// QuoteKey is the set of booking parameters a price depends on.
// Two keys match only when every field is equal.
type QuoteKey struct {
	CourseType      CourseType
	DurationMinutes int
	Quantity        int
	DisplayCurrency Currency
}

func (k QuoteKey) Validate() error {
	if !k.CourseType.Valid() {
		return ErrInvalidCourseType
	}
	if k.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if k.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !k.DisplayCurrency.Valid() {
		return ErrUnsupportedCurrency
	}
	return nil
}

type Quote struct {
	DisplayPrice   string
	RawPrice       float64
	SourceCurrency Currency
	IsVIP          bool
}

// PriceQuote is what the remote pricing procedure returns, before conversion
// into the display currency.
type PriceQuote struct {
	Price    float64
	Currency Currency
	IsVIP    bool
}

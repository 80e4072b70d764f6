package domain

import "time"

// RateSnapshot holds exchange rates relative to Base (Rates[Base] == 1).
type RateSnapshot struct {
	Base      Currency
	Rates     map[Currency]float64
	FetchedAt time.Time
	Source    string
}

// Rate returns the units of c per one unit of Base.
func (s RateSnapshot) Rate(c Currency) (float64, bool) {
	if c == s.Base {
		return 1, true
	}
	r, ok := s.Rates[c]
	if !ok || r <= 0 {
		return 0, false
	}
	return r, true
}

func (s RateSnapshot) Empty() bool { return s.Base == "" || len(s.Rates) == 0 }

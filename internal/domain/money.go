package domain

// Money is an amount in minor currency units (paise, cents).
type Money struct {
	Amount   int64
	Currency string
}

// Major returns the amount in major units for display.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

// README: Common money value object used across modules.
package types

import "math"

// CurrencySAR is the only currency the pricing core deals in.
const CurrencySAR = "SAR"

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func SAR(amount int64) Money {
	return Money{Amount: amount, Currency: CurrencySAR}
}

// RoundSAR rounds a computed price to whole riyals, half away from zero.
func RoundSAR(v float64) int64 {
	return int64(math.Round(v))
}

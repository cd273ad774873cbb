package models

import "github.com/shopspring/decimal"

// All money columns are decimal(14,2). Arithmetic results are quantized to two
// decimal places before they are compared or persisted; comparisons are exact.

func Quantize2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SumAmounts folds a sequence of amounts. Plain free function on an explicit
// slice; balances are always derived, never cached on rows.
func SumAmounts(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Quantize2(total)
}

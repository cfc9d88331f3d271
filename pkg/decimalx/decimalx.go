package decimalx

import "github.com/shopspring/decimal"

func MustFromString(s string) decimal.Decimal {
	f, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return f
}

func Clamp(d, min, max decimal.Decimal) decimal.Decimal {
	return decimal.Max(min, decimal.Min(max, d))
}

package decimalx

import "github.com/shopspring/decimal"

func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	var sum decimal.Decimal
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

// StdDev 总体标准差
func StdDev(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	avg := Mean(values)
	var variance decimal.Decimal
	for _, v := range values {
		diff := v.Sub(avg)
		variance = variance.Add(diff.Mul(diff))
	}
	variance = variance.Div(decimal.NewFromInt(int64(len(values))))
	return variance.Pow(decimal.NewFromFloat(0.5))
}

// ZScore 相对历史序列的标准分, 历史不足2个点或方差为0时返回0
func ZScore(value decimal.Decimal, hist []decimal.Decimal) decimal.Decimal {
	if len(hist) < 2 {
		return decimal.Zero
	}
	sigma := StdDev(hist)
	if sigma.IsZero() {
		return decimal.Zero
	}
	return value.Sub(Mean(hist)).Div(sigma)
}

package analytics

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"salesengine/internal/core"
)

// Statistics are rounded to two decimal places, half away from zero.
const places = 2

var hundred = decimal.NewFromInt(100)

func mean(values []decimal.Decimal) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Zero, fmt.Errorf("mean of empty set: %w", core.ErrDivisionByZero)
	}
	sum := decimal.Sum(decimal.Zero, values...)
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(places), nil
}

// sampleStdDev is sqrt(Σ(x−avg)² / (N−1)), undefined for N ≤ 1.
func sampleStdDev(values []decimal.Decimal, avg decimal.Decimal) (decimal.Decimal, error) {
	n := len(values)
	if n <= 1 {
		return decimal.Zero, fmt.Errorf("sample variance of %d values: %w", n, core.ErrDivisionByZero)
	}
	sumSq := decimal.Zero
	for _, v := range values {
		d := v.Sub(avg)
		sumSq = sumSq.Add(d.Mul(d))
	}
	variance := sumSq.Div(decimal.NewFromInt(int64(n - 1)))
	return decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())).Round(places), nil
}

// ratio is num/den rounded; den == 0 is an arithmetic error.
func ratio(num, den int) (decimal.Decimal, error) {
	if den == 0 {
		return decimal.Zero, fmt.Errorf("ratio %d/0: %w", num, core.ErrDivisionByZero)
	}
	return decimal.NewFromInt(int64(num)).Div(decimal.NewFromInt(int64(den))).Round(places), nil
}

func percentage(part, whole int) (decimal.Decimal, error) {
	if whole == 0 {
		return decimal.Zero, fmt.Errorf("percentage of empty set: %w", core.ErrDivisionByZero)
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(places), nil
}

func ints(xs []int) []decimal.Decimal {
	out := make([]decimal.Decimal, len(xs))
	for i, x := range xs {
		out[i] = decimal.NewFromInt(int64(x))
	}
	return out
}

func prices(items []core.Item) []decimal.Decimal {
	out := make([]decimal.Decimal, len(items))
	for i, it := range items {
		out[i] = it.UnitPrice.Decimal()
	}
	return out
}

// asFloat converts a rounded statistic for callers that work in float64.
func asFloat(d decimal.Decimal, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

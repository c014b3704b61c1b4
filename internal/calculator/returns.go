package calculator

import (
	"github.com/shopspring/decimal"

	"portfolio-analytics/internal/models"
)

// CalculateReturns converts a chronological value series into simple period
// returns: returns[i] = (v[i+1] - v[i]) / v[i]. Fewer than two values yields
// an empty slice. A zero value anywhere except the last position makes the
// following period undefined and fails the whole series.
func CalculateReturns(values []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(values) < 2 {
		return []decimal.Decimal{}, nil
	}

	returns := make([]decimal.Decimal, 0, len(values)-1)
	for i := 0; i < len(values)-1; i++ {
		if values[i].IsZero() {
			return nil, &models.DivisionByZeroError{Index: i}
		}
		ret := values[i+1].Sub(values[i]).Div(values[i])
		returns = append(returns, ret)
	}

	return returns, nil
}

// Mean returns the arithmetic mean of the series, zero for an empty series.
func Mean(series []decimal.Decimal) decimal.Decimal {
	if len(series) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range series {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(series))))
}

// PopulationVariance returns the population (divide-by-n) variance.
func PopulationVariance(series []decimal.Decimal) decimal.Decimal {
	if len(series) == 0 {
		return decimal.Zero
	}
	m := Mean(series)
	variance := decimal.Zero
	for _, v := range series {
		diff := v.Sub(m)
		variance = variance.Add(diff.Mul(diff))
	}
	return variance.Div(decimal.NewFromInt(int64(len(series))))
}

// toFloats converts a decimal series for use with the stats package.
func toFloats(series []decimal.Decimal) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[i], _ = v.Float64()
	}
	return out
}

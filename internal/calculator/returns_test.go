package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-analytics/internal/models"
)

func TestCalculateReturns(t *testing.T) {
	t.Run("simple period returns", func(t *testing.T) {
		values := []decimal.Decimal{
			decimal.NewFromInt(100),
			decimal.NewFromInt(110),
			decimal.NewFromInt(99),
		}

		returns, err := CalculateReturns(values)

		require.NoError(t, err)
		require.Len(t, returns, 2)
		assert.True(t, returns[0].Equal(decimal.NewFromFloat(0.1)), "got %s", returns[0])
		assert.True(t, returns[1].Equal(decimal.NewFromFloat(-0.1)), "got %s", returns[1])
	})

	t.Run("fewer than two values yields empty slice", func(t *testing.T) {
		returns, err := CalculateReturns([]decimal.Decimal{decimal.NewFromInt(100)})

		require.NoError(t, err)
		assert.Empty(t, returns)

		returns, err = CalculateReturns(nil)
		require.NoError(t, err)
		assert.Empty(t, returns)
	})

	t.Run("zero value fails with index", func(t *testing.T) {
		values := []decimal.Decimal{
			decimal.NewFromInt(100),
			decimal.Zero,
			decimal.NewFromInt(110),
		}

		returns, err := CalculateReturns(values)

		require.Error(t, err)
		assert.Nil(t, returns)

		var divErr *models.DivisionByZeroError
		require.True(t, errors.As(err, &divErr))
		assert.Equal(t, 1, divErr.Index)
	})

	t.Run("trailing zero is allowed", func(t *testing.T) {
		values := []decimal.Decimal{
			decimal.NewFromInt(100),
			decimal.Zero,
		}

		returns, err := CalculateReturns(values)

		require.NoError(t, err)
		require.Len(t, returns, 1)
		assert.True(t, returns[0].Equal(decimal.NewFromInt(-1)))
	})
}

func TestPopulationVariance(t *testing.T) {
	t.Run("constant series has zero variance", func(t *testing.T) {
		series := []decimal.Decimal{
			decimal.NewFromFloat(0.01),
			decimal.NewFromFloat(0.01),
			decimal.NewFromFloat(0.01),
		}
		assert.True(t, PopulationVariance(series).IsZero())
	})

	t.Run("known variance", func(t *testing.T) {
		// Values 1 and -1 around mean 0: population variance is 1.
		series := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(-1)}
		assert.True(t, PopulationVariance(series).Equal(decimal.NewFromInt(1)))
	})

	t.Run("empty series", func(t *testing.T) {
		assert.True(t, PopulationVariance(nil).IsZero())
	})
}

func TestCovariance(t *testing.T) {
	t.Run("series co-moves with itself", func(t *testing.T) {
		series := []decimal.Decimal{
			decimal.NewFromFloat(0.02),
			decimal.NewFromFloat(-0.01),
			decimal.NewFromFloat(0.03),
		}
		assert.True(t, Covariance(series, series).Equal(PopulationVariance(series)))
	})

	t.Run("mismatched lengths yield zero", func(t *testing.T) {
		a := []decimal.Decimal{decimal.NewFromInt(1)}
		b := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)}
		assert.True(t, Covariance(a, b).IsZero())
	})
}

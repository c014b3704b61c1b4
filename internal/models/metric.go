package models

import "github.com/shopspring/decimal"

// Metric is a report value that is either present or explicitly unavailable
// with a machine-readable reason. Reports never carry NaN or Inf: any
// undefined computation surfaces here as a null value plus reason.
type Metric struct {
	Value  *decimal.Decimal `json:"value"`
	Reason string           `json:"reason,omitempty"`
}

// MetricOf wraps a computed value.
func MetricOf(v decimal.Decimal) Metric {
	return Metric{Value: &v}
}

// MetricFromFloat wraps a float64 result, typically after a math.Sqrt or
// math.Pow round-trip.
func MetricFromFloat(v float64) Metric {
	d := decimal.NewFromFloat(v)
	return Metric{Value: &d}
}

// MetricUnavailable marks the metric as not computable, carrying one of the
// Reason* codes.
func MetricUnavailable(reason string) Metric {
	return Metric{Reason: reason}
}

// Available reports whether the metric carries a value.
func (m Metric) Available() bool {
	return m.Value != nil
}

// Decimal returns the value, or zero when unavailable.
func (m Metric) Decimal() decimal.Decimal {
	if m.Value == nil {
		return decimal.Zero
	}
	return *m.Value
}

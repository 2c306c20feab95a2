// Package refrange evaluates body-composition metrics against curated
// reference ranges. Each metric has a gender-specific (where applicable)
// pair of bands, ideal and alert; anything outside the alert band is risk.
package refrange

// Status is the outcome of evaluating a value against a Range.
type Status string

const (
	StatusIdeal Status = "ideal"
	StatusAlert Status = "alert"
	StatusRisk  Status = "risk"
)

// Band is a closed numeric interval.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Range holds the ideal and alert bands for one metric. The alert band is
// author-curated to contain the ideal band; no runtime invariant is enforced.
type Range struct {
	Ideal Band `json:"ideal"`
	Alert Band `json:"alert"`
}

// Evaluate classifies a value against a range. A nil value is always alert:
// unknown is treated as caution, never silently ideal.
//
// When lowerIsBetter is set only the upper bounds are consulted, since
// "lower is always better" metrics have no floor: value ≤ ideal max is
// ideal, value ≤ alert max is alert, anything above is risk. Otherwise the
// value must fall inside the ideal band for ideal and inside the alert band
// for alert.
func Evaluate(value *float64, r Range, lowerIsBetter bool) Status {
	if value == nil {
		return StatusAlert
	}
	v := *value

	if lowerIsBetter {
		switch {
		case v <= r.Ideal.Max:
			return StatusIdeal
		case v <= r.Alert.Max:
			return StatusAlert
		default:
			return StatusRisk
		}
	}

	switch {
	case v >= r.Ideal.Min && v <= r.Ideal.Max:
		return StatusIdeal
	case v >= r.Alert.Min && v <= r.Alert.Max:
		return StatusAlert
	default:
		return StatusRisk
	}
}

package metrics

import "fmt"

// ConfigurationError reports an invalid analysis parameter, such as an
// unknown metric name or a cluster count above the number of videos.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// Configf builds a *ConfigurationError.
func Configf(param, format string, args ...interface{}) error {
	return &ConfigurationError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// GuardKind names the numeric condition a guard resolved.
type GuardKind string

const (
	GuardZeroDenominator  GuardKind = "zero_denominator"
	GuardZeroVariance     GuardKind = "zero_variance"
	GuardInsufficientData GuardKind = "insufficient_data"
	GuardEmptyCluster     GuardKind = "empty_cluster"
)

// ComputationGuard records a division-by-zero or zero-variance condition and
// how it was resolved. Results carry guards so callers can see them; it is
// returned as an error only when no exclusion policy applies.
type ComputationGuard struct {
	Kind    GuardKind `json:"kind"`
	Subject string    `json:"subject"`
	Count   int       `json:"count"`
	Detail  string    `json:"detail"`
}

func (g *ComputationGuard) Error() string {
	return fmt.Sprintf("%s on %s: %s", g.Kind, g.Subject, g.Detail)
}

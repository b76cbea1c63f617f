package hydro

import "fmt"

// ShapeError reports invalid input series: misaligned lengths or physically
// impossible values (e.g. negative precipitation).
type ShapeError struct{ msg string }

func (e *ShapeError) Error() string { return e.msg }

func Shapef(format string, a ...interface{}) error {
	return &ShapeError{fmt.Sprintf(format, a...)}
}

// ConfigError reports an invalid run setup: unknown model or objective names,
// bad bounds (min >= max), non-positive counts.
type ConfigError struct{ msg string }

func (e *ConfigError) Error() string { return e.msg }

func Configf(format string, a ...interface{}) error {
	return &ConfigError{fmt.Sprintf(format, a...)}
}

// InstabilityError reports a numerical failure during simulation: a store
// invariant violated or a non-finite intermediate. It aborts the single
// evaluation that produced it, never the run.
type InstabilityError struct{ msg string }

func (e *InstabilityError) Error() string { return e.msg }

func Instabilityf(format string, a ...interface{}) error {
	return &InstabilityError{fmt.Sprintf(format, a...)}
}

// DegenerateError reports an observation set with no optimization target
// (zero variance or zero mean where the chosen metric needs them).
type DegenerateError struct{ msg string }

func (e *DegenerateError) Error() string { return e.msg }

func Degeneratef(format string, a ...interface{}) error {
	return &DegenerateError{fmt.Sprintf(format, a...)}
}

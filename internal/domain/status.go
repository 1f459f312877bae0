package domain

// Status classifies the outcome of a load or derivation step. Callers branch
// on it instead of inspecting incidental emptiness.
type Status string

const (
	// StatusOK means the step produced data.
	StatusOK Status = "ok"
	// StatusEmpty means the step succeeded on inputs that held nothing usable.
	StatusEmpty Status = "empty"
	// StatusDegraded means the step failed and returned empty defaults.
	StatusDegraded Status = "degraded"
)

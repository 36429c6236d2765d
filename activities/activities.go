package activities

import (
	"megacoop-kyc/kyc"
	"megacoop-kyc/metrics"
)

// Activities is the receiver for all activity methods. Using a struct allows
// Temporal to register every method via RegisterActivity(a) and lets the
// worker inject the backend client; tests swap Backend for a stub.
type Activities struct {
	Backend   kyc.Backend
	Validator *kyc.Validator
	Metrics   *metrics.Metrics
}

// New wires activities against backend.
func New(backend kyc.Backend, m *metrics.Metrics) *Activities {
	return &Activities{
		Backend:   backend,
		Validator: kyc.NewValidator(),
		Metrics:   m,
	}
}

func (a *Activities) validator() *kyc.Validator {
	if a.Validator == nil {
		a.Validator = kyc.NewValidator()
	}
	return a.Validator
}

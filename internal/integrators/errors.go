package integrators

import "errors"

var (
	// ErrInvalidTableau indicates an inconsistent Butcher table.
	ErrInvalidTableau = errors.New("integrators: invalid tableau")

	// ErrUnknownMethod indicates a method name missing from the registry.
	ErrUnknownMethod = errors.New("integrators: unknown method")

	// ErrInvalidConfig indicates step or tolerance settings that cannot drive a run.
	ErrInvalidConfig = errors.New("integrators: invalid configuration")

	// ErrInvalidProblem indicates a problem that cannot be integrated as given.
	ErrInvalidProblem = errors.New("integrators: invalid problem")

	// ErrControllerPhase indicates Decide was called without a pending proposal.
	ErrControllerPhase = errors.New("integrators: controller is not awaiting a decision")
)

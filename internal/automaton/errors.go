package automaton

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig matches every fatal configuration error produced while
	// loading an automaton.
	ErrInvalidConfig = errors.New("invalid automaton configuration")

	// ErrTooManyStates is returned when registering a state would exceed the
	// registry capacity.
	ErrTooManyStates = errors.New("too many states")
	// ErrInvalidTransitionSymbol is returned for a transition whose symbol is
	// not '0' or '1'.
	ErrInvalidTransitionSymbol = errors.New("invalid transition symbol")
	// ErrUndeclaredFinalState is returned when a token marked final does not
	// resolve to a registered state.
	ErrUndeclaredFinalState = errors.New("declared final state not found")
	// ErrNoStatesDefined is returned when the configuration registers no state.
	ErrNoStatesDefined = errors.New("no states defined")
	// ErrNoInitialState is returned when no initial state was declared.
	ErrNoInitialState = errors.New("no initial state defined")
	// ErrIncompleteTransitionFunction is returned when a state lacks a
	// transition on 0 or on 1.
	ErrIncompleteTransitionFunction = errors.New("incomplete transition function")
)

// ConfigError describes a fatal configuration error. Kind is one of the
// sentinel errors above and is reachable through errors.Is.
type ConfigError struct {
	Kind   error
	Line   int    // 1-based source line, 0 for end-of-input validation
	State  string // offending state or token, if any
	Symbol string // offending or missing symbol, if any
}

func (e *ConfigError) Error() string {
	msg := e.Kind.Error()
	switch {
	case e.State != "" && e.Symbol != "":
		msg = fmt.Sprintf("%s: state %q, symbol %q", msg, e.State, e.Symbol)
	case e.State != "":
		msg = fmt.Sprintf("%s: %q", msg, e.State)
	case e.Symbol != "":
		msg = fmt.Sprintf("%s: %q", msg, e.Symbol)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Kind }

// Is lets every ConfigError match ErrInvalidConfig in addition to its Kind.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// KindName returns a stable identifier for the error kind, suitable for
// machine-readable responses. It returns "" for errors outside the taxonomy.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrTooManyStates):
		return "TooManyStates"
	case errors.Is(err, ErrInvalidTransitionSymbol):
		return "InvalidTransitionSymbol"
	case errors.Is(err, ErrUndeclaredFinalState):
		return "UndeclaredFinalState"
	case errors.Is(err, ErrNoStatesDefined):
		return "NoStatesDefined"
	case errors.Is(err, ErrNoInitialState):
		return "NoInitialState"
	case errors.Is(err, ErrIncompleteTransitionFunction):
		return "IncompleteTransitionFunction"
	}
	return ""
}

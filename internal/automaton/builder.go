package automaton

import (
	"go.uber.org/multierr"
)

// Builder accumulates an automaton while a configuration is being read.
// It is not safe for concurrent use; Build hands out an immutable copy.
type Builder struct {
	reg     *Registry
	initial int
	final   []bool
	delta   [][2]int
}

// NewBuilder returns an empty builder whose registry holds at most
// maxStates states.
func NewBuilder(maxStates int) *Builder {
	return &Builder{
		reg:     NewRegistry(maxStates),
		initial: Unset,
	}
}

// AddState registers name with default attributes (not final, both
// transitions unset) and returns its index.
func (b *Builder) AddState(name string) (int, error) {
	before := b.reg.Len()
	i, err := b.reg.Add(name)
	if err != nil {
		return Unset, err
	}
	if b.reg.Len() > before {
		b.final = append(b.final, false)
		b.delta = append(b.delta, [2]int{Unset, Unset})
	}
	return i, nil
}

// IndexOf resolves a registered state name.
func (b *Builder) IndexOf(name string) (int, bool) { return b.reg.IndexOf(name) }

// NumStates returns the number of registered states.
func (b *Builder) NumStates() int { return b.reg.Len() }

// SetInitial makes the state at index i the initial state, returning the
// previous initial index (Unset if none).
func (b *Builder) SetInitial(i int) int {
	prev := b.initial
	b.initial = i
	return prev
}

// MarkFinal marks an already registered state as accepting.
func (b *Builder) MarkFinal(name string) error {
	i, ok := b.reg.IndexOf(name)
	if !ok || i < 0 || i >= len(b.final) {
		return &ConfigError{Kind: ErrUndeclaredFinalState, State: name}
	}
	b.final[i] = true
	return nil
}

// SetTransition assigns delta(from, sym) = to and returns the previous target
// (Unset if the slot was empty). Later assignments overwrite earlier ones.
func (b *Builder) SetTransition(from int, sym Symbol, to int) int {
	prev := b.delta[from][sym]
	b.delta[from][sym] = to
	return prev
}

// Validate checks the end-of-input invariants and returns the first
// violation: state count, then initial state, then transition completeness
// in ascending state order with symbol 0 before symbol 1.
func (b *Builder) Validate() error {
	return b.validate(true)
}

// ValidateAll is like Validate but reports every violation, combined with
// multierr in the same fixed order.
func (b *Builder) ValidateAll() error {
	return b.validate(false)
}

func (b *Builder) validate(firstOnly bool) error {
	var errs error
	add := func(err error) bool {
		errs = multierr.Append(errs, err)
		return firstOnly
	}

	if b.reg.Len() < 1 {
		if add(&ConfigError{Kind: ErrNoStatesDefined}) {
			return errs
		}
	}
	if b.initial == Unset {
		if add(&ConfigError{Kind: ErrNoInitialState}) {
			return errs
		}
	}
	names := b.reg.names
	for i := range b.delta {
		for _, sym := range Alphabet {
			if b.delta[i][sym] != Unset {
				continue
			}
			if add(&ConfigError{Kind: ErrIncompleteTransitionFunction, State: names[i], Symbol: sym.String()}) {
				return errs
			}
		}
	}
	return errs
}

// Build validates the accumulated data and returns an immutable Automaton.
func (b *Builder) Build() (*Automaton, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	a := &Automaton{
		states:  b.reg.Names(),
		index:   make(map[string]int, b.reg.Len()),
		initial: b.initial,
		final:   make([]bool, len(b.final)),
		delta:   make([][2]int, len(b.delta)),
	}
	for i, n := range a.states {
		a.index[n] = i
	}
	copy(a.final, b.final)
	copy(a.delta, b.delta)
	return a, nil
}

package automaton

// DefaultMaxStates is the registry capacity used when none is configured.
const DefaultMaxStates = 64

// Registry keeps the known state names and hands out stable indexes in
// first-seen order.
type Registry struct {
	names []string
	index map[string]int
	max   int
}

// NewRegistry returns an empty registry holding at most max states.
// A non-positive max selects DefaultMaxStates.
func NewRegistry(max int) *Registry {
	if max <= 0 {
		max = DefaultMaxStates
	}
	return &Registry{
		index: make(map[string]int),
		max:   max,
	}
}

// IndexOf looks a state up by exact, case-sensitive name.
func (r *Registry) IndexOf(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Add registers name and returns its index. Adding a known name is a no-op
// that returns the existing index. Exceeding the capacity yields a
// *ConfigError of kind ErrTooManyStates.
func (r *Registry) Add(name string) (int, error) {
	if i, ok := r.index[name]; ok {
		return i, nil
	}
	if len(r.names) >= r.max {
		return Unset, &ConfigError{Kind: ErrTooManyStates, State: name}
	}
	i := len(r.names)
	r.names = append(r.names, name)
	r.index[name] = i
	return i, nil
}

// Len returns the number of registered states.
func (r *Registry) Len() int { return len(r.names) }

// Names returns a copy of the registered names in index order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

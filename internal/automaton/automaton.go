// Package automaton holds the deterministic finite automaton over {0,1}:
// the state registry, the builder used while a configuration is read, the
// end-of-input validation and the simulator.
//
// An Automaton is only obtainable through Builder.Build, which validates it,
// and is never mutated afterwards. It is therefore safe to share between
// goroutines evaluating different input strings.
package automaton

// Unset marks an initial state or a transition slot that has not been assigned.
const Unset = -1

// Symbol is a letter of the binary input alphabet.
type Symbol uint8

const (
	Zero Symbol = 0
	One  Symbol = 1
)

// Alphabet lists the symbols in validation order.
var Alphabet = [...]Symbol{Zero, One}

// ParseSymbol accepts exactly "0" or "1".
func ParseSymbol(s string) (Symbol, bool) {
	switch s {
	case "0":
		return Zero, true
	case "1":
		return One, true
	}
	return 0, false
}

func (s Symbol) String() string {
	if s == One {
		return "1"
	}
	return "0"
}

// Automaton is a validated DFA with a total transition function.
type Automaton struct {
	states  []string
	index   map[string]int
	initial int
	final   []bool
	delta   [][2]int
}

// NumStates returns the number of states.
func (a *Automaton) NumStates() int { return len(a.states) }

// States returns the state names in first-seen order.
func (a *Automaton) States() []string {
	out := make([]string, len(a.states))
	copy(out, a.states)
	return out
}

// Name returns the name of state i.
func (a *Automaton) Name(i int) string { return a.states[i] }

// Index resolves a state name.
func (a *Automaton) Index(name string) (int, bool) {
	i, ok := a.index[name]
	return i, ok
}

// Initial returns the index of the initial state.
func (a *Automaton) Initial() int { return a.initial }

// IsFinal reports whether state i is accepting.
func (a *Automaton) IsFinal(i int) bool { return a.final[i] }

// Finals returns the names of the accepting states in index order.
func (a *Automaton) Finals() []string {
	var out []string
	for i, f := range a.final {
		if f {
			out = append(out, a.states[i])
		}
	}
	return out
}

// Next returns the target of the transition from state i on sym.
func (a *Automaton) Next(i int, sym Symbol) int { return a.delta[i][sym] }

// Run replays input from the initial state and reports acceptance.
// Any character other than '0' or '1' rejects immediately. The empty string
// is accepted iff the initial state is final.
func (a *Automaton) Run(input string) bool {
	q := a.initial
	for i := 0; i < len(input); i++ {
		switch c := input[i]; c {
		case '0', '1':
			q = a.delta[q][c-'0']
		default:
			return false
		}
	}
	return a.final[q]
}

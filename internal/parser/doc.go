// Package parser reads the line-oriented automaton configuration format.
//
// # Format
//
// Header lines start with the marker ("#" by default) and select a section by
// substring match against the titles below, checked in this order:
//
//	# Estados de aceptación   accepting states, whitespace separated
//	# Estado inicial          first token is the initial state
//	# Transiciones            "from symbol to", symbol is 0 or 1
//	# Estados                 state names, whitespace separated
//
// A header matching none of them disables data lines until the next
// recognised header. Blank lines are ignored everywhere.
//
// Example:
//
//	# Estados
//	A B
//	# Estado inicial
//	A
//	# Estados de aceptación
//	B
//	# Transiciones
//	A 0 A
//	A 1 B
//	B 0 B
//	B 1 A
//
// # Leniency
//
// States are registered on first mention in any section, so a configuration
// may declare states only through its transitions. Later initial-state lines
// and repeated transitions for the same (state, symbol) replace earlier ones.
// Transition lines that do not have exactly three fields are skipped.
//
// # Errors
//
// Every fatal problem is an *automaton.ConfigError carrying the source line;
// use errors.Is with the automaton sentinels to tell them apart.
package parser

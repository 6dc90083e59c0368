// Package config provides the tool settings for afd and afdd.
//
// These settings are separate from the automaton description itself: they
// say where the automaton and strings files live by default, how the parser
// recognises headers, how many goroutines evaluate strings and where the
// daemon listens.
//
// # Configuration Structure
//
//	files:
//	  automaton: Conf.txt          # automaton description
//	  strings: Cadenas.txt         # one candidate string per line, E = empty
//	parser:
//	  header_marker: "#"           # prefix of section header lines
//	  max_states: 64               # state registry capacity
//	eval:
//	  workers: 4                   # concurrent evaluators
//	socket:
//	  path: /tmp/afdd.socket       # Unix domain socket of afdd
//	store:
//	  idle_ttl: 30m                # unload automata unused this long, 0 = never
//
// A file named *.toml is read as TOML with the same keys:
//
//	[parser]
//	header_marker = "#"
//	max_states = 64
//
// # Defaults
//
// A missing file yields Default(). Keys absent from an existing file keep
// their default values.
//
// # Errors
//
//   - ErrInvalidConfig: validation failed
//   - ErrNoConfig: file not found (Load returns defaults instead)
package config

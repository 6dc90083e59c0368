// Package eval reads candidate strings and evaluates them in batches against
// a validated automaton.
package eval

import (
	"errors"
	"fmt"

	"github.com/lc/afd/internal/filesys"
	"github.com/lc/afd/internal/parser"
)

// EmptyToken is the line that stands for the empty string in a strings file.
const EmptyToken = "E"

// Epsilon is how the empty string is displayed.
const Epsilon = "ε"

// ErrInputSourceUnavailable is returned when the strings file cannot be opened.
var ErrInputSourceUnavailable = errors.New("input source unavailable")

// ParseInputs turns raw strings-file lines into candidate strings: lines are
// trimmed, blank lines skipped and EmptyToken mapped to "".
func ParseInputs(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, raw := range lines {
		line := parser.Normalize(raw)
		if line == "" {
			continue
		}
		if line == EmptyToken {
			line = ""
		}
		out = append(out, line)
	}
	return out
}

// ReadInputs reads and parses the strings file at path. Only a file that
// cannot be opened yields ErrInputSourceUnavailable; read failures are
// returned as plain errors.
func ReadInputs(o filesys.Opener, path string) ([]string, error) {
	f, err := o.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputSourceUnavailable, path, err)
	}
	defer f.Close()

	lines, err := filesys.ScanLines(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseInputs(lines), nil
}

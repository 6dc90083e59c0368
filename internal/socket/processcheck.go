package socket

import (
	"strings"

	"github.com/mitchellh/go-ps"
)

var _ ProcessChecker = (*DefaultProcessChecker)(nil)

// ProcessChecker reports whether a named process is running.
type ProcessChecker interface {
	IsRunning(name string) bool
}

// DefaultProcessChecker inspects the process table.
type DefaultProcessChecker struct{}

// IsRunning reports whether any executable name starts with name,
// ignoring case.
func (pc *DefaultProcessChecker) IsRunning(name string) bool {
	procs, err := ps.Processes()
	if err != nil {
		return false
	}
	for _, proc := range procs {
		exe := proc.Executable()
		if len(exe) >= len(name) && strings.EqualFold(exe[:len(name)], name) {
			return true
		}
	}
	return false
}

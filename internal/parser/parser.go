package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lc/afd/internal/automaton"
	"github.com/lc/afd/internal/filesys"
	"github.com/lc/afd/internal/log"
)

// DefaultMarker starts every section header line.
const DefaultMarker = "#"

// Section titles recognised inside header lines. They are matched by
// substring in the order of sectionTitles.
const (
	TitleFinals      = "Estados de aceptación"
	TitleInitial     = "Estado inicial"
	TitleTransitions = "Transiciones"
	TitleStates      = "Estados"
)

// Section is the part of the configuration the parser is currently reading.
type Section int

const (
	SectionNone Section = iota
	SectionStates
	SectionInitial
	SectionFinals
	SectionTransitions
)

func (s Section) String() string {
	switch s {
	case SectionStates:
		return "states"
	case SectionInitial:
		return "initial"
	case SectionFinals:
		return "finals"
	case SectionTransitions:
		return "transitions"
	}
	return "none"
}

// "Estados" is a substring of "Estados de aceptación", so it goes last.
var sectionTitles = [...]struct {
	title   string
	section Section
}{
	{TitleFinals, SectionFinals},
	{TitleInitial, SectionInitial},
	{TitleTransitions, SectionTransitions},
	{TitleStates, SectionStates},
}

// Opt configures a Parser.
type Opt func(p *Parser)

// WithMarker sets the header marker. Empty markers are ignored.
func WithMarker(marker string) Opt {
	return func(p *Parser) {
		if marker != "" {
			p.marker = marker
		}
	}
}

// WithMaxStates sets the registry capacity.
func WithMaxStates(n int) Opt {
	return func(p *Parser) {
		p.maxStates = n
	}
}

// Parser reads automaton configurations. A Parser keeps no state between
// calls, so every Parse starts from an empty registry.
type Parser struct {
	marker    string
	maxStates int
}

// New returns a Parser using the default marker and capacity unless
// overridden by opts.
func New(opts ...Opt) *Parser {
	p := &Parser{
		marker:    DefaultMarker,
		maxStates: automaton.DefaultMaxStates,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse is shorthand for New(opts...).Parse(lines).
func Parse(lines []string, opts ...Opt) (*automaton.Automaton, error) {
	return New(opts...).Parse(lines)
}

// ParseReader reads all lines from r and parses them.
func ParseReader(r io.Reader, opts ...Opt) (*automaton.Automaton, error) {
	lines, err := filesys.ScanLines(r)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return Parse(lines, opts...)
}

// Parse consumes the raw configuration lines and returns a validated
// automaton or the first fatal *automaton.ConfigError.
func (p *Parser) Parse(lines []string) (*automaton.Automaton, error) {
	b, err := p.read(lines)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// Check reads lines like Parse but reports every validation failure at
// once, combined with multierr. Errors found while reading still stop at the
// first one.
func (p *Parser) Check(lines []string) error {
	b, err := p.read(lines)
	if err != nil {
		return err
	}
	return b.ValidateAll()
}

func (p *Parser) read(lines []string) (*automaton.Builder, error) {
	st := &state{
		b:       automaton.NewBuilder(p.maxStates),
		section: SectionNone,
	}

	for n, raw := range lines {
		line := Normalize(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, p.marker) {
			st.section = headerSection(line)
			log.Debugf("parser: line %d: section %s", n+1, st.section)
			continue
		}
		if err := st.data(line); err != nil {
			return nil, atLine(err, n+1)
		}
	}

	return st.b, nil
}

// headerSection maps a header line to its section by substring match.
func headerSection(line string) Section {
	for _, t := range sectionTitles {
		if strings.Contains(line, t.title) {
			return t.section
		}
	}
	return SectionNone
}

type state struct {
	b       *automaton.Builder
	section Section
}

func (st *state) data(line string) error {
	fields := strings.Fields(line)

	switch st.section {
	case SectionStates:
		for _, tok := range fields {
			if _, err := st.b.AddState(tok); err != nil {
				return err
			}
		}

	case SectionInitial:
		i, err := st.b.AddState(fields[0])
		if err != nil {
			return err
		}
		if prev := st.b.SetInitial(i); prev != automaton.Unset && prev != i {
			log.Debugf("parser: initial state overridden by %q", fields[0])
		}

	case SectionFinals:
		for _, tok := range fields {
			if _, err := st.b.AddState(tok); err != nil {
				return err
			}
			if err := st.b.MarkFinal(tok); err != nil {
				return err
			}
		}

	case SectionTransitions:
		if len(fields) != 3 {
			log.Debugf("parser: ignoring transition line with %d fields: %q", len(fields), line)
			return nil
		}
		sym, ok := automaton.ParseSymbol(fields[1])
		if !ok {
			return &automaton.ConfigError{Kind: automaton.ErrInvalidTransitionSymbol, State: fields[0], Symbol: fields[1]}
		}
		from, err := st.b.AddState(fields[0])
		if err != nil {
			return err
		}
		to, err := st.b.AddState(fields[2])
		if err != nil {
			return err
		}
		if prev := st.b.SetTransition(from, sym, to); prev != automaton.Unset && prev != to {
			log.Debugf("parser: transition (%s, %s) overwritten", fields[0], sym)
		}
	}
	return nil
}

// atLine records the source line on configuration errors.
func atLine(err error, line int) error {
	var cerr *automaton.ConfigError
	if errors.As(err, &cerr) && cerr.Line == 0 {
		cerr.Line = line
	}
	return err
}

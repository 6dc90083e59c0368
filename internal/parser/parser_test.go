package parser_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/multierr"

	"github.com/lc/afd/internal/automaton"
	"github.com/lc/afd/internal/parser"
)

const oddOnesConfig = `# Estados
A B
# Estado inicial
A
# Estados de aceptación
B
# Transiciones
A 0 A
A 1 B
B 0 B
B 1 A
`

type ParserTestSuite struct {
	suite.Suite
}

func lines(text string) []string {
	return strings.Split(text, "\n")
}

func (s *ParserTestSuite) TestNormalize() {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "A B\n", want: "A B"},
		{in: "  A 0 B\r\n", want: "A 0 B"},
		{in: "\t# Estados \t", want: "# Estados"},
		{in: " \r\n", want: ""},
		{in: "", want: ""},
	}
	for _, tc := range testCases {
		s.Equal(tc.want, parser.Normalize(tc.in), "%q", tc.in)
	}
}

func (s *ParserTestSuite) TestParseOddOnes() {
	// Given the odd-number-of-ones configuration
	a, err := parser.Parse(lines(oddOnesConfig))

	// Then it loads and behaves as expected
	s.Require().NoError(err)
	s.Equal([]string{"A", "B"}, a.States())
	s.Equal("A", a.Name(a.Initial()))
	s.Equal([]string{"B"}, a.Finals())
	s.True(a.Run("1"))
	s.False(a.Run("11"))
	s.False(a.Run(""))
}

func (s *ParserTestSuite) TestParseReaderHandlesCRLF() {
	text := strings.ReplaceAll(oddOnesConfig, "\n", "\r\n")
	a, err := parser.ParseReader(strings.NewReader(text))
	s.Require().NoError(err)
	s.Equal(2, a.NumStates())
	s.True(a.Run("0001"))
}

func (s *ParserTestSuite) TestBlankLinesKeepSection() {
	// Given blank lines between data lines of the same section
	cfg := `# Estados
A

B
# Estado inicial

A
# Estados de aceptación

B
# Transiciones
A 0 A

A 1 B
  
B 0 B
	
B 1 A
`
	a, err := parser.Parse(lines(cfg))

	// Then the section stays current across them
	s.Require().NoError(err)
	s.Equal([]string{"A", "B"}, a.States())
	s.Equal("A", a.Name(a.Initial()))
	s.Equal([]string{"B"}, a.Finals())
	s.True(a.Run("1"))
	s.False(a.Run("11"))
}

func (s *ParserTestSuite) TestParseReaderLongLine() {
	// A header padded past bufio's default 64 KiB token size.
	text := "# Estados" + strings.Repeat(" ", 70000) + "\n" + oddOnesConfig
	a, err := parser.ParseReader(strings.NewReader(text))
	s.Require().NoError(err)
	s.Equal(2, a.NumStates())
}

func (s *ParserTestSuite) TestImplicitStates() {
	// Given a configuration that never lists states explicitly
	cfg := `
# Estado inicial
even
# Estados de aceptación
even
# Transiciones
even 0 even
even 1 odd
odd 0 odd
odd 1 even
`
	a, err := parser.Parse(lines(cfg))

	// Then states are registered in first-seen order
	s.Require().NoError(err)
	s.Equal([]string{"even", "odd"}, a.States())
	s.True(a.Run(""))
	s.True(a.Run("11"))
	s.False(a.Run("10"))
}

func (s *ParserTestSuite) TestLastWriteWins() {
	cfg := `# Estados
p q
# Estado inicial
p extra tokens ignored
q
# Estados de aceptación
q
# Transiciones
p 0 p
p 1 p
p 1 q
q 0 q
q 1 q
`
	a, err := parser.Parse(lines(cfg))
	s.Require().NoError(err)

	s.Equal("q", a.Name(a.Initial()))
	p, _ := a.Index("p")
	q, _ := a.Index("q")
	s.Equal(q, a.Next(p, automaton.One))
	s.True(a.Run(""))
}

func (s *ParserTestSuite) TestTransitionLineWithWrongFieldCountIgnored() {
	cfg := `# Estados
A
# Estado inicial
A
# Transiciones
A 0
A 0 A
A 1 A extra
A 1 A
`
	a, err := parser.Parse(lines(cfg))
	s.Require().NoError(err)
	s.Equal(1, a.NumStates())
	s.False(a.Run("01"))
}

func (s *ParserTestSuite) TestUnknownHeaderSuspendsData() {
	cfg := `# Estados
A
# Comentarios
ghost phantom
# Estado inicial
A
# Transiciones
A 0 A
A 1 A
`
	a, err := parser.Parse(lines(cfg))
	s.Require().NoError(err)
	s.Equal([]string{"A"}, a.States())
}

func (s *ParserTestSuite) TestDataBeforeAnyHeaderIgnored() {
	cfg := "stray line\n" + oddOnesConfig
	a, err := parser.Parse(lines(cfg))
	s.Require().NoError(err)
	s.Equal(2, a.NumStates())
}

func (s *ParserTestSuite) TestHeaderPriority() {
	// "Estados de aceptación" contains "Estados"; it must select finals.
	cfg := `# Lista de Estados de aceptación del AFD
B
# Estado inicial
A
# Transiciones
A 0 A
A 1 B
B 0 B
B 1 A
`
	a, err := parser.Parse(lines(cfg))
	s.Require().NoError(err)
	s.Equal([]string{"B"}, a.Finals())
	s.Equal([]string{"B", "A"}, a.States())
}

func (s *ParserTestSuite) TestErrors() {
	testCases := []struct {
		name     string
		config   string
		wantErr  error
		wantLine int
	}{
		{
			name: "missing transition",
			config: `# Estados
A
# Estado inicial
A
# Transiciones
A 0 A
`,
			wantErr: automaton.ErrIncompleteTransitionFunction,
		},
		{
			name: "invalid symbol",
			config: `# Estados
A B
# Transiciones
A 2 B
`,
			wantErr:  automaton.ErrInvalidTransitionSymbol,
			wantLine: 4,
		},
		{
			name: "multi-character symbol",
			config: `# Transiciones
A 01 B
`,
			wantErr:  automaton.ErrInvalidTransitionSymbol,
			wantLine: 2,
		},
		{
			name:    "empty configuration",
			config:  "\n\n",
			wantErr: automaton.ErrNoStatesDefined,
		},
		{
			name: "no initial state",
			config: `# Transiciones
A 0 A
A 1 A
`,
			wantErr: automaton.ErrNoInitialState,
		},
		{
			name: "invalid symbol wins over later validation",
			config: `# Estado inicial
A
# Transiciones
A x A
`,
			wantErr:  automaton.ErrInvalidTransitionSymbol,
			wantLine: 4,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			a, err := parser.Parse(lines(tc.config))
			s.Nil(a)
			s.Require().Error(err)
			s.True(errors.Is(err, tc.wantErr), "got %v", err)
			s.True(errors.Is(err, automaton.ErrInvalidConfig))

			var cerr *automaton.ConfigError
			s.Require().True(errors.As(err, &cerr))
			s.Equal(tc.wantLine, cerr.Line)
		})
	}
}

func (s *ParserTestSuite) TestTooManyStates() {
	// Given 65 distinct tokens under the states section
	var b strings.Builder
	b.WriteString("# Estados\n")
	for i := 1; i <= automaton.DefaultMaxStates+1; i++ {
		fmt.Fprintf(&b, "s%d ", i)
	}
	b.WriteString("\n")

	_, err := parser.Parse(lines(b.String()))

	// Then the 65th token is rejected
	s.Require().Error(err)
	s.True(errors.Is(err, automaton.ErrTooManyStates))
	var cerr *automaton.ConfigError
	s.Require().True(errors.As(err, &cerr))
	s.Equal("s65", cerr.State)
	s.Equal(2, cerr.Line)
}

func (s *ParserTestSuite) TestOptions() {
	cfg := `; Estados
A
; Estado inicial
A
; Transiciones
A 0 A
A 1 A
`
	a, err := parser.Parse(lines(cfg), parser.WithMarker(";"))
	s.Require().NoError(err)
	s.Equal(1, a.NumStates())

	_, err = parser.Parse(lines(oddOnesConfig), parser.WithMaxStates(1))
	s.True(errors.Is(err, automaton.ErrTooManyStates))
}

func (s *ParserTestSuite) TestReloadStartsClean() {
	p := parser.New()

	first, err := p.Parse(lines(oddOnesConfig))
	s.Require().NoError(err)

	second, err := p.Parse(lines(`# Estado inicial
z
# Transiciones
z 0 z
z 1 z
`))
	s.Require().NoError(err)

	s.Equal([]string{"z"}, second.States())
	s.Equal([]string{"A", "B"}, first.States())
}

func (s *ParserTestSuite) TestCheckReportsAllViolations() {
	cfg := `# Estados
A B
# Transiciones
A 0 B
`
	err := parser.New().Check(lines(cfg))
	s.Require().Error(err)

	errs := multierr.Errors(err)
	// no initial, A/1, B/0, B/1
	s.Len(errs, 4)
	s.True(errors.Is(errs[0], automaton.ErrNoInitialState))
	s.True(errors.Is(errs[1], automaton.ErrIncompleteTransitionFunction))

	s.NoError(parser.New().Check(lines(oddOnesConfig)))
}

func (s *ParserTestSuite) TestCheckStopsOnReadError() {
	err := parser.New().Check(lines("# Transiciones\nA 7 A\n"))
	s.True(errors.Is(err, automaton.ErrInvalidTransitionSymbol))
	s.Len(multierr.Errors(err), 1)
}

func (s *ParserTestSuite) TestSectionString() {
	s.Equal("finals", parser.SectionFinals.String())
	s.Equal("none", parser.SectionNone.String())
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserTestSuite))
}

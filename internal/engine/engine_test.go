package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lc/afd/internal/automaton"
	"github.com/lc/afd/internal/engine"
	"github.com/lc/afd/internal/parser"
)

const oddOnes = `# Estados
A B
# Estado inicial
A
# Estados de aceptación
B
# Transiciones
A 0 A
A 1 B
B 0 B
B 1 A`

const allZeros = `# Estado inicial
z
# Estados de aceptación
z
# Transiciones
z 0 z
z 1 dead
dead 0 dead
dead 1 dead`

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type EngineTestSuite struct {
	suite.Suite
	clock *fakeClock
	eng   *engine.Engine
	ctx   context.Context
}

func (s *EngineTestSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s.eng = engine.New(parser.New(), time.Hour, 2,
		engine.WithSweepInterval(10*time.Millisecond),
		engine.WithClock(s.clock.Now),
	)
	s.ctx = context.Background()
	s.eng.Run(s.ctx)
}

func (s *EngineTestSuite) TearDownTest() {
	s.eng.Close()
}

func (s *EngineTestSuite) load(name, cfg string) string {
	ent, err := s.eng.Load(s.ctx, engine.LoadSpec{Name: name, Lines: strings.Split(cfg, "\n")})
	s.Require().NoError(err)
	return ent.ID
}

func (s *EngineTestSuite) TestLoadAndEvaluate() {
	// Given a loaded automaton
	id := s.load("odd", oddOnes)

	// When evaluating by ID and by name
	for _, ref := range []string{id, "odd"} {
		ent, rep, err := s.eng.Evaluate(s.ctx, ref, []string{"1", "11", ""})

		// Then verdicts follow the automaton
		s.Require().NoError(err)
		s.Equal(id, ent.ID)
		s.Equal(1, rep.Accepted)
		s.True(rep.Results[0].Accepted)
		s.False(rep.Results[1].Accepted)
		s.False(rep.Results[2].Accepted)
	}
}

func (s *EngineTestSuite) TestLoadConfigError() {
	_, err := s.eng.Load(s.ctx, engine.LoadSpec{Name: "bad", Lines: []string{"# Transiciones", "A 2 B"}})

	s.Require().Error(err)
	s.True(errors.Is(err, automaton.ErrInvalidTransitionSymbol))
	s.Empty(s.eng.Snapshot())
}

func (s *EngineTestSuite) TestReloadReplaces() {
	first := s.load("m", oddOnes)
	second := s.load("m", allZeros)

	s.NotEqual(first, second)
	s.Len(s.eng.Snapshot(), 1)

	_, _, err := s.eng.Evaluate(s.ctx, first, []string{"1"})
	s.True(errors.Is(err, engine.ErrNotFound))

	_, rep, err := s.eng.Evaluate(s.ctx, "m", []string{"", "000", "1"})
	s.Require().NoError(err)
	s.Equal(2, rep.Accepted)
}

func (s *EngineTestSuite) TestUnload() {
	id := s.load("odd", oddOnes)

	s.Require().NoError(s.eng.Unload(s.ctx, id))
	s.Empty(s.eng.Snapshot())

	err := s.eng.Unload(s.ctx, id)
	s.True(errors.Is(err, engine.ErrNotFound))
}

func (s *EngineTestSuite) TestIdleExpiry() {
	s.load("idle", oddOnes)
	_, err := s.eng.Load(s.ctx, engine.LoadSpec{Name: "pinned", Lines: strings.Split(allZeros, "\n"), Pin: true})
	s.Require().NoError(err)
	ent, err := s.eng.Load(s.ctx, engine.LoadSpec{Name: "long", Lines: strings.Split(allZeros, "\n"), TTL: 3 * time.Hour})
	s.Require().NoError(err)
	s.Equal(3*time.Hour, ent.TTL)

	// When more than the idle TTL passes
	s.clock.Advance(2 * time.Hour)

	// Then only the idle automaton is swept
	s.Eventually(func() bool {
		_, ok := s.eng.Get("idle")
		return !ok
	}, time.Second, 10*time.Millisecond)

	_, ok := s.eng.Get("pinned")
	s.True(ok)
	_, ok = s.eng.Get("long")
	s.True(ok)
}

func (s *EngineTestSuite) TestEvaluateTouches() {
	s.load("busy", oddOnes)

	s.clock.Advance(50 * time.Minute)
	_, _, err := s.eng.Evaluate(s.ctx, "busy", []string{"1"})
	s.Require().NoError(err)

	s.clock.Advance(50 * time.Minute)
	time.Sleep(50 * time.Millisecond)

	ent, ok := s.eng.Get("busy")
	s.Require().True(ok)
	s.Equal(ent.LoadedAt.Add(50*time.Minute), ent.LastUsed)
}

func (s *EngineTestSuite) TestEvaluateUnknown() {
	_, _, err := s.eng.Evaluate(s.ctx, "ghost", []string{"1"})
	s.True(errors.Is(err, engine.ErrNotFound))
}

func (s *EngineTestSuite) TestLoadAfterClose() {
	s.eng.Close()
	eng := engine.New(parser.New(), 0, 1)
	eng.Run(s.ctx)
	eng.Close()

	_, err := eng.Load(s.ctx, engine.LoadSpec{Name: "late", Lines: strings.Split(oddOnes, "\n")})
	s.True(errors.Is(err, engine.ErrStopped))

	// Restart the suite engine so TearDownTest can close it again.
	s.SetupTest()
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

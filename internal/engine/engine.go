// Package engine drives the afdd daemon: it parses and registers automata,
// evaluates strings against them and unloads idle ones. Loads, unloads and
// expiry are serialised through a single goroutine; evaluation reads
// immutable automata on the caller's goroutine and only refreshes the
// entry's last-use time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lc/afd/internal/eval"
	"github.com/lc/afd/internal/log"
	"github.com/lc/afd/internal/parser"
	"github.com/lc/afd/internal/store"
)

const (
	_defaultSweepInterval = 30 * time.Second
	// Small buffer for commands to avoid blocking senders momentarily.
	_commandBufferSize = 10
)

// ErrNotFound is returned when no automaton matches an ID or name.
var ErrNotFound = errors.New("automaton not found")

// ErrStopped is returned when a command is sent after Close.
var ErrStopped = errors.New("engine stopped")

// LoadSpec describes an automaton to load.
type LoadSpec struct {
	Name  string
	Lines []string
	// TTL overrides the engine's idle TTL when positive.
	TTL time.Duration
	// Pin keeps the automaton loaded until explicitly unloaded.
	Pin bool
}

// Engine owns the catalogue of loaded automata.
type Engine struct {
	store   store.Store
	parser  *parser.Parser
	idleTTL time.Duration
	workers int
	sweep   time.Duration
	now     func() time.Time

	cmdChan  chan command
	done     chan struct{}
	wg       sync.WaitGroup
	cancelFn context.CancelFunc
}

// Opt configures an Engine.
type Opt func(e *Engine)

// WithSweepInterval sets how often idle automata are expired.
func WithSweepInterval(d time.Duration) Opt {
	return func(e *Engine) {
		if d > 0 {
			e.sweep = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Opt {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine. idleTTL of 0 keeps automata until unloaded unless
// a load asks for its own TTL.
func New(p *parser.Parser, idleTTL time.Duration, workers int, opts ...Opt) *Engine {
	e := &Engine{
		store:   store.NewStore(),
		parser:  p,
		idleTTL: idleTTL,
		workers: workers,
		sweep:   _defaultSweepInterval,
		now:     time.Now,
		cmdChan: make(chan command, _commandBufferSize),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run starts the command loop and the expiry ticker. ctx bounds their
// lifetime.
func (e *Engine) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancelFn = cancel

	e.wg.Add(2)
	go e.runLoop(runCtx)
	go e.runTicker(runCtx)

	log.Info("engine: started")
}

// Close stops the background goroutines and waits for them.
func (e *Engine) Close() {
	if e.cancelFn != nil {
		e.cancelFn()
	}
	e.wg.Wait()
	log.Info("engine: stopped")
}

// Load parses spec.Lines and registers the automaton under spec.Name,
// replacing any automaton previously loaded under that name. Configuration
// errors are returned as *automaton.ConfigError.
func (e *Engine) Load(ctx context.Context, spec LoadSpec) (store.Entry, error) {
	a, err := e.parser.Parse(spec.Lines)
	if err != nil {
		return store.Entry{}, err
	}

	ttl := e.idleTTL
	if spec.TTL > 0 {
		ttl = spec.TTL
	}
	if spec.Pin {
		ttl = 0
	}

	ent := &store.Entry{
		ID:        uuid.NewString(),
		Name:      spec.Name,
		Automaton: a,
		LoadedAt:  e.now(),
		TTL:       ttl,
	}
	reply := make(chan store.Entry, 1)
	if err := e.send(ctx, loadCmd{entry: ent, reply: reply}); err != nil {
		return store.Entry{}, err
	}
	select {
	case loaded := <-reply:
		return loaded, nil
	case <-e.done:
		return store.Entry{}, ErrStopped
	case <-ctx.Done():
		return store.Entry{}, ctx.Err()
	}
}

// Unload removes the automaton with the given ID or name.
func (e *Engine) Unload(ctx context.Context, ref string) error {
	ent, ok := e.store.Get(ref)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	reply := make(chan bool, 1)
	if err := e.send(ctx, unloadCmd{id: ent.ID, reply: reply}); err != nil {
		return err
	}
	select {
	case found := <-reply:
		if !found {
			return fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Evaluate runs inputs against the automaton with the given ID or name and
// marks it as used.
func (e *Engine) Evaluate(ctx context.Context, ref string, inputs []string) (store.Entry, *eval.Report, error) {
	ent, ok := e.store.Get(ref)
	if !ok {
		return store.Entry{}, nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	rep, err := eval.Evaluate(ctx, ent.Automaton, inputs, e.workers)
	if err != nil {
		return store.Entry{}, nil, err
	}
	e.store.Touch(ent.ID, e.now())
	return ent, rep, nil
}

// Get returns a copy of the entry with the given ID or name.
func (e *Engine) Get(ref string) (store.Entry, bool) {
	return e.store.Get(ref)
}

// NextExpiry returns when the next idle automaton expires, or ok=false if
// every loaded automaton is pinned.
func (e *Engine) NextExpiry() (time.Time, bool) {
	return e.store.NextExpiry()
}

// Snapshot returns a copy of the catalogue.
func (e *Engine) Snapshot() []store.Entry {
	return e.store.Snapshot()
}

func (e *Engine) send(ctx context.Context, cmd command) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}
	select {
	case e.cmdChan <- cmd:
		return nil
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop serialises loads, unloads and expiry sweeps. Evaluate touches
// entries from the caller's goroutine; the store's mutex covers that.
func (e *Engine) runLoop(ctx context.Context) {
	defer e.wg.Done()
	defer close(e.done)
	defer log.Info("engine: runLoop stopping")

	log.Info("engine: runLoop starting")

	for {
		select {
		case cmd := <-e.cmdChan:
			switch c := cmd.(type) {
			case loadCmd:
				e.handleLoad(c)
			case unloadCmd:
				e.handleUnload(c)
			case expireCmd:
				e.handleExpire()
			default:
				log.Warnf("engine: received unknown command type: %T", cmd)
			}
		case <-ctx.Done():
			return
		}
	}
}

// runTicker periodically queues expiry sweeps.
func (e *Engine) runTicker(ctx context.Context) {
	defer e.wg.Done()
	defer log.Info("engine: runTicker stopping")

	ticker := time.NewTicker(e.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case e.cmdChan <- expireCmd{}:
			case <-ctx.Done():
				return
			default:
				log.Info("engine: command channel full, skipping sweep")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) handleLoad(c loadCmd) {
	if old := e.store.Upsert(c.entry); old != nil {
		log.Infof("engine: reloaded %q (id %s replaces %s)", c.entry.Name, c.entry.ID, old.ID)
	} else {
		log.Infof("engine: loaded %q as %s with %d states", c.entry.Name, c.entry.ID, c.entry.Automaton.NumStates())
	}
	loaded, _ := e.store.Get(c.entry.ID)
	c.reply <- loaded
}

func (e *Engine) handleUnload(c unloadCmd) {
	removed, found := e.store.Remove(c.id)
	if found {
		log.Infof("engine: unloaded %q (%s)", removed.Name, removed.ID)
	}
	c.reply <- found
}

func (e *Engine) handleExpire() {
	for _, ent := range e.store.ExpireNow(e.now()) {
		log.Infof("engine: expired idle automaton %q (%s)", ent.Name, ent.ID)
	}
}

// command is sent to runLoop.
type command interface {
	isCommand()
}

type loadCmd struct {
	entry *store.Entry
	reply chan store.Entry
}

func (loadCmd) isCommand() {}

type unloadCmd struct {
	id    string
	reply chan bool
}

func (unloadCmd) isCommand() {}

type expireCmd struct{}

func (expireCmd) isCommand() {}

package eval

import (
	"context"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/lc/afd/internal/automaton"
	"github.com/lc/afd/internal/log"
)

// Result is the verdict for one input string.
type Result struct {
	Input    string `json:"input"`
	Accepted bool   `json:"accepted"`
}

// Display returns the input, or Epsilon for the empty string.
func (r Result) Display() string {
	if r.Input == "" {
		return Epsilon
	}
	return r.Input
}

// Report holds the verdicts of a batch in input order.
type Report struct {
	Results  []Result `json:"results"`
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
}

// Evaluate runs every input against a using at most workers goroutines.
// The automaton is read-only, so no locking is needed. Results keep the
// order of inputs. A cancelled ctx stops the batch and returns ctx.Err().
func Evaluate(ctx context.Context, a *automaton.Automaton, inputs []string, workers int) (*Report, error) {
	if workers < 1 {
		workers = 1
	}

	var accepted atomic.Int64
	results := make([]Result, len(inputs))

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for i, in := range inputs {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok := a.Run(in)
			if ok {
				accepted.Inc()
			}
			results[i] = Result{Input: in, Accepted: ok}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	n := int(accepted.Load())
	log.Debugf("eval: %d strings, %d accepted", len(inputs), n)
	return &Report{
		Results:  results,
		Accepted: n,
		Rejected: len(inputs) - n,
	}, nil
}

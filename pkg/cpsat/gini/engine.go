// Package gini registers a cpsat engine backed by the go-air/gini SAT solver.
// Importing it for side effects makes the "gini" engine available.
package gini

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/sourcegraph/conc/pool"

	"github.com/noah-isme/timetable-engine/pkg/cpsat"
)

// Name is the registry key of this engine.
const Name = "gini"

const pollInterval = 2 * time.Millisecond

func init() {
	cpsat.Register(Name, Engine{})
}

// Engine solves Models with a portfolio of gini instances.
type Engine struct{}

// Name implements cpsat.Engine.
func (Engine) Name() string { return Name }

// NewModel implements cpsat.Engine.
func (Engine) NewModel() cpsat.Model { return NewModel() }

type solution struct {
	status cpsat.Status
	values []bool
	wall   time.Duration
}

func (s *solution) Status() cpsat.Status    { return s.status }
func (s *solution) WallTime() time.Duration { return s.wall }

func (s *solution) Value(v cpsat.BoolVar) bool {
	if int(v) < 0 || int(v) >= len(s.values) {
		return false
	}
	return s.values[v]
}

// Solve runs params.Workers independent gini instances, each loading the
// clauses in a different order, and returns the first definite answer. A model
// without constraints is trivially satisfied with every variable false.
func (e Engine) Solve(ctx context.Context, m cpsat.Model, params cpsat.Params) (cpsat.Solution, error) {
	model, ok := m.(*Model)
	if !ok {
		return nil, cpsat.ErrForeignModel
	}
	began := time.Now()
	if model.Err() != nil {
		return &solution{status: cpsat.StatusModelInvalid, wall: time.Since(began)}, nil
	}

	if params.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.TimeLimit)
		defer cancel()
	}
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	workers := params.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		once   sync.Once
		result *solution
	)
	p := pool.New().WithContext(ctx)
	for w := 0; w < workers; w++ {
		seed := int64(w)
		p.Go(func(ctx context.Context) error {
			sol := runWorker(ctx, model, seed)
			if sol.status == cpsat.StatusUnknown {
				return nil
			}
			once.Do(func() {
				result = sol
				stop()
			})
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	if result == nil {
		result = &solution{status: cpsat.StatusUnknown}
	}
	result.wall = time.Since(began)
	return result, nil
}

func runWorker(ctx context.Context, m *Model, seed int64) *solution {
	g := gini.New()
	order := make([]int, len(m.clauses))
	for i := range order {
		order[i] = i
	}
	if seed > 0 {
		rnd := rand.New(rand.NewSource(seed))
		rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	maxVar := 0
	for _, ci := range order {
		for _, l := range m.clauses[ci] {
			if v := int(l.Var()); v > maxVar {
				maxVar = v
			}
			g.Add(l)
		}
		g.Add(0)
	}

	s := g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	res := 0
poll:
	for {
		if r, done := s.Test(); done {
			res = r
			break
		}
		select {
		case <-ctx.Done():
			res = s.Stop()
			break poll
		case <-ticker.C:
		}
	}

	switch res {
	case 1:
		values := make([]bool, m.nextVar)
		for v := 0; v < maxVar && v < len(values); v++ {
			values[v] = g.Value(z.Var(v + 1).Pos())
		}
		return &solution{status: cpsat.StatusOptimal, values: values}
	case -1:
		return &solution{status: cpsat.StatusInfeasible}
	default:
		return &solution{status: cpsat.StatusUnknown}
	}
}

// Package cpsat defines the contract between the timetable engine and a
// pluggable constraint-solving backend.
//
// Backends register themselves from an init function, the same way
// database/sql drivers do:
//
//	import _ "github.com/noah-isme/timetable-engine/pkg/cpsat/gini"
//
//	engine, err := cpsat.Lookup("gini")
package cpsat

import (
	"context"
	"errors"
	"time"
)

// BoolVar is a 0/1 decision variable owned by one Model.
type BoolVar int

// Term is a weighted boolean in a linear constraint.
type Term struct {
	Var  BoolVar
	Coef int
}

// Interval spans [Start, Start+Size) whenever Presence is true.
type Interval struct {
	Start    int
	Size     int
	Presence BoolVar
}

// End is the first point after the interval.
func (iv Interval) End() int { return iv.Start + iv.Size }

// Status is the verdict reported by an engine.
type Status string

const (
	StatusOptimal      Status = "OPTIMAL"
	StatusFeasible     Status = "FEASIBLE"
	StatusInfeasible   Status = "INFEASIBLE"
	StatusUnknown      Status = "UNKNOWN"
	StatusModelInvalid Status = "MODEL_INVALID"
)

// HasSolution reports whether values can be read.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Params bounds a solve.
type Params struct {
	TimeLimit time.Duration
	Workers   int
}

// Model accepts boolean variables and the constraints every engine supports.
type Model interface {
	NewBool(name string) BoolVar
	AddExactlyOne(vars ...BoolVar)
	AddLinearAtMost(terms []Term, bound int)
	NumVars() int
}

// IntervalModel is implemented by models that also support optional
// intervals and no-overlap constraints.
type IntervalModel interface {
	Model
	NewOptionalInterval(start, size int, presence BoolVar) Interval
	AddNoOverlap(intervals ...Interval)
}

// Solution is the outcome of a solve.
type Solution interface {
	Status() Status
	Value(v BoolVar) bool
	WallTime() time.Duration
}

// Engine builds models and solves them.
type Engine interface {
	Name() string
	NewModel() Model
	Solve(ctx context.Context, m Model, params Params) (Solution, error)
}

var (
	// ErrUnknownEngine is returned by Lookup for unregistered names.
	ErrUnknownEngine = errors.New("cpsat: unknown engine")
	// ErrForeignModel is returned when a model is handed to an engine that did not create it.
	ErrForeignModel = errors.New("cpsat: model was not created by this engine")
)

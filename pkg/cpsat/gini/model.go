package gini

import (
	"fmt"

	"github.com/go-air/gini/z"

	"github.com/noah-isme/timetable-engine/pkg/cpsat"
)

// pairwiseLimit is the largest group encoded with pairwise at-most-one clauses;
// bigger groups use a sequential counter.
const pairwiseLimit = 6

// Model compiles constraints to CNF as they are added.
type Model struct {
	names     []string
	nextVar   int
	clauses   [][]z.Lit
	intervals []cpsat.Interval
	invalid   error
}

var _ cpsat.IntervalModel = (*Model)(nil)

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

func lit(v cpsat.BoolVar) z.Lit { return z.Var(int(v) + 1).Pos() }

// NewBool allocates a decision variable.
func (m *Model) NewBool(name string) cpsat.BoolVar {
	v := cpsat.BoolVar(m.nextVar)
	m.nextVar++
	m.names = append(m.names, name)
	return v
}

func (m *Model) aux() z.Lit {
	return lit(m.NewBool(""))
}

// NumVars counts decision and auxiliary variables.
func (m *Model) NumVars() int { return m.nextVar }

// NumClauses counts compiled clauses.
func (m *Model) NumClauses() int { return len(m.clauses) }

// Err reports the first malformed constraint, if any.
func (m *Model) Err() error { return m.invalid }

func (m *Model) owns(v cpsat.BoolVar) bool {
	return int(v) >= 0 && int(v) < m.nextVar
}

func (m *Model) fail(format string, args ...any) {
	if m.invalid == nil {
		m.invalid = fmt.Errorf(format, args...)
	}
}

func (m *Model) clause(lits ...z.Lit) {
	m.clauses = append(m.clauses, lits)
}

func (m *Model) contradiction() {
	a := m.aux()
	m.clause(a)
	m.clause(a.Not())
}

// AddExactlyOne requires exactly one of vars to be true. An empty group makes
// the model unsatisfiable.
func (m *Model) AddExactlyOne(vars ...cpsat.BoolVar) {
	lits := make([]z.Lit, 0, len(vars))
	for _, v := range vars {
		if !m.owns(v) {
			m.fail("exactly-one references unknown variable %d", v)
			return
		}
		lits = append(lits, lit(v))
	}
	if len(lits) == 0 {
		m.contradiction()
		return
	}
	m.clause(lits...)
	m.atMostOne(lits)
}

func (m *Model) atMostOne(lits []z.Lit) {
	if len(lits) < 2 {
		return
	}
	if len(lits) <= pairwiseLimit {
		for i := 0; i < len(lits); i++ {
			for j := i + 1; j < len(lits); j++ {
				m.clause(lits[i].Not(), lits[j].Not())
			}
		}
		return
	}
	// Sequential counter: s[i] holds when some of lits[0..i] is true.
	prev := m.aux()
	m.clause(lits[0].Not(), prev)
	for i := 1; i < len(lits)-1; i++ {
		next := m.aux()
		m.clause(lits[i].Not(), next)
		m.clause(prev.Not(), next)
		m.clause(lits[i].Not(), prev.Not())
		prev = next
	}
	m.clause(lits[len(lits)-1].Not(), prev.Not())
}

// AddLinearAtMost requires sum(coef*var) <= bound for non-negative
// coefficients, encoded with a weighted sequential counter.
func (m *Model) AddLinearAtMost(terms []cpsat.Term, bound int) {
	active := make([]cpsat.Term, 0, len(terms))
	total := 0
	for _, t := range terms {
		if !m.owns(t.Var) {
			m.fail("linear constraint references unknown variable %d", t.Var)
			return
		}
		if t.Coef < 0 {
			m.fail("negative coefficient %d on variable %d", t.Coef, t.Var)
			return
		}
		if t.Coef == 0 {
			continue
		}
		active = append(active, t)
		total += t.Coef
	}
	if total <= bound {
		return
	}
	if bound < 0 {
		m.contradiction()
		return
	}
	if bound == 0 {
		for _, t := range active {
			m.clause(lit(t.Var).Not())
		}
		return
	}

	k := bound
	// reach[j-1] holds when the running sum over the prefix is at least j.
	var reach []z.Lit
	for i, t := range active {
		x, w := lit(t.Var), t.Coef
		if w > k {
			m.clause(x.Not())
		} else if i > 0 {
			m.clause(x.Not(), reach[k-w].Not())
		}
		if i == len(active)-1 {
			break
		}
		next := make([]z.Lit, k)
		for j := 1; j <= k; j++ {
			next[j-1] = m.aux()
			if i > 0 {
				m.clause(reach[j-1].Not(), next[j-1])
			}
			switch {
			case j <= w:
				m.clause(x.Not(), next[j-1])
			case i > 0:
				m.clause(x.Not(), reach[j-w-1].Not(), next[j-1])
			}
		}
		reach = next
	}
}

// NewOptionalInterval records an interval guarded by presence.
func (m *Model) NewOptionalInterval(start, size int, presence cpsat.BoolVar) cpsat.Interval {
	if !m.owns(presence) {
		m.fail("interval references unknown variable %d", presence)
	}
	if size < 1 {
		m.fail("interval at %d has size %d", start, size)
	}
	iv := cpsat.Interval{Start: start, Size: size, Presence: presence}
	m.intervals = append(m.intervals, iv)
	return iv
}

// AddNoOverlap forbids two present intervals from sharing a time point. The
// encoding is time-indexed: one at-most-one group per covered point.
func (m *Model) AddNoOverlap(intervals ...cpsat.Interval) {
	covering := make(map[int][]z.Lit)
	seen := make(map[int]map[cpsat.BoolVar]bool)
	minT, maxT := 0, -1
	for _, iv := range intervals {
		if !m.owns(iv.Presence) {
			m.fail("no-overlap references unknown variable %d", iv.Presence)
			return
		}
		for t := iv.Start; t < iv.End(); t++ {
			if seen[t] == nil {
				seen[t] = make(map[cpsat.BoolVar]bool)
			}
			if seen[t][iv.Presence] {
				continue
			}
			seen[t][iv.Presence] = true
			covering[t] = append(covering[t], lit(iv.Presence))
			if maxT < minT {
				minT, maxT = t, t
			}
			if t < minT {
				minT = t
			}
			if t > maxT {
				maxT = t
			}
		}
	}
	for t := minT; t <= maxT; t++ {
		m.atMostOne(covering[t])
	}
}

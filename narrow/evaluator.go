// Package narrow computes flow-sensitive type refinements: given a boolean
// test and a branch polarity, it derives the type every narrowable place
// must have for the test to go that way.
package narrow

import (
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/pyrite-lang/pyrite/infer"
	"github.com/pyrite-lang/pyrite/internal/log"
	"github.com/pyrite-lang/pyrite/semindex"
	"github.com/pyrite-lang/pyrite/types"
	"github.com/pyrite-lang/pyrite/util"
)

var logger = log.DefaultLogger.With("section", "narrow")

// queryKey identifies one memoized narrowing query: a predicate node (by
// identity) and the polarity under which it is evaluated.
type queryKey struct {
	node     semindex.PredicateNode
	positive bool
}

type cacheEntry struct {
	result *Constraints
	// done is false while the entry is a provisional value of an
	// in-progress fixed-point iteration
	done bool
}

// Evaluator answers narrowing queries, memoizing each (predicate, polarity)
// pair for the duration of an analysis run. Evaluation is pure: the cache is
// the only mutable state, and redundant concurrent computation of the same
// key is harmless because results are deterministic.
//
// Inference may call back into Narrow while the evaluator is computing a
// query (flow-sensitive name types depend on enclosing predicates). The
// evaluator survives such cycles by handing the reentrant query a
// provisional result - initially nil, meaning "no constraint yet" - and then
// re-running the query until the result stabilises. The iteration count is
// bounded by the number of places in the predicate's scope.
type Evaluator struct {
	inference infer.Types

	mu    sync.Mutex
	cache map[queryKey]cacheEntry
	paths map[uint64]*evalPath
}

// evalPath tracks the queries in flight on one goroutine's evaluation path.
// A reentrant query on the same path is a cycle; the same query arriving
// from another goroutine is an independent computation and just recomputes
// the (deterministic) result instead of being handed a provisional one.
type evalPath struct {
	inFlight util.MSet[queryKey]
	cycles   util.MSet[queryKey]
}

func NewEvaluator(inference infer.Types) *Evaluator {
	return &Evaluator{
		inference: inference,
		cache:     make(map[queryKey]cacheEntry),
		paths:     make(map[uint64]*evalPath),
	}
}

// goroutineID parses the current goroutine's id out of its stack header
// ("goroutine 42 [running]: ..."); the runtime has no public accessor but
// the header format is stable.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	header := strings.TrimPrefix(string(buf), "goroutine ")
	id, err := strconv.ParseUint(header[:strings.IndexByte(header, ' ')], 10, 64)
	if err != nil {
		panic(errors.Wrapf(err, "parsing goroutine id from %q", buf))
	}
	return id
}

// Narrow returns the type constraint the predicate places on the given
// place, or false when the predicate carries no information about it.
// Callers fall back to the unnarrowed type on a false return.
func (e *Evaluator) Narrow(predicate semindex.Predicate, place semindex.ScopedPlaceID) (types.Type, bool) {
	constraints := e.ConstraintsFor(predicate)
	return constraints.Get(place)
}

// ConstraintsFor returns the full constraint map of a predicate, or nil
// when no refinement can be determined.
func (e *Evaluator) ConstraintsFor(predicate semindex.Predicate) *Constraints {
	switch predicate.Node.(type) {
	case *semindex.ReturnsNeverPredicate, *semindex.StarImportPredicate:
		return nil
	}
	return e.constraintsFor(predicate.Node, predicate.IsPositive)
}

func (e *Evaluator) constraintsFor(node semindex.PredicateNode, positive bool) *Constraints {
	key := queryKey{node: node, positive: positive}
	gid := goroutineID()

	e.mu.Lock()
	if entry, ok := e.cache[key]; ok && entry.done {
		e.mu.Unlock()
		return entry.result
	}
	path, ok := e.paths[gid]
	if !ok {
		path = &evalPath{inFlight: util.NewEmptySet[queryKey](), cycles: util.NewEmptySet[queryKey]()}
		e.paths[gid] = path
	}
	if path.inFlight.Contains(key) {
		// a cycle: this query transitively depends on itself. Hand back the
		// current provisional value (nil on the first pass) and let the
		// outer invocation iterate to a fixed point.
		path.cycles.Add(key)
		provisional := e.cache[key].result
		e.mu.Unlock()
		logger.Debug("narrowing cycle detected, returning provisional result", "positive", positive)
		return provisional
	}
	path.inFlight.Add(key)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		path.inFlight.Remove(key)
		path.cycles.Remove(key)
		if path.inFlight.Len() == 0 {
			delete(e.paths, gid)
		}
		e.mu.Unlock()
	}()

	// The fixed point is reached in at most one pass per place in scope:
	// each pass can only refine constraints on places the scope knows.
	limit := node.Scope().PlaceCount() + 1
	var result *Constraints
	for i := 0; i < limit; i++ {
		result = e.evaluate(node, positive)

		e.mu.Lock()
		previous := e.cache[key].result
		e.cache[key] = cacheEntry{result: result}
		cycled := path.cycles.Contains(key)
		path.cycles.Remove(key)
		e.mu.Unlock()

		if !cycled || equalConstraints(previous, result) {
			break
		}
	}

	e.mu.Lock()
	// A result computed while an enclosing query on this path is still
	// iterating may rest on that query's provisional value. Keep it
	// provisional too so the next pass, or the next caller, recomputes it
	// against the converged state.
	e.cache[key] = cacheEntry{result: result, done: path.cycles.Len() == 0}
	e.mu.Unlock()
	return result
}

// evaluate dispatches one (predicate, polarity) computation; it is re-run
// from scratch on every fixed-point pass.
func (e *Evaluator) evaluate(node semindex.PredicateNode, positive bool) *Constraints {
	b := &builder{evaluator: e, inference: e.inference, scope: node.Scope()}
	switch node := node.(type) {
	case *semindex.ExpressionPredicate:
		return b.expressionConstraints(node.Expr, positive)
	case *semindex.PatternPredicate:
		return b.patternConstraints(node, positive)
	default:
		return nil
	}
}

// builder walks one predicate's structure. It holds no state beyond its
// collaborators; all results flow through return values.
type builder struct {
	evaluator *Evaluator
	inference infer.Types
	scope     *semindex.Scope
}

// expectPlace resolves a place expression that the semantic index
// guarantees to have seen; a miss is an index bug and panics.
func (b *builder) expectPlace(place semindex.PlaceExpr) semindex.ScopedPlaceID {
	return b.scope.ExpectPlaceID(place)
}

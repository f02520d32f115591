// Package condition provides the evaluator registry for declarative rule
// conditions. Evaluation is fail-closed: unknown types and evaluator panics
// both yield false rather than crashing rule execution.
package condition

import (
	"fmt"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/infrastructure/logging"
)

// Evaluator is a pure predicate over the execution context. Evaluators must
// not mutate game state.
type Evaluator func(cond rule.Condition, ectx *ports.ExecutionContext) bool

// Registry maps condition type names to evaluators. New types may be
// registered at startup; the built-in set is installed by NewRegistry.
type Registry struct {
	evaluators map[string]Evaluator
	log        *logging.Logger
}

// NewRegistry creates a registry with all built-in evaluators installed.
func NewRegistry(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.Default()
	}
	r := &Registry{
		evaluators: make(map[string]Evaluator),
		log:        log,
	}
	r.registerBuiltins()
	return r
}

// Register installs an evaluator under the given type name, replacing any
// previous registration.
func (r *Registry) Register(condType string, ev Evaluator) {
	r.evaluators[condType] = ev
}

// Has reports whether an evaluator is registered for the type.
func (r *Registry) Has(condType string) bool {
	_, ok := r.evaluators[condType]
	return ok
}

// Evaluate runs the evaluator for the condition's type. Unknown types log a
// warning and evaluate to false. A panicking evaluator is recovered and
// treated as false; a single malformed condition must not take down rule
// evaluation.
func (r *Registry) Evaluate(cond rule.Condition, ectx *ports.ExecutionContext) (result bool) {
	ev, ok := r.evaluators[cond.Type]
	if !ok {
		r.log.Warn("unknown condition type", "type", cond.Type)
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("condition evaluator panicked",
				"type", cond.Type,
				"panic", fmt.Sprint(rec),
			)
			result = false
		}
	}()

	return ev(cond, ectx)
}

// EvaluateAll applies AND semantics over a condition list and reports which
// indices failed. An empty list is vacuously true. Unlike the "and"
// composite it does not short-circuit, so callers get the full failure list
// for diagnostics.
func (r *Registry) EvaluateAll(conditions []rule.Condition, ectx *ports.ExecutionContext) (bool, []int) {
	var failed []int
	for i, cond := range conditions {
		if !r.Evaluate(cond, ectx) {
			failed = append(failed, i)
		}
	}
	return len(failed) == 0, failed
}

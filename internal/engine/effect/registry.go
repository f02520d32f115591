// Package effect provides the executor registry for declarative rule
// effects. Effects are commands: each one mutates game state and returns a
// structured result record.
package effect

import (
	"errors"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/engine/condition"
	"github.com/rentfall/rentfall/internal/infrastructure/logging"
)

// ErrNilState is returned by executors that need game state when the context
// carries none.
var ErrNilState = errors.New("execution context has no game state")

// Executor mutates game state according to one effect and returns a result
// record. Executor errors propagate to the orchestrator, which records them
// and continues with the remaining effects of the rule.
type Executor func(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error)

// Registry maps effect type names to executors. The probabilityCheck effect
// needs condition evaluation for its modifiers, so the registry holds a
// condition registry.
type Registry struct {
	executors  map[string]Executor
	conditions *condition.Registry
	log        *logging.Logger
}

// NewRegistry creates a registry with all built-in executors installed.
func NewRegistry(conditions *condition.Registry, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.Default()
	}
	r := &Registry{
		executors:  make(map[string]Executor),
		conditions: conditions,
		log:        log,
	}
	r.registerBuiltins()
	return r
}

// Register installs an executor under the given type name, replacing any
// previous registration.
func (r *Registry) Register(effectType string, ex Executor) {
	r.executors[effectType] = ex
}

// Has reports whether an executor is registered for the type.
func (r *Registry) Has(effectType string) bool {
	_, ok := r.executors[effectType]
	return ok
}

// Execute runs the executor for the effect's type. An unknown type logs a
// warning and returns an "unknown" result without error; executor errors are
// returned to the caller untouched.
func (r *Registry) Execute(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
	ex, ok := r.executors[e.Type]
	if !ok {
		r.log.Warn("unknown effect type", "type", e.Type)
		return ports.EffectResult{
			Type:    ports.ResultTypeUnknown,
			Details: map[string]any{"effect_type": e.Type},
		}, nil
	}
	return ex(e, ectx)
}

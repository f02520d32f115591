package effect

import (
	"fmt"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
)

// registerBuiltins installs the built-in effect vocabulary. Domain effects
// live in domain.go.
func (r *Registry) registerBuiltins() {
	r.Register(rule.EffectModifyResource, r.execModifyResource)
	r.Register(rule.EffectModifyState, r.execModifyState)
	r.Register(rule.EffectLog, r.execLog)
	r.Register(rule.EffectTriggerEvent, r.execTriggerEvent)
	r.Register(rule.EffectMultiple, r.execMultiple)
	r.Register(rule.EffectProbabilityCheck, r.execProbabilityCheck)
	r.registerDomainEffects()
}

// applyOperation applies add/set/multiply (default add) to a current value.
func applyOperation(current, amount float64, operation string) float64 {
	switch operation {
	case rule.OpSet:
		return amount
	case rule.OpMultiply:
		return current * amount
	default: // OpAdd and unrecognized operations
		return current + amount
	}
}

// execModifyResource modifies a named resource, flooring the result at zero.
func (r *Registry) execModifyResource(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
	if ectx.State == nil {
		return ports.EffectResult{}, ErrNilState
	}

	oldValue := ectx.State.Resource(e.Resource)
	newValue := applyOperation(oldValue, e.Amount, e.Operation)
	if newValue < 0 {
		newValue = 0
	}
	ectx.State.SetResource(e.Resource, newValue)

	return ports.EffectResult{
		Type: e.Type,
		Details: map[string]any{
			"resource":  e.Resource,
			"operation": operationOrDefault(e.Operation),
			"old_value": oldValue,
			"new_value": newValue,
			"change":    newValue - oldValue,
		},
	}, nil
}

// execModifyState applies the same operation set to an arbitrary nested
// state path. Non-numeric current values are only assignable via set.
func (r *Registry) execModifyState(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
	if ectx.State == nil {
		return ports.EffectResult{}, ErrNilState
	}

	oldValue := ectx.State.GetPath(e.Path)
	var newValue any

	operation := operationOrDefault(e.Operation)
	if operation == rule.OpSet {
		newValue = e.Value
	} else {
		current, _ := state.ToFloat(oldValue)
		amount, ok := state.ToFloat(e.Value)
		if !ok {
			return ports.EffectResult{}, fmt.Errorf("modifyState %s on %q needs a numeric value", operation, e.Path)
		}
		newValue = applyOperation(current, amount, operation)
	}
	ectx.State.SetPath(e.Path, newValue)

	return ports.EffectResult{
		Type: e.Type,
		Details: map[string]any{
			"path":      e.Path,
			"operation": operation,
			"old_value": oldValue,
			"new_value": newValue,
		},
	}, nil
}

// execLog forwards a message to the game-log collaborator. It always
// succeeds; a missing collaborator is simply a no-op.
func (r *Registry) execLog(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
	if ectx.Log != nil {
		ectx.Log.Log(e.Message, e.Category)
	}
	return ports.EffectResult{
		Type: e.Type,
		Details: map[string]any{
			"message":  e.Message,
			"category": e.Category,
		},
	}, nil
}

// execTriggerEvent fires a named game event immediately or schedules it a
// number of days out. Scheduling mechanics belong to the collaborator.
func (r *Registry) execTriggerEvent(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
	if ectx.Events == nil {
		return ports.EffectResult{}, fmt.Errorf("triggerEvent %q has no event scheduler", e.Event)
	}

	details := map[string]any{"event": e.Event, "delay": e.Delay}
	if e.Delay > 0 {
		if ectx.State == nil {
			return ports.EffectResult{}, ErrNilState
		}
		dueDay := ectx.State.Day + e.Delay
		ectx.Events.Schedule(e.Event, dueDay, e.Payload)
		details["due_day"] = dueDay
	} else {
		ectx.Events.FireNow(e.Event, e.Payload)
	}

	return ports.EffectResult{Type: e.Type, Details: details}, nil
}

// execMultiple runs each sub-effect in order, collecting results including
// error entries. It is a partial-failure container and never aborts early.
func (r *Registry) execMultiple(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
	results := make([]ports.EffectResult, 0, len(e.Effects))
	successCount, errorCount := 0, 0

	for i, sub := range e.Effects {
		res, err := r.Execute(sub, ectx)
		if err != nil {
			errorCount++
			results = append(results, ports.EffectResult{
				Type:        ports.ResultTypeError,
				EffectIndex: i,
				Error:       err.Error(),
			})
			continue
		}
		successCount++
		res.EffectIndex = i
		results = append(results, res)
	}

	return ports.EffectResult{
		Type: e.Type,
		Details: map[string]any{
			"results":       results,
			"success_count": successCount,
			"error_count":   errorCount,
		},
	}, nil
}

// execProbabilityCheck computes an effective chance from the base plus the
// bonuses of all modifiers whose condition holds, clamps it to [0, 1], draws
// once, and runs the success or failure effect list accordingly.
func (r *Registry) execProbabilityCheck(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
	chance := e.Base
	for _, m := range e.Modifiers {
		if m.Condition == nil || r.conditions.Evaluate(*m.Condition, ectx) {
			chance += m.Bonus
		}
	}
	if chance < 0 {
		chance = 0
	}
	if chance > 1 {
		chance = 1
	}

	success := ectx.Draw() < chance
	branch := e.OnFailure
	if success {
		branch = e.OnSuccess
	}

	results := make([]ports.EffectResult, 0, len(branch))
	for i, sub := range branch {
		res, err := r.Execute(sub, ectx)
		if err != nil {
			results = append(results, ports.EffectResult{
				Type:        ports.ResultTypeError,
				EffectIndex: i,
				Error:       err.Error(),
			})
			continue
		}
		res.EffectIndex = i
		results = append(results, res)
	}

	return ports.EffectResult{
		Type: e.Type,
		Details: map[string]any{
			"success": success,
			"chance":  chance,
			"results": results,
		},
	}, nil
}

func operationOrDefault(operation string) string {
	if operation == "" {
		return rule.OpAdd
	}
	return operation
}

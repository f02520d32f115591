package effect

import (
	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
)

// Reason codes carried by domain-effect results.
const (
	reasonNoTarget    = "no_target"
	reasonNoDirectory = "no_directory"
)

// registerDomainEffects installs the effects that delegate to the actor
// directory. Each resolves a target among the collaborator-supplied eligible
// set ("random" picks uniformly, otherwise exact name match), applies the
// mutation, and reports a no_target outcome instead of erroring when nothing
// is eligible.
func (r *Registry) registerDomainEffects() {
	r.Register(rule.EffectHealInfection, actorEffect(rule.EffectHealInfection, func(a *state.Actor, e rule.Effect) map[string]any {
		a.Infected = false
		a.InfectionKnown = false
		return map[string]any{"actor": a.Name}
	}))
	r.Register(rule.EffectEvictTenant, actorEffect(rule.EffectEvictTenant, func(a *state.Actor, e rule.Effect) map[string]any {
		a.Evicted = true
		a.Room = ""
		return map[string]any{"actor": a.Name}
	}))
	r.Register(rule.EffectAdjustSatisfaction, actorEffect(rule.EffectAdjustSatisfaction, func(a *state.Actor, e rule.Effect) map[string]any {
		old := a.Satisfaction
		a.Satisfaction += e.Amount
		return map[string]any{"actor": a.Name, "old_value": old, "new_value": a.Satisfaction}
	}))
	r.Register(rule.EffectDetectInfection, actorEffect(rule.EffectDetectInfection, func(a *state.Actor, e rule.Effect) map[string]any {
		return map[string]any{"actor": a.Name, "infected": a.Infected}
	}))
	r.Register(rule.EffectRevealInfection, actorEffect(rule.EffectRevealInfection, func(a *state.Actor, e rule.Effect) map[string]any {
		a.InfectionKnown = true
		return map[string]any{"actor": a.Name}
	}))

	r.Register(rule.EffectRepairRoom, roomEffect(rule.EffectRepairRoom, func(room *state.Room) map[string]any {
		room.NeedsRepair = false
		return map[string]any{"room": room.ID}
	}))
	r.Register(rule.EffectReinforceRoom, roomEffect(rule.EffectReinforceRoom, func(room *state.Room) map[string]any {
		room.Reinforced = true
		return map[string]any{"room": room.ID}
	}))
}

// actorEffect builds an executor that resolves an actor target and applies
// the given mutation.
func actorEffect(kind string, apply func(a *state.Actor, e rule.Effect) map[string]any) Executor {
	return func(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
		if ectx.Directory == nil {
			return failedResult(kind, reasonNoDirectory), nil
		}

		var target *state.Actor
		if e.Target == "" || e.Target == rule.TargetRandom {
			eligible := ectx.Directory.EligibleActors(kind)
			if len(eligible) == 0 {
				return failedResult(kind, reasonNoTarget), nil
			}
			target = eligible[pick(ectx, len(eligible))]
		} else {
			target = ectx.Directory.FindActor(e.Target)
			if target == nil {
				return failedResult(kind, reasonNoTarget), nil
			}
		}

		details := apply(target, e)
		details["success"] = true
		return ports.EffectResult{Type: kind, Details: details}, nil
	}
}

// roomEffect builds an executor that resolves a room target and applies the
// given mutation.
func roomEffect(kind string, apply func(room *state.Room) map[string]any) Executor {
	return func(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
		if ectx.Directory == nil {
			return failedResult(kind, reasonNoDirectory), nil
		}

		var target *state.Room
		if e.Target == "" || e.Target == rule.TargetRandom {
			eligible := ectx.Directory.EligibleRooms(kind)
			if len(eligible) == 0 {
				return failedResult(kind, reasonNoTarget), nil
			}
			target = eligible[pick(ectx, len(eligible))]
		} else {
			target = ectx.Directory.FindRoom(e.Target)
			if target == nil {
				return failedResult(kind, reasonNoTarget), nil
			}
		}

		details := apply(target)
		details["success"] = true
		return ports.EffectResult{Type: kind, Details: details}, nil
	}
}

// pick selects a uniform index in [0, n) using the context's random source.
func pick(ectx *ports.ExecutionContext, n int) int {
	if n <= 1 {
		return 0
	}
	idx := int(ectx.Draw() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func failedResult(kind, reason string) ports.EffectResult {
	return ports.EffectResult{
		Type: kind,
		Details: map[string]any{
			"success": false,
			"reason":  reason,
		},
	}
}

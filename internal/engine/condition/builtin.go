package condition

import (
	"math"
	"reflect"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
)

// registerBuiltins installs the closed built-in condition vocabulary.
func (r *Registry) registerBuiltins() {
	r.Register(rule.CondResource, r.evalResource)
	r.Register(rule.CondActorCount, r.evalActorCount)
	r.Register(rule.CondDayRange, r.evalDayRange)
	r.Register(rule.CondChance, r.evalChance)
	r.Register(rule.CondAnd, r.evalAnd)
	r.Register(rule.CondOr, r.evalOr)
	r.Register(rule.CondStatePath, r.evalStatePath)
	r.Register(rule.CondTrigger, r.evalTrigger)
}

// evalResource compares a named resource amount against the condition's
// amount. The operator defaults to ">=".
func (r *Registry) evalResource(cond rule.Condition, ectx *ports.ExecutionContext) bool {
	if ectx.State == nil {
		return false
	}
	return compareNumbers(ectx.State.Resource(cond.Resource), cond.Amount, cond.Operator)
}

// evalActorCount counts actors of a type and compares against the
// condition's count, "at least N" by default. OnlyInfected narrows the
// count to the infected subset.
func (r *Registry) evalActorCount(cond rule.Condition, ectx *ports.ExecutionContext) bool {
	if ectx.State == nil {
		return false
	}
	var count int
	if cond.OnlyInfected {
		count = ectx.State.CountInfected(cond.ActorType)
	} else {
		count = ectx.State.CountActors(cond.ActorType, cond.IncludeInfected)
	}
	return compareNumbers(float64(count), float64(cond.Count), cond.Operator)
}

// evalDayRange checks state.Day within [min, max] inclusive. A nil min
// defaults to 0; a nil max leaves the range open-ended.
func (r *Registry) evalDayRange(cond rule.Condition, ectx *ports.ExecutionContext) bool {
	if ectx.State == nil {
		return false
	}
	day := ectx.State.Day
	min := 0
	if cond.MinDay != nil {
		min = *cond.MinDay
	}
	if day < min {
		return false
	}
	if cond.MaxDay != nil && day > *cond.MaxDay {
		return false
	}
	return true
}

// evalChance is the one intentionally non-deterministic condition: a single
// uniform draw against the configured chance.
func (r *Registry) evalChance(cond rule.Condition, ectx *ports.ExecutionContext) bool {
	return ectx.Draw() < cond.Chance
}

// evalAnd short-circuits false like a boolean AND over the sub-conditions.
func (r *Registry) evalAnd(cond rule.Condition, ectx *ports.ExecutionContext) bool {
	for _, sub := range cond.Conditions {
		if !r.Evaluate(sub, ectx) {
			return false
		}
	}
	return true
}

// evalOr short-circuits true on the first passing sub-condition. An empty
// list evaluates false.
func (r *Registry) evalOr(cond rule.Condition, ectx *ports.ExecutionContext) bool {
	for _, sub := range cond.Conditions {
		if r.Evaluate(sub, ectx) {
			return true
		}
	}
	return false
}

// evalTrigger matches the context-supplied trigger name against the expected
// literal. Used exclusively to gate passive rules.
func (r *Registry) evalTrigger(cond rule.Condition, ectx *ports.ExecutionContext) bool {
	return cond.Trigger != "" && cond.Trigger == ectx.Trigger
}

// Operators accepted by the statePath condition, beyond the numeric set.
const (
	opContains    = "contains"
	opHasProperty = "hasProperty"
	opNotEquals   = "!="

	// Sugar operators inspecting the room collection directly.
	opAnyRoomNeedsRepair          = "anyRoomNeedsRepair"
	opAnyOccupiedRoomUnreinforced = "anyOccupiedRoomUnreinforced"
)

// evalStatePath resolves a nested state path and compares it to the expected
// value. Besides equality and the numeric operators it supports "contains"
// (slice membership), "hasProperty" (map key existence), and two sugar
// operators that query the room collection instead of a scalar path.
func (r *Registry) evalStatePath(cond rule.Condition, ectx *ports.ExecutionContext) bool {
	if ectx.State == nil {
		return false
	}

	switch cond.Operator {
	case opAnyRoomNeedsRepair:
		for _, room := range ectx.State.Rooms {
			if room.NeedsRepair {
				return true
			}
		}
		return false
	case opAnyOccupiedRoomUnreinforced:
		for _, room := range ectx.State.Rooms {
			if room.Occupied() && !room.Reinforced {
				return true
			}
		}
		return false
	}

	actual := ectx.State.GetPath(cond.Path)

	switch cond.Operator {
	case "", "==":
		return looselyEqual(actual, cond.Value)
	case opNotEquals:
		return !looselyEqual(actual, cond.Value)
	case opContains:
		return sliceContains(actual, cond.Value)
	case opHasProperty:
		key, ok := cond.Value.(string)
		if !ok {
			return false
		}
		node, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		_, ok = node[key]
		return ok
	default:
		a, aok := state.ToFloat(actual)
		b, bok := state.ToFloat(cond.Value)
		if !aok || !bok {
			return false
		}
		return compareNumbers(a, b, cond.Operator)
	}
}

// compareNumbers applies one of >=, >, <=, <, == with >= as the default.
// Equality uses a small epsilon since amounts pass through float64.
func compareNumbers(a, b float64, operator string) bool {
	switch operator {
	case ">", "gt":
		return a > b
	case "<=", "lte":
		return a <= b
	case "<", "lt":
		return a < b
	case "==", "eq":
		return math.Abs(a-b) < 1e-9
	default: // ">=" and unrecognized operators
		return a >= b
	}
}

// looselyEqual compares values that may have come through different decoders
// (int vs float64) before falling back to deep equality.
func looselyEqual(a, b any) bool {
	if af, aok := state.ToFloat(a); aok {
		if bf, bok := state.ToFloat(b); bok {
			return math.Abs(af-bf) < 1e-9
		}
	}
	return reflect.DeepEqual(a, b)
}

// sliceContains reports membership of want in a decoded slice value.
func sliceContains(collection, want any) bool {
	items, ok := collection.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if looselyEqual(item, want) {
			return true
		}
	}
	return false
}

// Package validation provides the ordered pre-execution check chain for rule
// invocations. The pipeline short-circuits on the first failure, so cheap
// structural checks run before condition evaluation.
package validation

import (
	"fmt"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/engine/condition"
	"github.com/rentfall/rentfall/internal/engine/cooldown"
)

// Reason codes returned by the standard validators.
const (
	ReasonActorNotFound         = "actor_not_found"
	ReasonActorIneligible       = "actor_ineligible"
	ReasonRuleNotFound          = "rule_not_found"
	ReasonRuleDisabled          = "rule_disabled"
	ReasonMaxExecutionsReached  = "max_executions_reached"
	ReasonInsufficientResources = "insufficient_resources"
	ReasonCooldownActive        = "cooldown_active"
	ReasonConditionsNotMet      = "conditions_not_met"
)

// Result is the outcome of one validator or of the whole pipeline.
type Result struct {
	Valid   bool
	Reason  string
	Message string

	// RemainingCooldown is set by the cooldown validator.
	RemainingCooldown int
	// FailedConditions is set by the requirements validator.
	FailedConditions []int
}

// OK is the passing result.
func OK() Result { return Result{Valid: true} }

// Fail builds a failing result with a reason code and message.
func Fail(reason, message string) Result {
	return Result{Reason: reason, Message: message}
}

// Validator is a single pass/fail check over the execution context.
type Validator interface {
	Validate(ectx *ports.ExecutionContext) Result
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ectx *ports.ExecutionContext) Result

// Validate calls the wrapped function.
func (f ValidatorFunc) Validate(ectx *ports.ExecutionContext) Result {
	return f(ectx)
}

// Pipeline is an ordered validator chain.
type Pipeline struct {
	validators []Validator
}

// NewPipeline builds a pipeline from the given validators, run in order.
func NewPipeline(validators ...Validator) *Pipeline {
	return &Pipeline{validators: validators}
}

// Append adds validators to the end of the chain.
func (p *Pipeline) Append(validators ...Validator) {
	p.validators = append(p.validators, validators...)
}

// Run executes the chain, stopping at the first failure.
func (p *Pipeline) Run(ectx *ports.ExecutionContext) Result {
	for _, v := range p.validators {
		if res := v.Validate(ectx); !res.Valid {
			return res
		}
	}
	return OK()
}

// Standard builds the standard validator chain for rule execution:
// actor exists → actor eligible → rule exists → affordability → cooldown →
// declared requirement conditions. The ordering matters: structural checks
// precede condition evaluation.
func Standard(conditions *condition.Registry, cooldowns *cooldown.Tracker) *Pipeline {
	return NewPipeline(
		ActorExists(),
		ActorEligible(),
		RuleExists(),
		Affordability(),
		Cooldown(cooldowns),
		Requirements(conditions),
	)
}

// ActorExists passes system invocations (nil actor) and rejects contexts
// whose actor is not present in the state's actor collection.
func ActorExists() Validator {
	return ValidatorFunc(func(ectx *ports.ExecutionContext) Result {
		if ectx.Actor == nil {
			return OK()
		}
		if ectx.State != nil && ectx.State.FindActor(ectx.Actor.Name) == nil {
			return Fail(ReasonActorNotFound, fmt.Sprintf("actor %q not found", ectx.Actor.Name))
		}
		return OK()
	})
}

// ActorEligible rejects infected or evicted actors.
func ActorEligible() Validator {
	return ValidatorFunc(func(ectx *ports.ExecutionContext) Result {
		if ectx.Actor == nil || ectx.Actor.Eligible() {
			return OK()
		}
		return Fail(ReasonActorIneligible, fmt.Sprintf("actor %q cannot act", ectx.Actor.Name))
	})
}

// RuleExists rejects contexts with no resolved rule.
func RuleExists() Validator {
	return ValidatorFunc(func(ectx *ports.ExecutionContext) Result {
		if ectx.Rule == nil {
			return Fail(ReasonRuleNotFound, "no rule resolved for execution")
		}
		return OK()
	})
}

// Affordability checks the rule's declared cost against the resource state
// via the cost ledger. Rules without a cost, or contexts without a ledger,
// pass.
func Affordability() Validator {
	return ValidatorFunc(func(ectx *ports.ExecutionContext) Result {
		if ectx.Rule == nil || len(ectx.Rule.Cost()) == 0 || ectx.Ledger == nil {
			return OK()
		}
		if !ectx.Ledger.CanAfford(ectx.Rule.Cost(), ectx.State) {
			return Fail(ReasonInsufficientResources,
				fmt.Sprintf("cannot afford cost of rule %q", ectx.Rule.ID()))
		}
		return OK()
	})
}

// Cooldown rejects executions while the (actor, rule) pair is locked out on
// the caller-supplied current day.
func Cooldown(tracker *cooldown.Tracker) Validator {
	return ValidatorFunc(func(ectx *ports.ExecutionContext) Result {
		if ectx.Rule == nil || tracker == nil {
			return OK()
		}
		if tracker.IsOnCooldown(ectx.ActorName(), ectx.Rule.ID(), ectx.CurrentDay) {
			res := Fail(ReasonCooldownActive,
				fmt.Sprintf("rule %q is on cooldown", ectx.Rule.ID()))
			res.RemainingCooldown = tracker.Remaining(ectx.ActorName(), ectx.Rule.ID(), ectx.CurrentDay)
			return res
		}
		return OK()
	})
}

// Requirements evaluates the rule's declared conditions with AND semantics,
// reporting the indices of those that failed.
func Requirements(conditions *condition.Registry) Validator {
	return ValidatorFunc(func(ectx *ports.ExecutionContext) Result {
		if ectx.Rule == nil || conditions == nil {
			return OK()
		}
		ok, failed := conditions.EvaluateAll(ectx.Rule.Conditions(), ectx)
		if !ok {
			res := Fail(ReasonConditionsNotMet,
				fmt.Sprintf("%d condition(s) not met for rule %q", len(failed), ectx.Rule.ID()))
			res.FailedConditions = failed
			return res
		}
		return OK()
	})
}

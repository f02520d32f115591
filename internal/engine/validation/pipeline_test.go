package validation

import (
	"testing"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
	"github.com/rentfall/rentfall/internal/engine/condition"
	"github.com/rentfall/rentfall/internal/engine/cooldown"
)

// fakeLedger allows or denies affordability checks.
type fakeLedger struct {
	afford bool
}

func (l *fakeLedger) CanAfford(cost map[string]float64, st *state.GameState) bool { return l.afford }

func (l *fakeLedger) Pay(cost map[string]float64, st *state.GameState, payee string) ports.PaymentResult {
	return ports.PaymentResult{Paid: l.afford}
}

func mustRule(t *testing.T, def rule.Definition) *rule.Rule {
	t.Helper()
	r, err := rule.New(def)
	if err != nil {
		t.Fatalf("rule.New: %v", err)
	}
	return r
}

func baseDefinition() rule.Definition {
	return rule.Definition{
		ID:   "r1",
		Name: "Rule One",
		Effects: []rule.Effect{
			{Type: rule.EffectLog, Message: "hi"},
		},
	}
}

func standardContext(t *testing.T) *ports.ExecutionContext {
	t.Helper()
	st := state.New()
	st.Day = 3
	st.Actors = []*state.Actor{{Name: "Alice", Type: "tenant"}}
	ectx := ports.NewExecutionContext(st, st.Actors[0])
	ectx.Rule = mustRule(t, baseDefinition())
	return ectx
}

func TestPipeline_ShortCircuitsOnFirstFailure(t *testing.T) {
	calls := []string{}
	failing := ValidatorFunc(func(ectx *ports.ExecutionContext) Result {
		calls = append(calls, "failing")
		return Fail("first", "stop here")
	})
	later := ValidatorFunc(func(ectx *ports.ExecutionContext) Result {
		calls = append(calls, "later")
		return OK()
	})

	res := NewPipeline(failing, later).Run(standardContext(t))
	if res.Valid {
		t.Fatal("pipeline should fail")
	}
	if res.Reason != "first" {
		t.Errorf("expected reason of first failure, got %q", res.Reason)
	}
	if len(calls) != 1 {
		t.Errorf("later validators must not run, calls: %v", calls)
	}
}

func TestStandardPipeline_Pass(t *testing.T) {
	p := Standard(condition.NewRegistry(nil), cooldown.NewTracker())
	if res := p.Run(standardContext(t)); !res.Valid {
		t.Errorf("expected pass, got %q: %s", res.Reason, res.Message)
	}
}

func TestActorValidators(t *testing.T) {
	t.Run("nil actor is a system invocation", func(t *testing.T) {
		ectx := standardContext(t)
		ectx.Actor = nil
		if res := ActorExists().Validate(ectx); !res.Valid {
			t.Errorf("system invocation should pass, got %q", res.Reason)
		}
	})

	t.Run("unknown actor", func(t *testing.T) {
		ectx := standardContext(t)
		ectx.Actor = &state.Actor{Name: "Ghost"}
		res := ActorExists().Validate(ectx)
		if res.Valid || res.Reason != ReasonActorNotFound {
			t.Errorf("expected %q, got valid=%v reason=%q", ReasonActorNotFound, res.Valid, res.Reason)
		}
	})

	t.Run("infected actor is ineligible", func(t *testing.T) {
		ectx := standardContext(t)
		ectx.Actor.Infected = true
		res := ActorEligible().Validate(ectx)
		if res.Valid || res.Reason != ReasonActorIneligible {
			t.Errorf("expected %q, got valid=%v reason=%q", ReasonActorIneligible, res.Valid, res.Reason)
		}
	})
}

func TestAffordability(t *testing.T) {
	def := baseDefinition()
	def.Cost = map[string]float64{"gold": 10}

	ectx := standardContext(t)
	ectx.Rule = mustRule(t, def)

	t.Run("no ledger passes", func(t *testing.T) {
		if res := Affordability().Validate(ectx); !res.Valid {
			t.Errorf("missing ledger should pass, got %q", res.Reason)
		}
	})

	t.Run("unaffordable", func(t *testing.T) {
		ectx.Ledger = &fakeLedger{afford: false}
		res := Affordability().Validate(ectx)
		if res.Valid || res.Reason != ReasonInsufficientResources {
			t.Errorf("expected %q, got valid=%v reason=%q", ReasonInsufficientResources, res.Valid, res.Reason)
		}
	})

	t.Run("affordable", func(t *testing.T) {
		ectx.Ledger = &fakeLedger{afford: true}
		if res := Affordability().Validate(ectx); !res.Valid {
			t.Errorf("affordable cost should pass, got %q", res.Reason)
		}
	})
}

func TestCooldownValidator(t *testing.T) {
	tracker := cooldown.NewTracker()
	tracker.Set("Alice", "r1", 2, 3)

	ectx := standardContext(t)
	ectx.CurrentDay = 4

	res := Cooldown(tracker).Validate(ectx)
	if res.Valid || res.Reason != ReasonCooldownActive {
		t.Fatalf("expected %q, got valid=%v reason=%q", ReasonCooldownActive, res.Valid, res.Reason)
	}
	if res.RemainingCooldown != 1 {
		t.Errorf("remaining cooldown = %d, want 1", res.RemainingCooldown)
	}

	ectx.CurrentDay = 5
	if res := Cooldown(tracker).Validate(ectx); !res.Valid {
		t.Errorf("cooldown should expire on day 5, got %q", res.Reason)
	}
}

func TestRequirements(t *testing.T) {
	def := baseDefinition()
	def.Conditions = []rule.Condition{
		{Type: rule.CondResource, Resource: "gold", Amount: 100},
	}

	ectx := standardContext(t)
	ectx.Rule = mustRule(t, def)

	res := Requirements(condition.NewRegistry(nil)).Validate(ectx)
	if res.Valid || res.Reason != ReasonConditionsNotMet {
		t.Fatalf("expected %q, got valid=%v reason=%q", ReasonConditionsNotMet, res.Valid, res.Reason)
	}
	if len(res.FailedConditions) != 1 || res.FailedConditions[0] != 0 {
		t.Errorf("expected failed condition index [0], got %v", res.FailedConditions)
	}

	ectx.State.SetResource("gold", 100)
	if res := Requirements(condition.NewRegistry(nil)).Validate(ectx); !res.Valid {
		t.Errorf("satisfied conditions should pass, got %q", res.Reason)
	}
}

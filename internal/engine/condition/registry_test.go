package condition

import (
	"testing"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
)

func testContext(st *state.GameState) *ports.ExecutionContext {
	return ports.NewExecutionContext(st, nil)
}

func intPtr(n int) *int { return &n }

func TestEvaluate_UnknownTypeFailsClosed(t *testing.T) {
	reg := NewRegistry(nil)
	got := reg.Evaluate(rule.Condition{Type: "nonexistent"}, testContext(state.New()))
	if got {
		t.Error("unknown condition type must evaluate false")
	}
}

func TestEvaluate_PanickingEvaluatorFailsClosed(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register("explosive", func(cond rule.Condition, ectx *ports.ExecutionContext) bool {
		panic("boom")
	})

	got := reg.Evaluate(rule.Condition{Type: "explosive"}, testContext(state.New()))
	if got {
		t.Error("panicking evaluator must evaluate false")
	}
}

func TestEvalResource(t *testing.T) {
	st := state.New()
	st.SetResource("gold", 50)

	tests := []struct {
		name string
		cond rule.Condition
		want bool
	}{
		{"default operator is at-least, pass", rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 50}, true},
		{"default operator is at-least, fail", rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 51}, false},
		{"greater than", rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 49, Operator: ">"}, true},
		{"less than", rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 60, Operator: "<"}, true},
		{"less or equal", rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 50, Operator: "<="}, true},
		{"equality", rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 50, Operator: "=="}, true},
		{"missing resource reads zero", rule.Condition{Type: rule.CondResource, Resource: "silver", Amount: 1}, false},
	}

	reg := NewRegistry(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Evaluate(tt.cond, testContext(st)); got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvalActorCount(t *testing.T) {
	st := state.New()
	st.Actors = []*state.Actor{
		{Name: "Alice", Type: "tenant"},
		{Name: "Bruno", Type: "tenant", Infected: true},
	}

	reg := NewRegistry(nil)

	cond := rule.Condition{Type: rule.CondActorCount, ActorType: "tenant", Count: 2}
	if reg.Evaluate(cond, testContext(st)) {
		t.Error("infected actor should not count by default")
	}

	cond.IncludeInfected = true
	if !reg.Evaluate(cond, testContext(st)) {
		t.Error("includeInfected should count the infected tenant")
	}

	infected := rule.Condition{Type: rule.CondActorCount, ActorType: "tenant", Count: 1, OnlyInfected: true}
	if !reg.Evaluate(infected, testContext(st)) {
		t.Error("onlyInfected should count the infected tenant")
	}

	st.Actors[1].Infected = false
	if reg.Evaluate(infected, testContext(st)) {
		t.Error("onlyInfected must fail with no infected tenants")
	}
}

func TestEvalDayRange(t *testing.T) {
	reg := NewRegistry(nil)

	tests := []struct {
		name string
		day  int
		cond rule.Condition
		want bool
	}{
		{"inside range", 5, rule.Condition{Type: rule.CondDayRange, MinDay: intPtr(3), MaxDay: intPtr(7)}, true},
		{"range is inclusive at min", 3, rule.Condition{Type: rule.CondDayRange, MinDay: intPtr(3), MaxDay: intPtr(7)}, true},
		{"range is inclusive at max", 7, rule.Condition{Type: rule.CondDayRange, MinDay: intPtr(3), MaxDay: intPtr(7)}, true},
		{"before range", 2, rule.Condition{Type: rule.CondDayRange, MinDay: intPtr(3)}, false},
		{"after range", 8, rule.Condition{Type: rule.CondDayRange, MaxDay: intPtr(7)}, false},
		{"nil min defaults to zero", 0, rule.Condition{Type: rule.CondDayRange, MaxDay: intPtr(7)}, true},
		{"nil max is open ended", 9999, rule.Condition{Type: rule.CondDayRange, MinDay: intPtr(3)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New()
			st.Day = tt.day
			if got := reg.Evaluate(tt.cond, testContext(st)); got != tt.want {
				t.Errorf("day %d: Evaluate = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

func TestEvalChance_DeterministicRoll(t *testing.T) {
	reg := NewRegistry(nil)
	cond := rule.Condition{Type: rule.CondChance, Chance: 0.5}

	ectx := testContext(state.New())
	ectx.Roll = func() float64 { return 0.49 }
	if !reg.Evaluate(cond, ectx) {
		t.Error("roll below chance should pass")
	}

	ectx.Roll = func() float64 { return 0.5 }
	if reg.Evaluate(cond, ectx) {
		t.Error("roll equal to chance should fail (strict less-than)")
	}
}

func TestEvalComposites(t *testing.T) {
	st := state.New()
	st.SetResource("gold", 10)
	reg := NewRegistry(nil)

	pass := rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 5}
	fail := rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 50}

	tests := []struct {
		name string
		cond rule.Condition
		want bool
	}{
		{"and all pass", rule.Condition{Type: rule.CondAnd, Conditions: []rule.Condition{pass, pass}}, true},
		{"and one fails", rule.Condition{Type: rule.CondAnd, Conditions: []rule.Condition{pass, fail}}, false},
		{"and empty is true", rule.Condition{Type: rule.CondAnd}, true},
		{"or one passes", rule.Condition{Type: rule.CondOr, Conditions: []rule.Condition{fail, pass}}, true},
		{"or all fail", rule.Condition{Type: rule.CondOr, Conditions: []rule.Condition{fail, fail}}, false},
		{"or empty is false", rule.Condition{Type: rule.CondOr}, false},
		{
			"nested composite",
			rule.Condition{Type: rule.CondAnd, Conditions: []rule.Condition{
				pass,
				{Type: rule.CondOr, Conditions: []rule.Condition{fail, pass}},
			}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Evaluate(tt.cond, testContext(st)); got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvalOr_ShortCircuits(t *testing.T) {
	reg := NewRegistry(nil)
	called := false
	reg.Register("probe", func(cond rule.Condition, ectx *ports.ExecutionContext) bool {
		called = true
		return false
	})

	cond := rule.Condition{Type: rule.CondOr, Conditions: []rule.Condition{
		{Type: rule.CondDayRange}, // always true with open bounds
		{Type: "probe"},
	}}
	if !reg.Evaluate(cond, testContext(state.New())) {
		t.Fatal("or should pass on the first sub-condition")
	}
	if called {
		t.Error("or should short-circuit before the second sub-condition")
	}
}

func TestEvalTrigger(t *testing.T) {
	reg := NewRegistry(nil)

	ectx := testContext(state.New())
	ectx.Trigger = "epidemicStart"

	if !reg.Evaluate(rule.Condition{Type: rule.CondTrigger, Trigger: "epidemicStart"}, ectx) {
		t.Error("matching trigger should pass")
	}
	if reg.Evaluate(rule.Condition{Type: rule.CondTrigger, Trigger: "dayStart"}, ectx) {
		t.Error("non-matching trigger should fail")
	}
	if reg.Evaluate(rule.Condition{Type: rule.CondTrigger}, ectx) {
		t.Error("empty expected trigger should never match")
	}
}

func TestEvalStatePath(t *testing.T) {
	st := state.New()
	st.Day = 4
	st.SetResource("gold", 30)
	st.Values["epidemic"] = map[string]any{"active": true, "victims": []any{"Bruno", "Carla"}}
	st.Rooms = []*state.Room{
		{ID: "room-1", Occupant: "Alice"},
		{ID: "room-2", NeedsRepair: true},
	}

	reg := NewRegistry(nil)

	tests := []struct {
		name string
		cond rule.Condition
		want bool
	}{
		{"equality default", rule.Condition{Type: rule.CondStatePath, Path: "epidemic.active", Value: true}, true},
		{"not equals", rule.Condition{Type: rule.CondStatePath, Path: "epidemic.active", Value: false, Operator: "!="}, true},
		{"numeric loose equality across types", rule.Condition{Type: rule.CondStatePath, Path: "day", Value: 4.0}, true},
		{"numeric comparison", rule.Condition{Type: rule.CondStatePath, Path: "resources.gold", Value: 20, Operator: ">"}, true},
		{"contains member", rule.Condition{Type: rule.CondStatePath, Path: "epidemic.victims", Value: "Carla", Operator: "contains"}, true},
		{"contains missing member", rule.Condition{Type: rule.CondStatePath, Path: "epidemic.victims", Value: "Alice", Operator: "contains"}, false},
		{"hasProperty present", rule.Condition{Type: rule.CondStatePath, Path: "epidemic", Value: "active", Operator: "hasProperty"}, true},
		{"hasProperty absent", rule.Condition{Type: rule.CondStatePath, Path: "epidemic", Value: "cured", Operator: "hasProperty"}, false},
		{"missing path equality fails", rule.Condition{Type: rule.CondStatePath, Path: "nope.deeper", Value: true}, false},
		{"any room needs repair", rule.Condition{Type: rule.CondStatePath, Operator: "anyRoomNeedsRepair"}, true},
		{"any occupied room unreinforced", rule.Condition{Type: rule.CondStatePath, Operator: "anyOccupiedRoomUnreinforced"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Evaluate(tt.cond, testContext(st)); got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateAll_ReportsFailedIndices(t *testing.T) {
	st := state.New()
	st.SetResource("gold", 10)
	reg := NewRegistry(nil)

	conditions := []rule.Condition{
		{Type: rule.CondResource, Resource: "gold", Amount: 5},  // passes
		{Type: rule.CondResource, Resource: "gold", Amount: 50}, // fails
		{Type: "nonexistent"},                                   // fails closed
	}

	ok, failed := reg.EvaluateAll(conditions, testContext(st))
	if ok {
		t.Fatal("EvaluateAll should fail")
	}
	if len(failed) != 2 || failed[0] != 1 || failed[1] != 2 {
		t.Errorf("expected failed indices [1 2], got %v", failed)
	}

	ok, failed = reg.EvaluateAll(nil, testContext(st))
	if !ok || failed != nil {
		t.Errorf("empty condition list should be vacuously true, got ok=%v failed=%v", ok, failed)
	}
}

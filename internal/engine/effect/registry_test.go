package effect

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
	"github.com/rentfall/rentfall/internal/engine/condition"
)

func newTestRegistry() *Registry {
	return NewRegistry(condition.NewRegistry(nil), nil)
}

func testContext(st *state.GameState) *ports.ExecutionContext {
	return ports.NewExecutionContext(st, nil)
}

// fakeScheduler records triggerEvent deliveries.
type fakeScheduler struct {
	fired     []string
	scheduled map[string]int
}

func (s *fakeScheduler) FireNow(eventID string, payload map[string]any) {
	s.fired = append(s.fired, eventID)
}

func (s *fakeScheduler) Schedule(eventID string, dueDay int, payload map[string]any) {
	if s.scheduled == nil {
		s.scheduled = map[string]int{}
	}
	s.scheduled[eventID] = dueDay
}

// fakeGameLog records log-effect messages.
type fakeGameLog struct {
	messages []string
}

func (l *fakeGameLog) Log(message, category string) {
	l.messages = append(l.messages, message)
}

// fakeDirectory serves a fixed eligible set.
type fakeDirectory struct {
	actors []*state.Actor
	rooms  []*state.Room
}

func (d *fakeDirectory) FindActor(name string) *state.Actor {
	for _, a := range d.actors {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (d *fakeDirectory) EligibleActors(effectKind string) []*state.Actor { return d.actors }

func (d *fakeDirectory) FindRoom(id string) *state.Room {
	for _, r := range d.rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (d *fakeDirectory) EligibleRooms(effectKind string) []*state.Room { return d.rooms }

func TestExecute_UnknownTypeDoesNotError(t *testing.T) {
	reg := newTestRegistry()
	res, err := reg.Execute(rule.Effect{Type: "nonexistent"}, testContext(state.New()))
	if err != nil {
		t.Fatalf("unknown effect type must not error: %v", err)
	}
	if res.Type != ports.ResultTypeUnknown {
		t.Errorf("expected %q result, got %q", ports.ResultTypeUnknown, res.Type)
	}
	if res.Details["effect_type"] != "nonexistent" {
		t.Errorf("result should name the unknown type, got %v", res.Details)
	}
}

func TestModifyResource(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		effect    rule.Effect
		wantValue float64
	}{
		{"add is the default operation", 10, rule.Effect{Type: rule.EffectModifyResource, Resource: "gold", Amount: 5}, 15},
		{"subtract via negative add", 10, rule.Effect{Type: rule.EffectModifyResource, Resource: "gold", Amount: -4}, 6},
		{"floors at zero", 10, rule.Effect{Type: rule.EffectModifyResource, Resource: "gold", Amount: -25}, 0},
		{"set", 10, rule.Effect{Type: rule.EffectModifyResource, Resource: "gold", Amount: 3, Operation: rule.OpSet}, 3},
		{"multiply", 10, rule.Effect{Type: rule.EffectModifyResource, Resource: "gold", Amount: 1.5, Operation: rule.OpMultiply}, 15},
	}

	reg := newTestRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New()
			st.SetResource("gold", tt.start)

			res, err := reg.Execute(tt.effect, testContext(st))
			if err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}
			if got := st.Resource("gold"); got != tt.wantValue {
				t.Errorf("gold = %v, want %v", got, tt.wantValue)
			}
			if res.Details["new_value"] != tt.wantValue {
				t.Errorf("result new_value = %v, want %v", res.Details["new_value"], tt.wantValue)
			}
		})
	}
}

func TestModifyResource_RepeatedDrainNeverGoesNegative(t *testing.T) {
	st := state.New()
	st.SetResource("food", 10)
	reg := newTestRegistry()

	drain := rule.Effect{Type: rule.EffectModifyResource, Resource: "food", Amount: -3}
	for i := 0; i < 20; i++ {
		if _, err := reg.Execute(drain, testContext(st)); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if st.Resource("food") < 0 {
			t.Fatalf("resource went negative after %d drains: %v", i+1, st.Resource("food"))
		}
	}
	if st.Resource("food") != 0 {
		t.Errorf("expected food drained to 0, got %v", st.Resource("food"))
	}
}

func TestModifyState(t *testing.T) {
	reg := newTestRegistry()

	t.Run("set arbitrary value", func(t *testing.T) {
		st := state.New()
		_, err := reg.Execute(rule.Effect{
			Type: rule.EffectModifyState, Path: "epidemic.active", Value: true, Operation: rule.OpSet,
		}, testContext(st))
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if st.GetPath("epidemic.active") != true {
			t.Error("set did not write the path")
		}
	})

	t.Run("add to numeric value", func(t *testing.T) {
		st := state.New()
		st.Values["counters"] = map[string]any{"complaints": 2}
		_, err := reg.Execute(rule.Effect{
			Type: rule.EffectModifyState, Path: "counters.complaints", Value: 3,
		}, testContext(st))
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if got := st.GetPath("counters.complaints"); got != 5.0 {
			t.Errorf("counters.complaints = %v, want 5", got)
		}
	})

	t.Run("add with non-numeric value errors", func(t *testing.T) {
		st := state.New()
		_, err := reg.Execute(rule.Effect{
			Type: rule.EffectModifyState, Path: "flag", Value: "nope",
		}, testContext(st))
		if err == nil {
			t.Error("non-numeric add should error")
		}
	})
}

func TestLogEffect(t *testing.T) {
	reg := newTestRegistry()
	log := &fakeGameLog{}

	ectx := testContext(state.New())
	ectx.Log = log

	if _, err := reg.Execute(rule.Effect{Type: rule.EffectLog, Message: "rent is due"}, ectx); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(log.messages) != 1 || log.messages[0] != "rent is due" {
		t.Errorf("unexpected game log contents: %v", log.messages)
	}

	// Missing collaborator is a no-op, not an error.
	if _, err := reg.Execute(rule.Effect{Type: rule.EffectLog, Message: "quiet"}, testContext(state.New())); err != nil {
		t.Errorf("log without collaborator should not error: %v", err)
	}
}

func TestTriggerEvent(t *testing.T) {
	reg := newTestRegistry()

	t.Run("immediate", func(t *testing.T) {
		sched := &fakeScheduler{}
		ectx := testContext(state.New())
		ectx.Events = sched

		_, err := reg.Execute(rule.Effect{Type: rule.EffectTriggerEvent, Event: "inspection"}, ectx)
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if len(sched.fired) != 1 || sched.fired[0] != "inspection" {
			t.Errorf("expected immediate fire, got %v", sched.fired)
		}
	})

	t.Run("delayed", func(t *testing.T) {
		sched := &fakeScheduler{}
		st := state.New()
		st.Day = 10
		ectx := testContext(st)
		ectx.Events = sched

		_, err := reg.Execute(rule.Effect{Type: rule.EffectTriggerEvent, Event: "audit", Delay: 3}, ectx)
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if sched.scheduled["audit"] != 13 {
			t.Errorf("expected audit scheduled for day 13, got %v", sched.scheduled)
		}
	})

	t.Run("no scheduler errors", func(t *testing.T) {
		_, err := reg.Execute(rule.Effect{Type: rule.EffectTriggerEvent, Event: "x"}, testContext(state.New()))
		if err == nil {
			t.Error("missing scheduler should be an executor error")
		}
	})
}

func TestMultiple_PartialFailure(t *testing.T) {
	reg := newTestRegistry()
	reg.Register("broken", func(e rule.Effect, ectx *ports.ExecutionContext) (ports.EffectResult, error) {
		return ports.EffectResult{}, errors.New("executor blew up")
	})

	st := state.New()
	st.SetResource("gold", 10)

	eff := rule.Effect{Type: rule.EffectMultiple, Effects: []rule.Effect{
		{Type: rule.EffectModifyResource, Resource: "gold", Amount: 5},
		{Type: "broken"},
		{Type: rule.EffectModifyResource, Resource: "gold", Amount: 5},
	}}

	res, err := reg.Execute(eff, testContext(st))
	if err != nil {
		t.Fatalf("multiple must not propagate sub-effect errors: %v", err)
	}
	if st.Resource("gold") != 20 {
		t.Errorf("both good sub-effects should run, gold = %v", st.Resource("gold"))
	}
	if res.Details["success_count"] != 2 || res.Details["error_count"] != 1 {
		t.Errorf("unexpected counts: %v", res.Details)
	}

	subResults := res.Details["results"].([]ports.EffectResult)
	if len(subResults) != 3 {
		t.Fatalf("expected 3 sub-results, got %d", len(subResults))
	}
	if !subResults[1].Failed() || subResults[1].EffectIndex != 1 {
		t.Errorf("middle sub-result should be an error entry at index 1: %+v", subResults[1])
	}
}

func TestProbabilityCheck_Branching(t *testing.T) {
	reg := newTestRegistry()

	eff := rule.Effect{
		Type: rule.EffectProbabilityCheck,
		Base: 0.5,
		OnSuccess: []rule.Effect{
			{Type: rule.EffectModifyResource, Resource: "gold", Amount: 10},
		},
		OnFailure: []rule.Effect{
			{Type: rule.EffectModifyResource, Resource: "gold", Amount: -5},
		},
	}

	t.Run("success branch", func(t *testing.T) {
		st := state.New()
		st.SetResource("gold", 20)
		ectx := testContext(st)
		ectx.Roll = func() float64 { return 0.4 }

		res, err := reg.Execute(eff, ectx)
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if res.Details["success"] != true {
			t.Error("roll 0.4 against 0.5 should succeed")
		}
		if st.Resource("gold") != 30 {
			t.Errorf("success branch should run, gold = %v", st.Resource("gold"))
		}
	})

	t.Run("failure branch", func(t *testing.T) {
		st := state.New()
		st.SetResource("gold", 20)
		ectx := testContext(st)
		ectx.Roll = func() float64 { return 0.9 }

		res, err := reg.Execute(eff, ectx)
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if res.Details["success"] != false {
			t.Error("roll 0.9 against 0.5 should fail")
		}
		if st.Resource("gold") != 15 {
			t.Errorf("failure branch should run, gold = %v", st.Resource("gold"))
		}
	})
}

func TestProbabilityCheck_ModifiersAndClamp(t *testing.T) {
	reg := newTestRegistry()
	st := state.New()
	st.SetResource("gold", 100)

	alwaysTrue := rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 0}
	alwaysFalse := rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 999}

	eff := rule.Effect{
		Type: rule.EffectProbabilityCheck,
		Base: 0.5,
		Modifiers: []rule.ChanceModifier{
			{Bonus: 0.3, Condition: &alwaysTrue},
			{Bonus: 0.4, Condition: &alwaysFalse},
			{Bonus: 0.1}, // unconditional
		},
	}

	ectx := testContext(st)
	ectx.Roll = func() float64 { return 0.999 }

	res, err := reg.Execute(eff, ectx)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	// 0.5 + 0.3 (true) + 0.1 (unconditional) = 0.9; the false modifier is skipped.
	if got := res.Details["chance"].(float64); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("effective chance = %v, want 0.9", got)
	}

	eff.Modifiers = append(eff.Modifiers, rule.ChanceModifier{Bonus: 5})
	res, err = reg.Execute(eff, ectx)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if got := res.Details["chance"].(float64); got != 1 {
		t.Errorf("chance must clamp to 1, got %v", got)
	}
}

func TestProbabilityCheck_ObservedRate(t *testing.T) {
	reg := newTestRegistry()
	st := state.New()
	st.SetResource("gold", 100)

	alwaysTrue := rule.Condition{Type: rule.CondResource, Resource: "gold", Amount: 0}
	eff := rule.Effect{
		Type: rule.EffectProbabilityCheck,
		Base: 0.5,
		Modifiers: []rule.ChanceModifier{
			{Bonus: 0.3, Condition: &alwaysTrue},
		},
	}

	rng := rand.New(rand.NewSource(42))
	ectx := testContext(st)
	ectx.Roll = rng.Float64

	const trials = 10000
	successes := 0
	for i := 0; i < trials; i++ {
		res, err := reg.Execute(eff, ectx)
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if res.Details["success"] == true {
			successes++
		}
	}

	rate := float64(successes) / trials
	if math.Abs(rate-0.8) > 0.02 {
		t.Errorf("observed success rate %v outside 0.8 ± 0.02", rate)
	}
}

func TestActorEffects(t *testing.T) {
	reg := newTestRegistry()

	t.Run("heal named target", func(t *testing.T) {
		bruno := &state.Actor{Name: "Bruno", Infected: true, InfectionKnown: true}
		ectx := testContext(state.New())
		ectx.Directory = &fakeDirectory{actors: []*state.Actor{bruno}}

		res, err := reg.Execute(rule.Effect{Type: rule.EffectHealInfection, Target: "Bruno"}, ectx)
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if bruno.Infected || bruno.InfectionKnown {
			t.Error("heal should clear infection and its visibility")
		}
		if res.Details["success"] != true {
			t.Errorf("expected success, got %v", res.Details)
		}
	})

	t.Run("random target uses the injected roll", func(t *testing.T) {
		a := &state.Actor{Name: "A", Satisfaction: 50}
		b := &state.Actor{Name: "B", Satisfaction: 50}
		ectx := testContext(state.New())
		ectx.Directory = &fakeDirectory{actors: []*state.Actor{a, b}}
		ectx.Roll = func() float64 { return 0.99 } // picks the last eligible

		_, err := reg.Execute(rule.Effect{
			Type: rule.EffectAdjustSatisfaction, Target: rule.TargetRandom, Amount: 5,
		}, ectx)
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if b.Satisfaction != 55 || a.Satisfaction != 50 {
			t.Errorf("expected B adjusted, got A=%v B=%v", a.Satisfaction, b.Satisfaction)
		}
	})

	t.Run("no eligible target reports no_target", func(t *testing.T) {
		ectx := testContext(state.New())
		ectx.Directory = &fakeDirectory{}

		res, err := reg.Execute(rule.Effect{Type: rule.EffectEvictTenant}, ectx)
		if err != nil {
			t.Fatalf("no target must not be an executor error: %v", err)
		}
		if res.Details["success"] != false || res.Details["reason"] != "no_target" {
			t.Errorf("expected no_target result, got %v", res.Details)
		}
	})

	t.Run("missing directory reports no_directory", func(t *testing.T) {
		res, err := reg.Execute(rule.Effect{Type: rule.EffectDetectInfection}, testContext(state.New()))
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if res.Details["reason"] != "no_directory" {
			t.Errorf("expected no_directory result, got %v", res.Details)
		}
	})

	t.Run("evict clears the room", func(t *testing.T) {
		carla := &state.Actor{Name: "Carla", Room: "room-3"}
		ectx := testContext(state.New())
		ectx.Directory = &fakeDirectory{actors: []*state.Actor{carla}}

		if _, err := reg.Execute(rule.Effect{Type: rule.EffectEvictTenant, Target: "Carla"}, ectx); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if !carla.Evicted || carla.Room != "" {
			t.Errorf("evict should set the flag and vacate the room: %+v", carla)
		}
	})

	t.Run("reveal marks infection known", func(t *testing.T) {
		bruno := &state.Actor{Name: "Bruno", Infected: true}
		ectx := testContext(state.New())
		ectx.Directory = &fakeDirectory{actors: []*state.Actor{bruno}}

		if _, err := reg.Execute(rule.Effect{Type: rule.EffectRevealInfection, Target: "Bruno"}, ectx); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if !bruno.InfectionKnown {
			t.Error("reveal should mark the infection known")
		}
	})
}

func TestRoomEffects(t *testing.T) {
	reg := newTestRegistry()

	t.Run("repair named room", func(t *testing.T) {
		room := &state.Room{ID: "room-2", NeedsRepair: true}
		ectx := testContext(state.New())
		ectx.Directory = &fakeDirectory{rooms: []*state.Room{room}}

		if _, err := reg.Execute(rule.Effect{Type: rule.EffectRepairRoom, Target: "room-2"}, ectx); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if room.NeedsRepair {
			t.Error("repair should clear the flag")
		}
	})

	t.Run("reinforce random room", func(t *testing.T) {
		room := &state.Room{ID: "room-1", Occupant: "Alice"}
		ectx := testContext(state.New())
		ectx.Directory = &fakeDirectory{rooms: []*state.Room{room}}

		if _, err := reg.Execute(rule.Effect{Type: rule.EffectReinforceRoom}, ectx); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if !room.Reinforced {
			t.Error("reinforce should set the flag")
		}
	})

	t.Run("unknown room reports no_target", func(t *testing.T) {
		ectx := testContext(state.New())
		ectx.Directory = &fakeDirectory{rooms: []*state.Room{{ID: "room-1"}}}

		res, err := reg.Execute(rule.Effect{Type: rule.EffectRepairRoom, Target: "room-9"}, ectx)
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if res.Details["reason"] != "no_target" {
			t.Errorf("expected no_target, got %v", res.Details)
		}
	})
}

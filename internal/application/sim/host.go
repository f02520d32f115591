// Package sim provides a thin simulation host around the rule engine: it
// seeds a game state, wires the engine's collaborators, and advances days so
// the CLI has a live world to drive. The engine remains the core; the host
// only orchestrates.
package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/rentfall/rentfall/internal/adapters/directory"
	"github.com/rentfall/rentfall/internal/adapters/gamelog"
	"github.com/rentfall/rentfall/internal/adapters/ledger"
	"github.com/rentfall/rentfall/internal/adapters/scheduler"
	"github.com/rentfall/rentfall/internal/application/engine"
	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/state"
	"github.com/rentfall/rentfall/internal/infrastructure/logging"
	"github.com/rentfall/rentfall/internal/infrastructure/tracing"
)

// TriggerDayStart fires on every day advance before scheduled events.
const TriggerDayStart = "dayStart"

// Options configures a simulation host.
type Options struct {
	Provider        ports.ConfigProvider
	Archive         ports.HistoryArchive
	Logger          *logging.Logger
	Tracer          *tracing.Tracer
	Seed            int64 // 0 means time-based seeding
	StartDay        int
	HistoryCapacity int
}

// Host owns a game state and the engine driving it.
type Host struct {
	st       *state.GameState
	eng      *engine.Engine
	sched    *scheduler.MemoryScheduler
	messages *gamelog.MemoryLog
	rng      *rand.Rand
	log      *logging.Logger
}

// New creates a host with a seeded starter state and a fully wired engine.
func New(opts Options) *Host {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	st := seedState(opts.StartDay)
	messages := gamelog.New(log)

	h := &Host{
		st:       st,
		messages: messages,
		rng:      rng,
		log:      log,
	}

	// Scheduled events fire back into the engine as passive triggers.
	h.sched = scheduler.New(func(eventID string, payload map[string]any) {
		ectx := h.newContext(nil)
		ectx.Options = payload
		h.eng.ExecuteTrigger(context.Background(), eventID, ectx)
	}, log)

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithRoll(rng.Float64),
	}
	if opts.Tracer != nil {
		engineOpts = append(engineOpts, engine.WithTracer(opts.Tracer))
	}
	if opts.HistoryCapacity > 0 {
		engineOpts = append(engineOpts, engine.WithHistoryCapacity(opts.HistoryCapacity))
	}

	h.eng = engine.New(engine.Collaborators{
		Provider:  opts.Provider,
		Log:       messages,
		Events:    h.sched,
		Directory: directory.New(st),
		Ledger:    ledger.New(log),
		Archive:   opts.Archive,
	}, engineOpts...)

	return h
}

// State returns the live game state.
func (h *Host) State() *state.GameState {
	return h.st
}

// Engine returns the underlying rule engine.
func (h *Host) Engine() *engine.Engine {
	return h.eng
}

// Messages returns the in-game message log.
func (h *Host) Messages() *gamelog.MemoryLog {
	return h.messages
}

// AdvanceDay moves the simulation forward one day: increments the day
// counter, fires the day-start trigger, then delivers any scheduled events
// that have come due. Returns the new day number.
func (h *Host) AdvanceDay(ctx context.Context) int {
	h.st.Day++
	h.log.Info("day advanced", "day", h.st.Day)

	h.eng.ExecuteTrigger(ctx, TriggerDayStart, h.newContext(nil))
	h.sched.FireDue(h.st.Day)

	return h.st.Day
}

// RunRule executes a single rule for an optional actor by name.
func (h *Host) RunRule(ctx context.Context, ruleID, actorName string) *engine.ExecutionResult {
	var actor *state.Actor
	if actorName != "" {
		actor = h.st.FindActor(actorName)
	}
	return h.eng.ExecuteRule(ctx, ruleID, h.newContext(actor))
}

// RunGroup executes every enabled rule in a group in priority order.
func (h *Host) RunGroup(ctx context.Context, group string) *engine.GroupExecutionResult {
	return h.eng.ExecuteRuleGroup(ctx, group, h.newContext(nil))
}

// FireTrigger runs the passive rules listening for a trigger.
func (h *Host) FireTrigger(ctx context.Context, trigger string) *engine.GroupExecutionResult {
	return h.eng.ExecuteTrigger(ctx, trigger, h.newContext(nil))
}

func (h *Host) newContext(actor *state.Actor) *ports.ExecutionContext {
	ectx := ports.NewExecutionContext(h.st, actor)
	ectx.Roll = h.rng.Float64
	return ectx
}

// seedState builds the starter world: a small building with a few tenants
// and enough resources to run the bundled rules.
func seedState(startDay int) *state.GameState {
	st := state.New()
	if startDay > 0 {
		st.Day = startDay
	}

	st.SetResource("gold", 100)
	st.SetResource("food", 50)
	st.SetResource("materials", 20)

	st.Rooms = []*state.Room{
		{ID: "room-1", Occupant: "Alice"},
		{ID: "room-2", Occupant: "Bruno"},
		{ID: "room-3", Occupant: "Carla", NeedsRepair: true},
		{ID: "room-4"},
	}

	st.Actors = []*state.Actor{
		{Name: "Alice", Type: "tenant", Room: "room-1", Satisfaction: 70},
		{Name: "Bruno", Type: "tenant", Room: "room-2", Satisfaction: 55, Infected: true},
		{Name: "Carla", Type: "tenant", Room: "room-3", Satisfaction: 40},
	}

	return st
}

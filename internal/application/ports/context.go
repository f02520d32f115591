package ports

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
)

// ExecutionContext is the ephemeral per-invocation context handed to
// conditions, effects, and validators. It is constructed fresh for every
// rule execution and never persisted.
type ExecutionContext struct {
	ExecutionID string
	Timestamp   time.Time

	State *state.GameState
	Actor *state.Actor
	Rule  *rule.Rule

	// CurrentDay is always caller-supplied; cooldowns are evaluated against
	// it rather than against ambient state.
	CurrentDay int

	// Trigger names the in-game occurrence that caused evaluation; passive
	// rules gate on it via the trigger-match condition.
	Trigger string

	Options map[string]any

	// Roll draws a uniform value in [0, 1). Tests inject deterministic
	// sources here; when nil, evaluators fall back to math/rand.
	Roll func() float64

	Log       GameLog
	Events    EventScheduler
	Directory ActorDirectory
	Ledger    CostLedger
}

// NewExecutionContext builds a context for one rule invocation against the
// given state. The current day is taken from the state snapshot; callers may
// override it afterwards when replaying against a different day.
func NewExecutionContext(st *state.GameState, actor *state.Actor) *ExecutionContext {
	day := 0
	if st != nil {
		day = st.Day
	}
	return &ExecutionContext{
		ExecutionID: uuid.NewString(),
		Timestamp:   time.Now(),
		State:       st,
		Actor:       actor,
		CurrentDay:  day,
		Options:     make(map[string]any),
	}
}

// Draw returns a uniform random value in [0, 1) using the injected source
// when present.
func (c *ExecutionContext) Draw() float64 {
	if c.Roll != nil {
		return c.Roll()
	}
	return rand.Float64()
}

// ActorName returns the acting entity's name, or "system" when the
// invocation has no actor.
func (c *ExecutionContext) ActorName() string {
	if c.Actor == nil {
		return "system"
	}
	return c.Actor.Name
}

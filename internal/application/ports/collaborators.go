// Package ports defines the interfaces the rule engine consumes from its
// host application, plus the shared execution-context and result types.
package ports

import (
	"context"

	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
)

// ConfigProvider supplies rule definitions at engine construction time.
// A missing category degrades to an empty slice; it never errors.
type ConfigProvider interface {
	CachedDefinitions(category string) []rule.Definition
	Categories() []string
}

// GameLog is the in-game message log the "log" effect forwards to. It is
// fire-and-forget; the engine never blocks on it.
type GameLog interface {
	Log(message, category string)
}

// EventScheduler receives triggerEvent effects. FireNow runs an event
// immediately; Schedule queues it for a later day.
type EventScheduler interface {
	FireNow(eventID string, payload map[string]any)
	Schedule(eventID string, dueDay int, payload map[string]any)
}

// ActorDirectory resolves targets for domain effects. Effect kinds are the
// rule.Effect* type names; the directory decides which actors or rooms are
// eligible for each.
type ActorDirectory interface {
	FindActor(name string) *state.Actor
	EligibleActors(effectKind string) []*state.Actor
	FindRoom(id string) *state.Room
	EligibleRooms(effectKind string) []*state.Room
}

// PaymentResult reports the outcome of charging a cost.
type PaymentResult struct {
	Paid         bool
	TotalPayment float64
}

// CostLedger answers affordability checks and charges rule costs against the
// resource state.
type CostLedger interface {
	CanAfford(cost map[string]float64, st *state.GameState) bool
	Pay(cost map[string]float64, st *state.GameState, payee string) PaymentResult
}

// HistoryArchive persists execution-history records as an audit sink. The
// in-memory history ring stays authoritative; archive failures must never
// affect rule execution.
type HistoryArchive interface {
	Append(ctx context.Context, rec HistoryRecord) error
	ByRule(ctx context.Context, ruleID string, limit int) ([]HistoryRecord, error)
	ByActor(ctx context.Context, actorName string, limit int) ([]HistoryRecord, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}

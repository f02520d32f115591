package engine

import (
	"context"

	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
)

// defaultHistoryCapacity bounds the in-memory execution-history ring; the
// oldest record is evicted past the cap.
const defaultHistoryCapacity = 100

// historyRing is a fixed-capacity append-only record buffer.
type historyRing struct {
	records  []ports.HistoryRecord
	capacity int
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &historyRing{capacity: capacity}
}

func (h *historyRing) append(rec ports.HistoryRecord) {
	if len(h.records) >= h.capacity {
		h.records = h.records[1:]
	}
	h.records = append(h.records, rec)
}

// tail returns up to limit records, newest last. limit <= 0 returns all.
func (h *historyRing) tail(limit int) []ports.HistoryRecord {
	n := len(h.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]ports.HistoryRecord, limit)
	copy(out, h.records[n-limit:])
	return out
}

// record appends an execution to the in-memory ring, updates aggregate
// stats, and forwards the record to the archive when one is wired. Archive
// failures are logged and swallowed; the audit sink must never affect rule
// execution.
func (e *Engine) record(ctx context.Context, r *rule.Rule, ectx *ports.ExecutionContext, result *ExecutionResult) {
	rec := ports.HistoryRecord{
		ExecutionID:   ectx.ExecutionID,
		RuleID:        r.ID(),
		ActorName:     ectx.ActorName(),
		Day:           ectx.CurrentDay,
		Timestamp:     ectx.Timestamp,
		Success:       !result.HasErrors,
		EffectResults: result.Results,
	}

	e.mu.Lock()
	e.history.append(rec)
	e.stats.TotalExecutions++
	if rec.Success {
		e.stats.SuccessfulExecutions++
	} else {
		e.stats.FailedExecutions++
	}
	e.mu.Unlock()

	if e.collab.Archive != nil {
		if err := e.collab.Archive.Append(ctx, rec); err != nil {
			e.log.WarnContext(ctx, "history archive append failed", "error", err.Error())
		}
	}
}

// ExecutionHistory returns up to limit of the most recent history records,
// oldest first. A non-positive limit returns the whole ring.
func (e *Engine) ExecutionHistory(limit int) []ports.HistoryRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.tail(limit)
}

// RuleUsageCount counts history entries for an (actor, rule) pair. It
// answers "how many times has this actor used this skill" within the ring's
// horizon.
func (e *Engine) RuleUsageCount(actorName, ruleID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := 0
	for _, rec := range e.history.records {
		if rec.RuleID == ruleID && (actorName == "" || rec.ActorName == actorName) {
			count++
		}
	}
	return count
}

package ports

import "time"

// Result types shared between effect execution and history records.
const (
	ResultTypeUnknown = "unknown"
	ResultTypeError   = "error"
)

// EffectResult is the structured record returned by executing one effect.
// Details carries the per-type fields (old/new values, sub-results, and so
// on); Error is set only when the executor failed.
type EffectResult struct {
	Type        string         `json:"type"`
	EffectIndex int            `json:"effect_index"`
	Details     map[string]any `json:"details,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Failed reports whether this result records an executor failure.
func (r EffectResult) Failed() bool {
	return r.Type == ResultTypeError || r.Error != ""
}

// HistoryRecord is one entry of the append-only execution history.
type HistoryRecord struct {
	ExecutionID   string         `json:"execution_id"`
	RuleID        string         `json:"rule_id"`
	ActorName     string         `json:"actor_name"`
	Day           int            `json:"day"`
	Timestamp     time.Time      `json:"timestamp"`
	Success       bool           `json:"success"`
	EffectResults []EffectResult `json:"effect_results,omitempty"`
}

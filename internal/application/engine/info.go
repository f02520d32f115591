package engine

import "sort"

// Stats is a snapshot of the engine's aggregate execution counters. An
// execution counts as failed when any of its effects errored.
type Stats struct {
	TotalExecutions      int `json:"total_executions"`
	SuccessfulExecutions int `json:"successful_executions"`
	FailedExecutions     int `json:"failed_executions"`
}

// ExecutionStats returns a copy of the aggregate counters.
func (e *Engine) ExecutionStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// RuleInfo is a read-only snapshot of one registered rule.
type RuleInfo struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Group          string             `json:"group"`
	Priority       int                `json:"priority"`
	Enabled        bool               `json:"enabled"`
	Cooldown       int                `json:"cooldown"`
	MaxExecutions  int                `json:"max_executions"`
	Cost           map[string]float64 `json:"cost,omitempty"`
	ConditionCount int                `json:"condition_count"`
	EffectCount    int                `json:"effect_count"`
	ExecutionCount int                `json:"execution_count"`
	LastExecuted   int                `json:"last_executed"`
}

// RuleInfo returns a snapshot of the rule, or nil when unknown.
func (e *Engine) RuleInfo(id string) *RuleInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rules[id]
	if !ok {
		return nil
	}
	return &RuleInfo{
		ID:             r.ID(),
		Name:           r.Name(),
		Description:    r.Description(),
		Group:          r.Group(),
		Priority:       r.Priority(),
		Enabled:        r.Enabled(),
		Cooldown:       r.Cooldown(),
		MaxExecutions:  r.MaxExecutions(),
		Cost:           r.Cost(),
		ConditionCount: len(r.Conditions()),
		EffectCount:    len(r.Effects()),
		ExecutionCount: r.ExecutionCount(),
		LastExecuted:   r.LastExecuted(),
	}
}

// ListRules returns snapshots of all registered rules sorted by group, then
// descending priority, then ID.
func (e *Engine) ListRules() []*RuleInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]*RuleInfo, 0, len(e.rules))
	for _, id := range e.order {
		r := e.rules[id]
		infos = append(infos, &RuleInfo{
			ID:             r.ID(),
			Name:           r.Name(),
			Description:    r.Description(),
			Group:          r.Group(),
			Priority:       r.Priority(),
			Enabled:        r.Enabled(),
			Cooldown:       r.Cooldown(),
			MaxExecutions:  r.MaxExecutions(),
			Cost:           r.Cost(),
			ConditionCount: len(r.Conditions()),
			EffectCount:    len(r.Effects()),
			ExecutionCount: r.ExecutionCount(),
			LastExecuted:   r.LastExecuted(),
		})
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Group != infos[j].Group {
			return infos[i].Group < infos[j].Group
		}
		if infos[i].Priority != infos[j].Priority {
			return infos[i].Priority > infos[j].Priority
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

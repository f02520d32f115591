// Package engine provides the rule-engine orchestrator: rule registration,
// validation, condition checking, effect execution, cooldown enforcement,
// and execution-history bookkeeping.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rentfall/rentfall/internal/application/ports"
	domainerrors "github.com/rentfall/rentfall/internal/domain/errors"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/engine/condition"
	"github.com/rentfall/rentfall/internal/engine/cooldown"
	"github.com/rentfall/rentfall/internal/engine/effect"
	"github.com/rentfall/rentfall/internal/engine/validation"
	"github.com/rentfall/rentfall/internal/infrastructure/logging"
	"github.com/rentfall/rentfall/internal/infrastructure/tracing"
)

// PassiveGroup is the group passive rules belong to; ExecuteTrigger runs it.
const PassiveGroup = "passive"

// Collaborators bundles the external interfaces the engine depends on. Only
// Provider influences construction; the rest are handed to each execution
// context. Any of them may be nil, in which case the dependent effects and
// validators degrade to no-ops.
type Collaborators struct {
	Provider  ports.ConfigProvider
	Log       ports.GameLog
	Events    ports.EventScheduler
	Directory ports.ActorDirectory
	Ledger    ports.CostLedger
	Archive   ports.HistoryArchive
}

// ExecutionResult is the discriminated outcome of one ExecuteRule call. The
// engine never returns an error for expected domain failures; callers branch
// on Reason.
type ExecutionResult struct {
	ExecutionID string               `json:"execution_id"`
	RuleID      string               `json:"rule_id"`
	Executed    bool                 `json:"executed"`
	Reason      string               `json:"reason,omitempty"`
	Message     string               `json:"message,omitempty"`
	Results     []ports.EffectResult `json:"results,omitempty"`
	HasErrors   bool                 `json:"has_errors"`

	// RemainingCooldown accompanies the cooldown_active reason.
	RemainingCooldown int `json:"remaining_cooldown,omitempty"`
	// FailedConditions accompanies the conditions_not_met reason.
	FailedConditions []int `json:"failed_conditions,omitempty"`
	// ExecutionCount is the rule's total successful executions so far.
	ExecutionCount int `json:"execution_count"`
}

// GroupExecutionResult aggregates a fire-and-continue group run.
type GroupExecutionResult struct {
	Group    string             `json:"group"`
	Total    int                `json:"total"`
	Executed int                `json:"executed"`
	Results  []*ExecutionResult `json:"results"`
}

// Engine is the rule-engine orchestrator.
type Engine struct {
	mu    sync.RWMutex
	rules map[string]*rule.Rule
	order []string // registration order, for stable priority ties

	conditions *condition.Registry
	effects    *effect.Registry
	cooldowns  *cooldown.Tracker
	pipeline   *validation.Pipeline

	history *historyRing
	stats   Stats

	collab Collaborators
	log    *logging.Logger
	tracer *tracing.Tracer
	roll   func() float64
}

// Option configures the engine at construction time.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithTracer sets the tracer.
func WithTracer(t *tracing.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithRoll injects a deterministic random source for probability conditions
// and effects. Tests use this; production leaves it nil.
func WithRoll(roll func() float64) Option {
	return func(e *Engine) { e.roll = roll }
}

// WithHistoryCapacity overrides the execution-history ring capacity.
func WithHistoryCapacity(capacity int) Option {
	return func(e *Engine) { e.history = newHistoryRing(capacity) }
}

// New creates an engine wired to the given collaborators and preloads rule
// definitions from the config provider. A nil or empty provider degrades to
// an empty registry; construction never fails because of missing content.
func New(collab Collaborators, opts ...Option) *Engine {
	e := &Engine{
		rules:   make(map[string]*rule.Rule),
		collab:  collab,
		history: newHistoryRing(defaultHistoryCapacity),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Default()
	}
	if e.tracer == nil {
		e.tracer = tracing.Default()
	}

	e.conditions = condition.NewRegistry(e.log)
	e.effects = effect.NewRegistry(e.conditions, e.log)
	e.cooldowns = cooldown.NewTracker()
	e.pipeline = validation.Standard(e.conditions, e.cooldowns)

	e.loadFromProvider()
	return e
}

// Conditions exposes the condition registry so hosts can register custom
// evaluators at startup.
func (e *Engine) Conditions() *condition.Registry { return e.conditions }

// Effects exposes the effect registry so hosts can register custom executors
// at startup.
func (e *Engine) Effects() *effect.Registry { return e.effects }

// Cooldowns exposes the cooldown tracker, mainly for inspection.
func (e *Engine) Cooldowns() *cooldown.Tracker { return e.cooldowns }

// loadFromProvider registers every definition the config provider has
// cached. Malformed definitions are logged and skipped; one bad file must
// not block engine construction.
func (e *Engine) loadFromProvider() {
	if e.collab.Provider == nil {
		return
	}
	for _, category := range e.collab.Provider.Categories() {
		for _, def := range e.collab.Provider.CachedDefinitions(category) {
			if _, err := e.RegisterRule(def); err != nil {
				e.log.Warn("skipping rule definition",
					"category", category,
					"rule_id", def.ID,
					"error", err.Error(),
				)
			}
		}
	}
}

// RegisterRule validates a definition and registers it. Malformed
// definitions fail fast here rather than at execution time. Duplicate IDs
// are rejected.
func (e *Engine) RegisterRule(def rule.Definition) (*rule.Rule, error) {
	r, err := rule.New(def)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.rules[r.ID()]; exists {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrDuplicateRuleID, r.ID())
	}
	e.rules[r.ID()] = r
	e.order = append(e.order, r.ID())

	e.log.Debug("rule registered",
		"rule_id", r.ID(),
		"group", r.Group(),
		"priority", r.Priority(),
	)
	return r, nil
}

// ReplaceRule registers a definition, overwriting any rule with the same ID.
// Used by hot reload; execution bookkeeping of the replaced rule is reset.
func (e *Engine) ReplaceRule(def rule.Definition) (*rule.Rule, error) {
	r, err := rule.New(def)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.rules[r.ID()]; !exists {
		e.order = append(e.order, r.ID())
	}
	e.rules[r.ID()] = r
	return r, nil
}

// SetRuleEnabled toggles a rule. Returns false when the rule is unknown.
func (e *Engine) SetRuleEnabled(id string, enabled bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rules[id]
	if !ok {
		return false
	}
	r.SetEnabled(enabled)
	return true
}

// Rule returns the registered rule with the given ID, or nil.
func (e *Engine) Rule(id string) *rule.Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules[id]
}

// RuleCount returns the number of registered rules.
func (e *Engine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// ExecuteRule runs the full execution pipeline for one rule. Expected domain
// failures (unknown id, disabled, cap, cooldown, unmet conditions,
// unaffordable cost) come back as reason codes, never as panics or errors.
func (e *Engine) ExecuteRule(ctx context.Context, ruleID string, ectx *ports.ExecutionContext) *ExecutionResult {
	if ectx == nil {
		ectx = ports.NewExecutionContext(nil, nil)
	}
	e.prepareContext(ectx)

	ctx = logging.WithExecutionID(ctx, ectx.ExecutionID)
	ctx = logging.WithRuleID(ctx, ruleID)
	ctx, span := e.tracer.StartRuleSpan(ctx, ruleID, ectx.ActorName(), ectx.CurrentDay)

	result := &ExecutionResult{
		ExecutionID: ectx.ExecutionID,
		RuleID:      ruleID,
	}

	e.mu.RLock()
	r := e.rules[ruleID]
	e.mu.RUnlock()

	if r == nil {
		result.Reason = validation.ReasonRuleNotFound
		result.Message = fmt.Sprintf("rule %q not registered", ruleID)
		logging.LogRuleRejected(ctx, e.log, ruleID, result.Reason)
		span.SetRejected(result.Reason)
		span.End()
		return result
	}
	ectx.Rule = r
	result.ExecutionCount = r.ExecutionCount()

	if !r.Enabled() {
		return e.reject(ctx, span, result, validation.ReasonRuleDisabled,
			fmt.Sprintf("rule %q is disabled", ruleID))
	}
	if r.CapReached() {
		return e.reject(ctx, span, result, validation.ReasonMaxExecutionsReached,
			fmt.Sprintf("rule %q reached its execution cap", ruleID))
	}

	if vres := e.pipeline.Run(ectx); !vres.Valid {
		result.RemainingCooldown = vres.RemainingCooldown
		result.FailedConditions = vres.FailedConditions
		return e.reject(ctx, span, result, vres.Reason, vres.Message)
	}

	// Charge the declared cost before effects run, so pay-then-apply
	// ordering holds for rules whose effects read the resource state.
	if len(r.Cost()) > 0 && ectx.Ledger != nil {
		payment := ectx.Ledger.Pay(r.Cost(), ectx.State, ectx.ActorName())
		if !payment.Paid {
			return e.reject(ctx, span, result, validation.ReasonInsufficientResources,
				fmt.Sprintf("payment failed for rule %q", ruleID))
		}
	}

	logging.LogRuleStart(ctx, e.log, ruleID, ectx.ActorName(), ectx.CurrentDay)
	result.Results = e.executeEffects(ctx, r, ectx)
	for _, res := range result.Results {
		if res.Failed() {
			result.HasErrors = true
			break
		}
	}

	// Bookkeeping happens regardless of per-effect errors: the rule ran.
	r.MarkExecuted(ectx.CurrentDay)
	result.Executed = true
	result.ExecutionCount = r.ExecutionCount()
	e.cooldowns.Set(ectx.ActorName(), r.ID(), r.Cooldown(), ectx.CurrentDay)

	e.record(ctx, r, ectx, result)

	logging.LogRuleComplete(ctx, e.log, ruleID, len(result.Results), result.HasErrors)
	span.SetEffectCounts(len(result.Results), countErrors(result.Results))
	span.End()
	return result
}

// executeEffects runs the rule's effects sequentially in declared order.
// A throwing executor is downgraded to an error entry and the remaining
// effects still run; effect execution is best effort per item.
func (e *Engine) executeEffects(ctx context.Context, r *rule.Rule, ectx *ports.ExecutionContext) []ports.EffectResult {
	effects := r.Effects()
	results := make([]ports.EffectResult, 0, len(effects))

	for i, eff := range effects {
		_, span := e.tracer.StartEffectSpan(ctx, eff.Type, i)
		res, err := e.effects.Execute(eff, ectx)
		if err != nil {
			logging.LogEffectError(ctx, e.log, r.ID(), i, err)
			span.EndWithError(err)
			results = append(results, ports.EffectResult{
				Type:        ports.ResultTypeError,
				EffectIndex: i,
				Error:       err.Error(),
			})
			continue
		}
		span.End()
		res.EffectIndex = i
		results = append(results, res)
	}
	return results
}

// ExecuteRuleGroup runs every enabled rule in a group in descending priority
// order (stable on registration order for ties). Individual failures do not
// halt the group; it is fire-and-continue across all members.
func (e *Engine) ExecuteRuleGroup(ctx context.Context, group string, ectx *ports.ExecutionContext) *GroupExecutionResult {
	if ectx == nil {
		ectx = ports.NewExecutionContext(nil, nil)
	}

	ctx, span := e.tracer.StartGroupSpan(ctx, group)

	members := e.groupMembers(group)
	out := &GroupExecutionResult{
		Group:   group,
		Total:   len(members),
		Results: make([]*ExecutionResult, 0, len(members)),
	}

	for _, id := range members {
		memberCtx := cloneContext(ectx)
		res := e.ExecuteRule(ctx, id, memberCtx)
		if res.Executed {
			out.Executed++
		}
		out.Results = append(out.Results, res)
	}

	logging.LogGroupComplete(ctx, e.log, group, out.Executed, out.Total)
	span.SetCounts(out.Executed, out.Total)
	span.End()
	return out
}

// ExecuteTrigger runs the passive group with the trigger name set on the
// context, so trigger-match conditions can gate which passive rules react.
func (e *Engine) ExecuteTrigger(ctx context.Context, trigger string, ectx *ports.ExecutionContext) *GroupExecutionResult {
	if ectx == nil {
		ectx = ports.NewExecutionContext(nil, nil)
	}
	ectx.Trigger = trigger
	ctx = logging.WithTrigger(ctx, trigger)
	return e.ExecuteRuleGroup(ctx, PassiveGroup, ectx)
}

// groupMembers returns the IDs of enabled rules in the group, sorted by
// descending priority with registration order breaking ties.
func (e *Engine) groupMembers(group string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var members []string
	for _, id := range e.order {
		r := e.rules[id]
		if r != nil && r.Group() == group && r.Enabled() {
			members = append(members, id)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return e.rules[members[i]].Priority() > e.rules[members[j]].Priority()
	})
	return members
}

// prepareContext fills in the engine-level collaborators and defaults the
// context leaves unset.
func (e *Engine) prepareContext(ectx *ports.ExecutionContext) {
	if ectx.ExecutionID == "" {
		ectx.ExecutionID = uuid.NewString()
	}
	if ectx.Roll == nil && e.roll != nil {
		ectx.Roll = e.roll
	}
	if ectx.Log == nil {
		ectx.Log = e.collab.Log
	}
	if ectx.Events == nil {
		ectx.Events = e.collab.Events
	}
	if ectx.Directory == nil {
		ectx.Directory = e.collab.Directory
	}
	if ectx.Ledger == nil {
		ectx.Ledger = e.collab.Ledger
	}
}

// cloneContext copies a context for one member of a group run so each rule
// gets its own execution ID while sharing the state snapshot and trigger.
func cloneContext(ectx *ports.ExecutionContext) *ports.ExecutionContext {
	clone := *ectx
	clone.ExecutionID = uuid.NewString()
	clone.Rule = nil
	return &clone
}

// reject finalizes a validation failure: idempotent, no state mutation, no
// history entry.
func (e *Engine) reject(ctx context.Context, span *tracing.RuleSpan, result *ExecutionResult, reason, message string) *ExecutionResult {
	result.Reason = reason
	result.Message = message
	logging.LogRuleRejected(ctx, e.log, result.RuleID, reason)
	span.SetRejected(reason)
	span.End()
	return result
}

func countErrors(results []ports.EffectResult) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}

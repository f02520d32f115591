// Package rule provides the Rule aggregate root and the declarative
// condition/effect vocabulary it is built from.
package rule

import (
	"strings"

	"github.com/rentfall/rentfall/internal/domain/errors"
)

// DefaultGroup is the group a rule belongs to when none is declared.
const DefaultGroup = "default"

// CooldownOneTime is the cooldown sentinel marking a rule as one-time use:
// once executed it never comes off cooldown.
const CooldownOneTime = -1

// Definition is the declarative form of a rule as it appears in
// configuration. Definitions are validated eagerly at registration time.
type Definition struct {
	ID            string             `yaml:"id" json:"id"`
	Name          string             `yaml:"name" json:"name"`
	Description   string             `yaml:"description,omitempty" json:"description,omitempty"`
	Priority      int                `yaml:"priority,omitempty" json:"priority,omitempty"`
	Group         string             `yaml:"group,omitempty" json:"group,omitempty"`
	Enabled       *bool              `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Cooldown      int                `yaml:"cooldown,omitempty" json:"cooldown,omitempty"`
	MaxExecutions int                `yaml:"max_executions,omitempty" json:"max_executions,omitempty"`
	Cost          map[string]float64 `yaml:"cost,omitempty" json:"cost,omitempty"`
	Conditions    []Condition        `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Effects       []Effect           `yaml:"effects" json:"effects"`
}

// Rule is the aggregate root for a registered rule (a.k.a. skill). The
// definition is immutable after registration; only the enabled flag and the
// execution bookkeeping change during a session.
type Rule struct {
	id            string
	name          string
	description   string
	priority      int
	group         string
	cooldown      int
	maxExecutions int
	cost          map[string]float64
	conditions    []Condition
	effects       []Effect

	enabled        bool
	lastExecuted   int
	executionCount int
	hasExecuted    bool
}

// New validates a definition and builds a Rule from it. Validation failures
// are programmer/configuration errors and are returned eagerly rather than
// deferred to execution time:
//   - id and name are required
//   - at least one effect is required
//   - every condition and effect (recursively) must carry a type
//   - chance values must lie within [0, 1]
//   - cost amounts must not be negative
func New(def Definition) (*Rule, error) {
	def.ID = strings.TrimSpace(def.ID)
	def.Name = strings.TrimSpace(def.Name)

	if def.ID == "" {
		return nil, errors.ErrRuleIDRequired
	}
	if def.Name == "" {
		return nil, errors.ErrRuleNameRequired
	}
	if len(def.Effects) == 0 {
		return nil, errors.ErrNoEffectsDefined
	}
	if err := validateConditions(def.Conditions); err != nil {
		return nil, err
	}
	if err := validateEffects(def.Effects); err != nil {
		return nil, err
	}
	for _, amount := range def.Cost {
		if amount < 0 {
			return nil, errors.ErrNegativeCost
		}
	}

	group := def.Group
	if group == "" {
		group = DefaultGroup
	}
	enabled := true
	if def.Enabled != nil {
		enabled = *def.Enabled
	}

	// Copy the mutable slices and maps so later changes to the definition
	// cannot reach into the registered rule.
	conditions := make([]Condition, len(def.Conditions))
	copy(conditions, def.Conditions)
	effects := make([]Effect, len(def.Effects))
	copy(effects, def.Effects)
	var cost map[string]float64
	if len(def.Cost) > 0 {
		cost = make(map[string]float64, len(def.Cost))
		for k, v := range def.Cost {
			cost[k] = v
		}
	}

	return &Rule{
		id:            def.ID,
		name:          def.Name,
		description:   def.Description,
		priority:      def.Priority,
		group:         group,
		cooldown:      def.Cooldown,
		maxExecutions: def.MaxExecutions,
		cost:          cost,
		conditions:    conditions,
		effects:       effects,
		enabled:       enabled,
	}, nil
}

func validateConditions(conditions []Condition) error {
	for i := range conditions {
		c := &conditions[i]
		if strings.TrimSpace(c.Type) == "" {
			return errors.ErrConditionTypeEmpty
		}
		if c.Type == CondChance && (c.Chance < 0 || c.Chance > 1) {
			return errors.ErrInvalidProbability
		}
		if err := validateConditions(c.Conditions); err != nil {
			return err
		}
	}
	return nil
}

func validateEffects(effects []Effect) error {
	for i := range effects {
		e := &effects[i]
		if strings.TrimSpace(e.Type) == "" {
			return errors.ErrEffectTypeEmpty
		}
		if e.Type == EffectProbabilityCheck && (e.Base < 0 || e.Base > 1) {
			return errors.ErrInvalidProbability
		}
		for _, nested := range [][]Effect{e.Effects, e.OnSuccess, e.OnFailure} {
			if err := validateEffects(nested); err != nil {
				return err
			}
		}
		for _, m := range e.Modifiers {
			if m.Condition != nil {
				if err := validateConditions([]Condition{*m.Condition}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ID returns the rule's unique identifier.
func (r *Rule) ID() string { return r.id }

// Name returns the rule's human-readable name.
func (r *Rule) Name() string { return r.name }

// Description returns the rule's description.
func (r *Rule) Description() string { return r.description }

// Priority returns the rule's priority; higher runs first within a group.
func (r *Rule) Priority() int { return r.priority }

// Group returns the rule's group name.
func (r *Rule) Group() string { return r.group }

// Cooldown returns the cooldown in days. Zero means no cooldown; the
// CooldownOneTime sentinel marks one-time use.
func (r *Rule) Cooldown() int { return r.cooldown }

// MaxExecutions returns the usage cap (0 = unbounded).
func (r *Rule) MaxExecutions() int { return r.maxExecutions }

// Cost returns the rule's declared resource cost (nil when free).
func (r *Rule) Cost() map[string]float64 { return r.cost }

// Conditions returns the rule's declared conditions.
func (r *Rule) Conditions() []Condition { return r.conditions }

// Effects returns the rule's declared effects.
func (r *Rule) Effects() []Effect { return r.effects }

// Enabled reports whether the rule may execute.
func (r *Rule) Enabled() bool { return r.enabled }

// SetEnabled toggles the rule on or off.
func (r *Rule) SetEnabled(enabled bool) { r.enabled = enabled }

// LastExecuted returns the day of the most recent successful execution.
func (r *Rule) LastExecuted() int { return r.lastExecuted }

// ExecutionCount returns the number of successful executions this session.
func (r *Rule) ExecutionCount() int { return r.executionCount }

// HasExecuted reports whether the rule has run at least once.
func (r *Rule) HasExecuted() bool { return r.hasExecuted }

// MarkExecuted records a successful execution on the given day.
func (r *Rule) MarkExecuted(day int) {
	r.lastExecuted = day
	r.executionCount++
	r.hasExecuted = true
}

// CapReached reports whether the execution cap has been hit.
func (r *Rule) CapReached() bool {
	return r.maxExecutions > 0 && r.executionCount >= r.maxExecutions
}

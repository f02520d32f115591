package rule

// Built-in effect types.
const (
	EffectModifyResource     = "modifyResource"
	EffectModifyState        = "modifyState"
	EffectLog                = "log"
	EffectTriggerEvent       = "triggerEvent"
	EffectMultiple           = "multiple"
	EffectProbabilityCheck   = "probabilityCheck"
	EffectHealInfection      = "healInfection"
	EffectRepairRoom         = "repairRoom"
	EffectReinforceRoom      = "reinforceRoom"
	EffectEvictTenant        = "evictTenant"
	EffectAdjustSatisfaction = "adjustSatisfaction"
	EffectDetectInfection    = "detectInfection"
	EffectRevealInfection    = "revealInfection"
)

// Operations accepted by the modifyResource and modifyState effects.
const (
	OpAdd      = "add"
	OpSet      = "set"
	OpMultiply = "multiply"
)

// TargetRandom selects a target uniformly among the eligible candidates for
// a domain effect instead of matching by name.
const TargetRandom = "random"

// ChanceModifier adjusts a probabilityCheck's base chance. The bonus applies
// only when the attached condition evaluates true (a nil condition always
// applies).
type ChanceModifier struct {
	Bonus     float64    `yaml:"bonus" json:"bonus"`
	Condition *Condition `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// Effect is a state-mutating command, discriminated by Type. Executing an
// effect returns a structured result record.
type Effect struct {
	Type string `yaml:"type" json:"type"`

	// modifyResource / adjustSatisfaction
	Resource  string  `yaml:"resource,omitempty" json:"resource,omitempty"`
	Amount    float64 `yaml:"amount,omitempty" json:"amount,omitempty"`
	Operation string  `yaml:"operation,omitempty" json:"operation,omitempty"`

	// modifyState
	Path  string `yaml:"path,omitempty" json:"path,omitempty"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`

	// log
	Message  string `yaml:"message,omitempty" json:"message,omitempty"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`

	// triggerEvent
	Event   string         `yaml:"event,omitempty" json:"event,omitempty"`
	Delay   int            `yaml:"delay,omitempty" json:"delay,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty" json:"payload,omitempty"`

	// multiple
	Effects []Effect `yaml:"effects,omitempty" json:"effects,omitempty"`

	// probabilityCheck
	Base      float64          `yaml:"base,omitempty" json:"base,omitempty"`
	Modifiers []ChanceModifier `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	OnSuccess []Effect         `yaml:"on_success,omitempty" json:"on_success,omitempty"`
	OnFailure []Effect         `yaml:"on_failure,omitempty" json:"on_failure,omitempty"`

	// domain effects: target actor or room by name/ID, or "random"
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
}

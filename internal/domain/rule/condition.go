package rule

// Built-in condition types. The set is closed but extensible: hosts may
// register additional evaluators under new type names at startup.
const (
	CondResource   = "resource"
	CondActorCount = "actorCount"
	CondDayRange   = "dayRange"
	CondChance     = "probability"
	CondAnd        = "and"
	CondOr         = "or"
	CondStatePath  = "statePath"
	CondTrigger    = "trigger"
)

// Condition is a pure predicate over game state, discriminated by Type.
// Each variant reads only the fields it needs; evaluation must not mutate
// state.
type Condition struct {
	Type string `yaml:"type" json:"type"`

	// resource comparison
	Resource string  `yaml:"resource,omitempty" json:"resource,omitempty"`
	Amount   float64 `yaml:"amount,omitempty" json:"amount,omitempty"`
	Operator string  `yaml:"operator,omitempty" json:"operator,omitempty"`

	// actor-type count; OnlyInfected narrows the count to the infected
	// subset and takes precedence over IncludeInfected
	ActorType       string `yaml:"actor_type,omitempty" json:"actor_type,omitempty"`
	Count           int    `yaml:"count,omitempty" json:"count,omitempty"`
	IncludeInfected bool   `yaml:"include_infected,omitempty" json:"include_infected,omitempty"`
	OnlyInfected    bool   `yaml:"only_infected,omitempty" json:"only_infected,omitempty"`

	// day range; nil bounds default to 0 and +inf respectively
	MinDay *int `yaml:"min_day,omitempty" json:"min_day,omitempty"`
	MaxDay *int `yaml:"max_day,omitempty" json:"max_day,omitempty"`

	// probability roll
	Chance float64 `yaml:"chance,omitempty" json:"chance,omitempty"`

	// and / or composition
	Conditions []Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`

	// state-path comparison
	Path  string `yaml:"path,omitempty" json:"path,omitempty"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`

	// trigger match
	Trigger string `yaml:"trigger,omitempty" json:"trigger,omitempty"`
}

// Package state provides the mutable game-state model shared by conditions
// and effects, along with a dot-path accessor over its generic value tree.
package state

import "strings"

// Actor is a game entity (an occupant) that can own rules and be the target
// of effects.
type Actor struct {
	Name           string  `yaml:"name"`
	Type           string  `yaml:"type"`
	Room           string  `yaml:"room,omitempty"`
	Satisfaction   float64 `yaml:"satisfaction"`
	Infected       bool    `yaml:"infected"`
	InfectionKnown bool    `yaml:"infection_known"`
	Evicted        bool    `yaml:"evicted"`
}

// Eligible reports whether the actor may own or trigger rules. Infected and
// evicted occupants are ineligible until healed or restored.
func (a *Actor) Eligible() bool {
	return a != nil && !a.Infected && !a.Evicted
}

// Room is a unit of the building an actor may occupy.
type Room struct {
	ID          string `yaml:"id"`
	Occupant    string `yaml:"occupant,omitempty"`
	NeedsRepair bool   `yaml:"needs_repair"`
	Reinforced  bool   `yaml:"reinforced"`
}

// Occupied reports whether the room has an occupant.
func (r *Room) Occupied() bool {
	return r != nil && r.Occupant != ""
}

// GameState is the single mutable snapshot all rule executions operate on.
// It is only ever touched from the one logical thread of rule execution,
// driven by discrete day boundaries, so it carries no locking.
type GameState struct {
	Day       int                `yaml:"day"`
	Resources map[string]float64 `yaml:"resources"`
	Actors    []*Actor           `yaml:"actors"`
	Rooms     []*Room            `yaml:"rooms"`

	// Values holds everything addressable by dot paths that has no typed
	// field of its own (flags, counters, scratch data written by effects).
	Values map[string]any `yaml:"values"`
}

// New returns an empty game state ready for seeding.
func New() *GameState {
	return &GameState{
		Resources: make(map[string]float64),
		Values:    make(map[string]any),
	}
}

// Resource returns the current amount of a named resource (0 when absent).
func (g *GameState) Resource(name string) float64 {
	return g.Resources[name]
}

// SetResource sets a resource amount, flooring at zero.
func (g *GameState) SetResource(name string, amount float64) {
	if amount < 0 {
		amount = 0
	}
	if g.Resources == nil {
		g.Resources = make(map[string]float64)
	}
	g.Resources[name] = amount
}

// FindActor returns the actor with the given name, or nil.
func (g *GameState) FindActor(name string) *Actor {
	for _, a := range g.Actors {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// FindRoom returns the room with the given ID, or nil.
func (g *GameState) FindRoom(id string) *Room {
	for _, r := range g.Rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// CountActors counts actors of the given type. When includeInfected is
// false, infected actors are excluded from the count. Evicted actors never
// count.
func (g *GameState) CountActors(actorType string, includeInfected bool) int {
	count := 0
	for _, a := range g.Actors {
		if a.Evicted {
			continue
		}
		if actorType != "" && a.Type != actorType {
			continue
		}
		if a.Infected && !includeInfected {
			continue
		}
		count++
	}
	return count
}

// CountInfected counts infected actors of the given type. Evicted actors
// never count.
func (g *GameState) CountInfected(actorType string) int {
	count := 0
	for _, a := range g.Actors {
		if a.Evicted || !a.Infected {
			continue
		}
		if actorType != "" && a.Type != actorType {
			continue
		}
		count++
	}
	return count
}

// GetPath resolves a dot-delimited path against the state. The well-known
// roots "day" and "resources" route to the typed fields; everything else is
// resolved within Values. Missing intermediates yield nil, never an error.
func (g *GameState) GetPath(path string) any {
	switch {
	case path == "day":
		return g.Day
	case path == "resources":
		return g.Resources
	case strings.HasPrefix(path, "resources."):
		name := strings.TrimPrefix(path, "resources.")
		if v, ok := g.Resources[name]; ok {
			return v
		}
		return nil
	default:
		return Get(g.Values, path)
	}
}

// SetPath writes a value at a dot-delimited path, creating intermediate map
// nodes as needed. Resource paths floor at zero like SetResource.
func (g *GameState) SetPath(path string, value any) {
	switch {
	case path == "day":
		if d, ok := ToFloat(value); ok {
			g.Day = int(d)
		}
	case strings.HasPrefix(path, "resources."):
		name := strings.TrimPrefix(path, "resources.")
		if f, ok := ToFloat(value); ok {
			g.SetResource(name, f)
		}
	default:
		if g.Values == nil {
			g.Values = make(map[string]any)
		}
		Set(g.Values, path, value)
	}
}

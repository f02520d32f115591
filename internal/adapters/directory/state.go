// Package directory provides the state-backed actor directory domain effects
// resolve their targets through.
package directory

import (
	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/rule"
	"github.com/rentfall/rentfall/internal/domain/state"
)

// StateDirectory answers target lookups against a single game state. The
// eligibility rules per effect kind live here so effect executors stay free
// of collection scans.
type StateDirectory struct {
	st *state.GameState
}

// New creates a directory over the given state.
func New(st *state.GameState) *StateDirectory {
	return &StateDirectory{st: st}
}

// FindActor returns the non-evicted actor with the given name, or nil.
func (d *StateDirectory) FindActor(name string) *state.Actor {
	a := d.st.FindActor(name)
	if a == nil || a.Evicted {
		return nil
	}
	return a
}

// EligibleActors returns the actors a domain effect of the given kind may
// target. Evicted actors are never eligible.
func (d *StateDirectory) EligibleActors(effectKind string) []*state.Actor {
	var out []*state.Actor
	for _, a := range d.st.Actors {
		if a.Evicted {
			continue
		}
		switch effectKind {
		case rule.EffectHealInfection:
			if a.Infected {
				out = append(out, a)
			}
		case rule.EffectDetectInfection:
			if !a.InfectionKnown {
				out = append(out, a)
			}
		case rule.EffectRevealInfection:
			if a.Infected && !a.InfectionKnown {
				out = append(out, a)
			}
		case rule.EffectEvictTenant, rule.EffectAdjustSatisfaction:
			out = append(out, a)
		}
	}
	return out
}

// FindRoom returns the room with the given ID, or nil.
func (d *StateDirectory) FindRoom(id string) *state.Room {
	return d.st.FindRoom(id)
}

// EligibleRooms returns the rooms a domain effect of the given kind may
// target.
func (d *StateDirectory) EligibleRooms(effectKind string) []*state.Room {
	var out []*state.Room
	for _, room := range d.st.Rooms {
		switch effectKind {
		case rule.EffectRepairRoom:
			if room.NeedsRepair {
				out = append(out, room)
			}
		case rule.EffectReinforceRoom:
			if room.Occupied() && !room.Reinforced {
				out = append(out, room)
			}
		}
	}
	return out
}

// Ensure StateDirectory implements the port.
var _ ports.ActorDirectory = (*StateDirectory)(nil)

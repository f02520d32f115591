// Package cooldown provides per-(actor, rule) cooldown bookkeeping keyed by
// an external day counter. The current day is always caller-supplied; the
// tracker never reads ambient state.
package cooldown

import "fmt"

// permanent marks a one-time-use entry that never expires by day
// advancement.
const permanent = int(^uint(0) >> 1) // max int

// Tracker stores cooldown expiry days keyed by (actor, rule). Entries are
// lazily removed once the tracked day reaches the expiry.
type Tracker struct {
	expiry map[string]int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{expiry: make(map[string]int)}
}

func key(actorKey, ruleID string) string {
	return fmt.Sprintf("%s\x00%s", actorKey, ruleID)
}

// Set records a cooldown of the given number of days starting at currentDay.
// Zero days is a no-op; negative days mark the rule as one-time use for the
// actor (the cooldown never expires).
func (t *Tracker) Set(actorKey, ruleID string, days, currentDay int) {
	if days == 0 {
		return
	}
	if days < 0 {
		t.expiry[key(actorKey, ruleID)] = permanent
		return
	}
	t.expiry[key(actorKey, ruleID)] = currentDay + days
}

// IsOnCooldown reports whether the (actor, rule) pair is still locked out on
// currentDay. Expired entries are removed as a side effect.
func (t *Tracker) IsOnCooldown(actorKey, ruleID string, currentDay int) bool {
	k := key(actorKey, ruleID)
	expireDay, ok := t.expiry[k]
	if !ok {
		return false
	}
	if expireDay != permanent && currentDay >= expireDay {
		delete(t.expiry, k)
		return false
	}
	return true
}

// Remaining returns the days left on the cooldown, 0 when absent or expired.
// One-time entries report -1.
func (t *Tracker) Remaining(actorKey, ruleID string, currentDay int) int {
	k := key(actorKey, ruleID)
	expireDay, ok := t.expiry[k]
	if !ok {
		return 0
	}
	if expireDay == permanent {
		return -1
	}
	if currentDay >= expireDay {
		delete(t.expiry, k)
		return 0
	}
	return expireDay - currentDay
}

// Clear removes the entry for the pair. Used only by explicit disable paths;
// day advancement is the normal expiry mechanism.
func (t *Tracker) Clear(actorKey, ruleID string) {
	delete(t.expiry, key(actorKey, ruleID))
}

// Len returns the number of live entries, counting ones that would lazily
// expire on the next check.
func (t *Tracker) Len() int {
	return len(t.expiry)
}

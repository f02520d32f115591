// Package ledger provides the resource-backed cost ledger used by the
// affordability validator and by cost charging before effects run.
package ledger

import (
	"github.com/rentfall/rentfall/internal/application/ports"
	"github.com/rentfall/rentfall/internal/domain/state"
	"github.com/rentfall/rentfall/internal/infrastructure/logging"
)

// ResourceLedger charges costs directly against the game state's resource
// map. Payments are all-or-nothing: a cost that cannot be fully covered is
// not charged at all.
type ResourceLedger struct {
	log *logging.Logger
}

// New creates a resource ledger.
func New(log *logging.Logger) *ResourceLedger {
	if log == nil {
		log = logging.Default()
	}
	return &ResourceLedger{log: log}
}

// CanAfford reports whether every resource in the cost is covered by the
// current state. An empty cost is always affordable.
func (l *ResourceLedger) CanAfford(cost map[string]float64, st *state.GameState) bool {
	if len(cost) == 0 {
		return true
	}
	if st == nil {
		return false
	}
	for resource, amount := range cost {
		if st.Resource(resource) < amount {
			return false
		}
	}
	return true
}

// Pay charges the cost against the state. When the cost is not fully
// affordable nothing is deducted and Paid is false.
func (l *ResourceLedger) Pay(cost map[string]float64, st *state.GameState, payee string) ports.PaymentResult {
	if !l.CanAfford(cost, st) {
		return ports.PaymentResult{}
	}

	total := 0.0
	for resource, amount := range cost {
		st.SetResource(resource, st.Resource(resource)-amount)
		total += amount
	}

	l.log.Debug("cost charged",
		"payee", payee,
		"total", total,
	)
	return ports.PaymentResult{Paid: true, TotalPayment: total}
}

// Ensure ResourceLedger implements the port.
var _ ports.CostLedger = (*ResourceLedger)(nil)

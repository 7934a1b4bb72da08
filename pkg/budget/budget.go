package budget

import (
	"github.com/burnwise/burnwise/pkg/amendment"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Snapshot is the budget figure derived from a project's contract amendments.
type Snapshot struct {
	TotalBudget    decimal.Decimal
	ApprovedCount  int
	AmendmentCount int
}

// ResolveSnapshot sums the value of approved amendments. Drafts, pending,
// rejected and expired amendments are ignored; no amendments yields zero.
func ResolveSnapshot(amendments []amendment.ContractAmendment) Snapshot {
	snapshot := Snapshot{TotalBudget: decimal.Zero, AmendmentCount: len(amendments)}
	for _, a := range amendments {
		if !a.IsApproved() {
			continue
		}
		snapshot.TotalBudget = snapshot.TotalBudget.Add(a.Value)
		snapshot.ApprovedCount++
	}
	return snapshot
}

// Reconcile picks the authoritative total budget. Once a project has any
// amendment the resolved snapshot wins, otherwise the service-side total is used.
func Reconcile(snapshot Snapshot, serviceTotal decimal.Decimal) decimal.Decimal {
	if snapshot.AmendmentCount == 0 {
		return serviceTotal
	}
	if !snapshot.TotalBudget.Equal(serviceTotal) {
		log.Warnf("budget mismatch: approved amendments sum to %s, project total is %s",
			snapshot.TotalBudget.StringFixed(2), serviceTotal.StringFixed(2))
	}
	return snapshot.TotalBudget
}

package preset

import (
	"errors"
	"fmt"

	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/shopspring/decimal"
)

var ErrUnknownPreset = errors.New("unknown preset")

type Preset string

const (
	All                  Preset = "all"
	Uninvoiced           Preset = "uninvoiced"
	Unsubmitted          Preset = "unsubmitted"
	MissingReceiptOver50 Preset = "missing-receipt-over-50"
	PendingReimbursement Preset = "pending-reimbursement"
	ByPerson             Preset = "by-person"
)

const Default = Uninvoiced

var presets = []Preset{All, Uninvoiced, Unsubmitted, MissingReceiptOver50, PendingReimbursement, ByPerson}

var receiptThreshold = decimal.NewFromInt(50)

// Presets lists every preset in display order.
func Presets() []Preset {
	result := make([]Preset, len(presets))
	copy(result, presets)
	return result
}

func Parse(s string) (Preset, error) {
	for _, p := range presets {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// Filter returns the canonical filter values of p.
func (p Preset) Filter() expense.Filter {
	no := false
	switch p {
	case Uninvoiced:
		return expense.Filter{Billed: &no}
	case Unsubmitted, ByPerson:
		return expense.Filter{Unsubmitted: true}
	case MissingReceiptOver50:
		threshold := receiptThreshold
		return expense.Filter{HasReceipt: &no, MinAmount: &threshold}
	case PendingReimbursement:
		return expense.Filter{ReimbursementStatus: expense.ReimbursementPending}
	default:
		return expense.Filter{}
	}
}

// ForcesGrouping reports whether selecting p groups results by incurring person.
func (p Preset) ForcesGrouping() bool {
	return p == ByPerson
}

package timeentry

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type TimeEntry struct {
	Id          int
	ProjectId   int
	PersonId    string
	Date        time.Time
	Hours       decimal.Decimal
	BillingRate decimal.Decimal
	CostRate    decimal.Decimal
	IsBillable  bool
	// IsLocked entries are invoiced or approved and can no longer change.
	IsLocked    bool
	Workstream  string
	Stage       string
	Description string
}

// DateKey is the canonical YYYY-MM-DD form used for range comparisons.
func (e TimeEntry) DateKey() string {
	return e.Date.Format(DateLayout)
}

func (e TimeEntry) Revenue() decimal.Decimal {
	return e.Hours.Mul(e.BillingRate)
}

func (e TimeEntry) Cost() decimal.Decimal {
	return e.Hours.Mul(e.CostRate)
}

// RawEntry is a time entry as delivered by the data service, before
// validation. Numeric fields may arrive as numbers, numeric strings or null.
type RawEntry struct {
	Id          int    `json:"id"`
	ProjectId   int    `json:"projectId"`
	PersonId    string `json:"personId"`
	Date        any    `json:"date"`
	Hours       any    `json:"hours"`
	BillingRate any    `json:"billingRate"`
	CostRate    any    `json:"costRate"`
	IsBillable  bool   `json:"isBillable"`
	IsLocked    bool   `json:"isLocked"`
	Workstream  string `json:"workstream,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Description string `json:"description,omitempty"`
}

// ToRaw converts a stored entry back to its wire form.
func ToRaw(e TimeEntry) RawEntry {
	return RawEntry{
		Id:          e.Id,
		ProjectId:   e.ProjectId,
		PersonId:    e.PersonId,
		Date:        e.DateKey(),
		Hours:       e.Hours.String(),
		BillingRate: e.BillingRate.String(),
		CostRate:    e.CostRate.String(),
		IsBillable:  e.IsBillable,
		IsLocked:    e.IsLocked,
		Workstream:  e.Workstream,
		Stage:       e.Stage,
		Description: e.Description,
	}
}

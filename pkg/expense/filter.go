package expense

import "github.com/shopspring/decimal"

// Filter narrows an expense list. Zero-value fields do not filter.
type Filter struct {
	Billed              *bool
	Unsubmitted         bool
	HasReceipt          *bool
	MinAmount           *decimal.Decimal
	ReimbursementStatus ReimbursementStatus
	// PersonId matches the incurring person; "" and "all" match everyone.
	PersonId  string
	StartDate string
	EndDate   string
}

func (f Filter) Matches(e Expense) bool {
	if f.Billed != nil && e.Billed != *f.Billed {
		return false
	}
	if f.Unsubmitted && !e.IsUnsubmitted() {
		return false
	}
	if f.HasReceipt != nil && e.HasReceipt != *f.HasReceipt {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.ReimbursementStatus != "" && e.ReimbursementStatus != f.ReimbursementStatus {
		return false
	}
	if f.PersonId != "" && f.PersonId != "all" && IncurringPerson(e) != f.PersonId {
		return false
	}
	key := e.DateKey()
	if f.StartDate != "" && key < f.StartDate {
		return false
	}
	if f.EndDate != "" && key > f.EndDate {
		return false
	}
	return true
}

func Apply(expenses []Expense, f Filter) []Expense {
	result := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Matches(e) {
			result = append(result, e)
		}
	}
	return result
}

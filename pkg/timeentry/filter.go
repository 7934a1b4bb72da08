package timeentry

import "fmt"

// AllPeople is the person filter value that disables filtering by person.
const AllPeople = "all"

type BillableFilter string

const (
	BillableAll         BillableFilter = "all"
	BillableOnly        BillableFilter = "billable"
	BillableNonBillable BillableFilter = "non-billable"
)

func ParseBillableFilter(s string) (BillableFilter, error) {
	switch BillableFilter(s) {
	case "", BillableAll:
		return BillableAll, nil
	case BillableOnly, BillableNonBillable:
		return BillableFilter(s), nil
	}
	return "", fmt.Errorf("%w: unknown billable filter %q", ErrInvalidCriteria, s)
}

// FilterCriteria is applied conjunctively. Dates are canonical YYYY-MM-DD
// strings, both bounds inclusive; empty values do not filter.
type FilterCriteria struct {
	StartDate string
	EndDate   string
	PersonId  string
	Billable  BillableFilter
}

func (c FilterCriteria) Matches(e TimeEntry) bool {
	key := e.DateKey()
	if c.StartDate != "" && key < c.StartDate {
		return false
	}
	if c.EndDate != "" && key > c.EndDate {
		return false
	}
	if c.PersonId != "" && c.PersonId != AllPeople && e.PersonId != c.PersonId {
		return false
	}
	switch c.Billable {
	case BillableOnly:
		return e.IsBillable
	case BillableNonBillable:
		return !e.IsBillable
	}
	return true
}

// Filter returns the entries matching criteria, preserving input order.
func Filter(entries []TimeEntry, criteria FilterCriteria) []TimeEntry {
	filtered := make([]TimeEntry, 0, len(entries))
	for _, e := range entries {
		if criteria.Matches(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

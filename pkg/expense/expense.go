package expense

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type ReimbursementStatus string

const (
	ReimbursementNone       ReimbursementStatus = "none"
	ReimbursementPending    ReimbursementStatus = "pending"
	ReimbursementReimbursed ReimbursementStatus = "reimbursed"
)

func ParseReimbursementStatus(s string) (ReimbursementStatus, bool) {
	switch ReimbursementStatus(s) {
	case ReimbursementNone, ReimbursementPending, ReimbursementReimbursed:
		return ReimbursementStatus(s), true
	}
	return "", false
}

type Expense struct {
	Id          int
	ProjectId   int
	Date        time.Time
	Amount      decimal.Decimal
	Category    string
	Description string
	IsBillable  bool
	Billed      bool
	// ExpenseReportId links the expense to a submitted expense report.
	ExpenseReportId     *int
	HasReceipt          bool
	ReimbursementStatus ReimbursementStatus
	AssignedResourceId  string
	AuthorId            string
}

func (e Expense) DateKey() string {
	return e.Date.Format(DateLayout)
}

// IsUnsubmitted reports whether the expense is not linked to any expense report.
func (e Expense) IsUnsubmitted() bool {
	return e.ExpenseReportId == nil
}

// IncurringPerson is the person an expense is attributed to: the assigned
// resource when set, otherwise the author.
func IncurringPerson(e Expense) string {
	if e.AssignedResourceId != "" {
		return e.AssignedResourceId
	}
	return e.AuthorId
}

type PersonGroup struct {
	PersonId string
	Expenses []Expense
	Total    decimal.Decimal
}

// GroupByIncurringPerson buckets expenses per IncurringPerson. Groups are
// ordered by person id, expenses inside by date descending then id.
func GroupByIncurringPerson(expenses []Expense) []PersonGroup {
	buckets := make(map[string][]Expense)
	for _, e := range expenses {
		person := IncurringPerson(e)
		buckets[person] = append(buckets[person], e)
	}

	people := make([]string, 0, len(buckets))
	for p := range buckets {
		people = append(people, p)
	}
	sort.Strings(people)

	groups := make([]PersonGroup, 0, len(people))
	for _, p := range people {
		items := buckets[p]
		sort.SliceStable(items, func(i, j int) bool {
			if !items[i].Date.Equal(items[j].Date) {
				return items[i].Date.After(items[j].Date)
			}
			return items[i].Id < items[j].Id
		})
		total := decimal.Zero
		for _, e := range items {
			total = total.Add(e.Amount)
		}
		groups = append(groups, PersonGroup{PersonId: p, Expenses: items, Total: total})
	}
	return groups
}

// UnbilledSummary counts billable expenses that were not billed yet.
type UnbilledSummary struct {
	Count  int
	Amount decimal.Decimal
}

func SummarizeUnbilled(expenses []Expense) UnbilledSummary {
	summary := UnbilledSummary{Amount: decimal.Zero}
	for _, e := range expenses {
		if e.IsBillable && !e.Billed {
			summary.Count++
			summary.Amount = summary.Amount.Add(e.Amount)
		}
	}
	return summary
}

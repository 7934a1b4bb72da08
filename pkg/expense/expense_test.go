package expense

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func sampleExpenses() []Expense {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	return []Expense{
		{Id: 1, Date: day(1), Amount: decimal.NewFromInt(120), IsBillable: true, AuthorId: "ada", AssignedResourceId: "bob", ReimbursementStatus: ReimbursementPending},
		{Id: 2, Date: day(5), Amount: decimal.NewFromInt(30), IsBillable: true, Billed: true, AuthorId: "ada", HasReceipt: true, ExpenseReportId: ptr(10)},
		{Id: 3, Date: day(5), Amount: decimal.NewFromInt(50), AuthorId: "carol", ReimbursementStatus: ReimbursementReimbursed},
		{Id: 4, Date: day(9), Amount: decimal.RequireFromString("49.99"), IsBillable: true, AuthorId: "bob", ExpenseReportId: ptr(11)},
	}
}

func TestIncurringPerson(t *testing.T) {
	assert.Equal(t, "bob", IncurringPerson(Expense{AuthorId: "ada", AssignedResourceId: "bob"}))
	assert.Equal(t, "ada", IncurringPerson(Expense{AuthorId: "ada"}))
}

func TestApply(t *testing.T) {
	expenses := sampleExpenses()
	idsOf := func(list []Expense) []int {
		result := make([]int, 0)
		for _, e := range list {
			result = append(result, e.Id)
		}
		return result
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"no filter", Filter{}, []int{1, 2, 3, 4}},
		{"unbilled", Filter{Billed: ptr(false)}, []int{1, 3, 4}},
		{"unsubmitted", Filter{Unsubmitted: true}, []int{1, 3}},
		{"missing receipt over 50", Filter{HasReceipt: ptr(false), MinAmount: ptr(decimal.NewFromInt(50))}, []int{1, 3}},
		{"pending reimbursement", Filter{ReimbursementStatus: ReimbursementPending}, []int{1}},
		{"incurring person", Filter{PersonId: "bob"}, []int{1, 4}},
		{"date range", Filter{StartDate: "2024-03-05", EndDate: "2024-03-05"}, []int{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idsOf(Apply(expenses, tt.filter)))
		})
	}
}

func TestGroupByIncurringPerson(t *testing.T) {
	// when
	groups := GroupByIncurringPerson(sampleExpenses())

	// then
	require.Len(t, groups, 3)
	assert.Equal(t, "ada", groups[0].PersonId)
	assert.Equal(t, "bob", groups[1].PersonId)
	assert.Equal(t, 4, groups[1].Expenses[0].Id)
	assert.Equal(t, 1, groups[1].Expenses[1].Id)
	assert.True(t, decimal.RequireFromString("169.99").Equal(groups[1].Total))
	assert.Equal(t, "carol", groups[2].PersonId)
}

func TestSummarizeUnbilled(t *testing.T) {
	summary := SummarizeUnbilled(sampleExpenses())

	assert.Equal(t, 2, summary.Count)
	assert.True(t, decimal.RequireFromString("169.99").Equal(summary.Amount))
}

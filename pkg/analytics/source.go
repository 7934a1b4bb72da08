package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/burnwise/burnwise/pkg/amendment"
	"github.com/burnwise/burnwise/pkg/burnrate"
	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/burnwise/burnwise/pkg/project"
	"github.com/burnwise/burnwise/pkg/timeentry"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const monthLayout = "2006-01"

// Source is the data service the analytics engine reads from.
type Source interface {
	// GetProjectData returns project metadata with its monthly metrics and per-person totals.
	GetProjectData(ctx context.Context, projectId int) (ProjectData, error)
	GetTimeEntries(ctx context.Context, projectId int) ([]timeentry.RawEntry, error)
	GetAmendments(ctx context.Context, projectId int) ([]amendment.ContractAmendment, error)
	GetExpenses(ctx context.Context, projectId int) ([]expense.Expense, error)
}

type MonthlyMetric struct {
	Month            string
	BillableHours    decimal.Decimal
	NonBillableHours decimal.Decimal
	Revenue          decimal.Decimal
	ExpenseAmount    decimal.Decimal
	// Consumed is the budget burnt in the month: billable revenue plus billable expenses.
	Consumed decimal.Decimal
}

type PersonTotal struct {
	PersonId      string
	Hours         decimal.Decimal
	BillableHours decimal.Decimal
	Revenue       decimal.Decimal
	ExpenseAmount decimal.Decimal
	// LastEntryDate is the YYYY-MM-DD of the latest time entry, "" for people who only have expenses.
	LastEntryDate string
}

type ProjectData struct {
	Project        project.Project
	Monthly        []MonthlyMetric
	ConsumedBudget decimal.Decimal
	ActualHours    decimal.Decimal
	People         []PersonTotal
}

// BurnInput bundles the data needed by the burn rate calculator, using
// totalBudget as the authoritative budget.
func (d ProjectData) BurnInput(totalBudget decimal.Decimal) burnrate.Input {
	consumption := make([]burnrate.PeriodConsumption, 0, len(d.Monthly))
	for _, m := range d.Monthly {
		consumption = append(consumption, burnrate.PeriodConsumption{Period: m.Month, Amount: m.Consumed})
	}
	return burnrate.Input{
		TotalBudget:        totalBudget,
		ConsumedBudget:     d.ConsumedBudget,
		EstimatedHours:     d.Project.EstimatedHours,
		ActualHours:        d.ActualHours,
		MonthlyConsumption: consumption,
	}
}

// BuildProjectData aggregates validated time entries and expenses into
// monthly metrics, ascending by month, and per-person totals ordered by person id.
func BuildProjectData(p project.Project, entries []timeentry.TimeEntry, expenses []expense.Expense) ProjectData {
	data := ProjectData{
		Project:        p,
		ConsumedBudget: decimal.Zero,
		ActualHours:    decimal.Zero,
	}
	months := make(map[string]*MonthlyMetric)
	people := make(map[string]*PersonTotal)

	month := func(key string) *MonthlyMetric {
		m, ok := months[key]
		if !ok {
			m = &MonthlyMetric{
				Month:            key,
				BillableHours:    decimal.Zero,
				NonBillableHours: decimal.Zero,
				Revenue:          decimal.Zero,
				ExpenseAmount:    decimal.Zero,
				Consumed:         decimal.Zero,
			}
			months[key] = m
		}
		return m
	}
	person := func(id string) *PersonTotal {
		t, ok := people[id]
		if !ok {
			t = &PersonTotal{
				PersonId:      id,
				Hours:         decimal.Zero,
				BillableHours: decimal.Zero,
				Revenue:       decimal.Zero,
				ExpenseAmount: decimal.Zero,
			}
			people[id] = t
		}
		return t
	}

	for _, e := range entries {
		if e.Date.IsZero() {
			log.Warnf("skipping time entry %d without date in project data", e.Id)
			continue
		}
		data.ActualHours = data.ActualHours.Add(e.Hours)
		m := month(e.Date.Format(monthLayout))
		t := person(e.PersonId)
		t.Hours = t.Hours.Add(e.Hours)
		if key := e.DateKey(); key > t.LastEntryDate {
			t.LastEntryDate = key
		}
		if !e.IsBillable {
			m.NonBillableHours = m.NonBillableHours.Add(e.Hours)
			continue
		}
		revenue := e.Revenue()
		m.BillableHours = m.BillableHours.Add(e.Hours)
		m.Revenue = m.Revenue.Add(revenue)
		m.Consumed = m.Consumed.Add(revenue)
		t.BillableHours = t.BillableHours.Add(e.Hours)
		t.Revenue = t.Revenue.Add(revenue)
		data.ConsumedBudget = data.ConsumedBudget.Add(revenue)
	}

	for _, e := range expenses {
		if e.Date.IsZero() {
			log.Warnf("skipping expense %d without date in project data", e.Id)
			continue
		}
		m := month(e.Date.Format(monthLayout))
		m.ExpenseAmount = m.ExpenseAmount.Add(e.Amount)
		t := person(expense.IncurringPerson(e))
		t.ExpenseAmount = t.ExpenseAmount.Add(e.Amount)
		if e.IsBillable {
			m.Consumed = m.Consumed.Add(e.Amount)
			data.ConsumedBudget = data.ConsumedBudget.Add(e.Amount)
		}
	}

	data.Monthly = make([]MonthlyMetric, 0, len(months))
	for _, m := range months {
		data.Monthly = append(data.Monthly, *m)
	}
	sort.Slice(data.Monthly, func(i, j int) bool { return data.Monthly[i].Month < data.Monthly[j].Month })

	data.People = make([]PersonTotal, 0, len(people))
	for _, t := range people {
		data.People = append(data.People, *t)
	}
	sort.Slice(data.People, func(i, j int) bool { return data.People[i].PersonId < data.People[j].PersonId })

	return data
}

// RepositorySource serves Source reads straight from the Postgres repositories.
type RepositorySource struct {
	projects   project.Repository
	entries    timeentry.Repository
	amendments amendment.Repository
	expenses   expense.Repository
}

func NewRepositorySource(projects project.Repository, entries timeentry.Repository, amendments amendment.Repository, expenses expense.Repository) *RepositorySource {
	return &RepositorySource{projects, entries, amendments, expenses}
}

func (s *RepositorySource) GetProjectData(ctx context.Context, projectId int) (ProjectData, error) {
	p, err := s.projects.Get(ctx, projectId)
	if err != nil {
		return ProjectData{}, fmt.Errorf("failed to get project %d: %w", projectId, err)
	}
	entries, err := s.entries.List(ctx, projectId)
	if err != nil {
		return ProjectData{}, fmt.Errorf("failed to list time entries: %w", err)
	}
	expenses, err := s.expenses.List(ctx, projectId)
	if err != nil {
		return ProjectData{}, fmt.Errorf("failed to list expenses: %w", err)
	}
	return BuildProjectData(p, entries, expenses), nil
}

func (s *RepositorySource) GetTimeEntries(ctx context.Context, projectId int) ([]timeentry.RawEntry, error) {
	if _, err := s.projects.Get(ctx, projectId); err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", projectId, err)
	}
	entries, err := s.entries.List(ctx, projectId)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	raw := make([]timeentry.RawEntry, 0, len(entries))
	for _, e := range entries {
		raw = append(raw, timeentry.ToRaw(e))
	}
	return raw, nil
}

func (s *RepositorySource) GetAmendments(ctx context.Context, projectId int) ([]amendment.ContractAmendment, error) {
	amendments, err := s.amendments.List(ctx, projectId)
	if err != nil {
		return nil, fmt.Errorf("failed to list amendments: %w", err)
	}
	return amendments, nil
}

func (s *RepositorySource) GetExpenses(ctx context.Context, projectId int) ([]expense.Expense, error) {
	if _, err := s.projects.Get(ctx, projectId); err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", projectId, err)
	}
	expenses, err := s.expenses.List(ctx, projectId)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

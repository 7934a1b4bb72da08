package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/internal/utils"
	"github.com/burnwise/burnwise/pkg/amendment"
	"github.com/burnwise/burnwise/pkg/budget"
	"github.com/burnwise/burnwise/pkg/burnrate"
	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/burnwise/burnwise/pkg/preset"
	"github.com/burnwise/burnwise/pkg/project"
	"github.com/burnwise/burnwise/pkg/timeentry"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	queryProjectData = "project-data"
	queryTimeEntries = "time-entries"
	queryAmendments  = "amendments"
	queryExpenses    = "expenses"
)

type ProjectAnalytics struct {
	Project  project.Project
	Monthly  []MonthlyMetric
	Budget   budget.Snapshot
	BurnRate burnrate.Snapshot
	Health   burnrate.Health
	People   []PersonTotal
	// MissingTimeThisMonth lists people of the project without time logged in the current month.
	MissingTimeThisMonth []string
	UnbilledExpenses     expense.UnbilledSummary
}

type Service interface {
	GetProjectAnalytics(ctx context.Context, projectId int) (ProjectAnalytics, error)
	GetSource(ctx context.Context, projectId int) (ProjectData, error)
	GetTimeEntryReport(ctx context.Context, projectId int, criteria timeentry.FilterCriteria, dim timeentry.GroupingDimension) (timeentry.Report, error)
	GetExpenses(ctx context.Context, projectId int, state preset.State) ([]expense.Expense, []expense.PersonGroup, error)
	// Invalidate drops every cached read of the project.
	Invalidate(projectId int)
}

type ServiceImpl struct {
	source      Source
	clock       utils.Clock
	calculator  *burnrate.Calculator
	projectData *QueryCache[ProjectData]
	timeEntries *QueryCache[[]timeentry.RawEntry]
	amendments  *QueryCache[[]amendment.ContractAmendment]
	expenses    *QueryCache[[]expense.Expense]
}

func NewService(source Source, clock utils.Clock, eventBus *event_bus.EventBus) *ServiceImpl {
	service := &ServiceImpl{
		source:      source,
		clock:       clock,
		calculator:  burnrate.NewCalculator(clock),
		projectData: NewQueryCache[ProjectData](),
		timeEntries: NewQueryCache[[]timeentry.RawEntry](),
		amendments:  NewQueryCache[[]amendment.ContractAmendment](),
		expenses:    NewQueryCache[[]expense.Expense](),
	}
	if eventBus == nil {
		return service
	}
	event_bus.SubscribeTyped[event_bus.TimeEntryChanged](
		eventBus,
		event_bus.TimeEntryChangedEvent,
		func(e event_bus.EventT[event_bus.TimeEntryChanged]) error {
			log.Debugf("received time entry changed event: %v", e.Data)
			service.Invalidate(e.Data.ProjectId)
			return nil
		},
	)
	event_bus.SubscribeTyped[event_bus.AmendmentChanged](
		eventBus,
		event_bus.AmendmentChangedEvent,
		func(e event_bus.EventT[event_bus.AmendmentChanged]) error {
			log.Debugf("received amendment changed event: %v", e.Data)
			service.Invalidate(e.Data.ProjectId)
			return nil
		},
	)
	event_bus.SubscribeTyped[event_bus.ExpenseChanged](
		eventBus,
		event_bus.ExpenseChangedEvent,
		func(e event_bus.EventT[event_bus.ExpenseChanged]) error {
			log.Debugf("received expense changed event: %v", e.Data)
			service.Invalidate(e.Data.ProjectId)
			return nil
		},
	)
	event_bus.SubscribeTyped[event_bus.ProjectChanged](
		eventBus,
		event_bus.ProjectChangedEvent,
		func(e event_bus.EventT[event_bus.ProjectChanged]) error {
			log.Debugf("received project changed event: %v", e.Data)
			service.Invalidate(e.Data.ProjectId)
			return nil
		},
	)
	return service
}

func (s *ServiceImpl) GetProjectAnalytics(ctx context.Context, projectId int) (ProjectAnalytics, error) {
	var (
		data       ProjectData
		amendments []amendment.ContractAmendment
		expenses   []expense.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = s.GetSource(gctx, projectId)
		return err
	})
	g.Go(func() error {
		var err error
		amendments, err = s.loadAmendments(gctx, projectId)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.loadExpenses(gctx, projectId)
		return err
	})
	if err := g.Wait(); err != nil {
		return ProjectAnalytics{}, err
	}

	snapshot := budget.ResolveSnapshot(amendments)
	totalBudget := budget.Reconcile(snapshot, data.Project.TotalBudget)
	burn := s.calculator.Calculate(data.BurnInput(totalBudget))

	return ProjectAnalytics{
		Project:              data.Project,
		Monthly:              data.Monthly,
		Budget:               snapshot,
		BurnRate:             burn,
		Health:               burn.Health(),
		People:               data.People,
		MissingTimeThisMonth: MissingTimeInMonth(data.People, utils.Today(s.clock)),
		UnbilledExpenses:     expense.SummarizeUnbilled(expenses),
	}, nil
}

func (s *ServiceImpl) GetSource(ctx context.Context, projectId int) (ProjectData, error) {
	key := QueryKey{ProjectId: projectId, Query: queryProjectData}
	data, err := s.projectData.Load(ctx, key, func(ctx context.Context) (ProjectData, error) {
		return s.source.GetProjectData(ctx, projectId)
	})
	if err != nil {
		return ProjectData{}, fmt.Errorf("failed to load project data: %w", err)
	}
	return data, nil
}

func (s *ServiceImpl) GetTimeEntryReport(ctx context.Context, projectId int, criteria timeentry.FilterCriteria, dim timeentry.GroupingDimension) (timeentry.Report, error) {
	key := QueryKey{ProjectId: projectId, Query: queryTimeEntries}
	raw, err := s.timeEntries.Load(ctx, key, func(ctx context.Context) ([]timeentry.RawEntry, error) {
		return s.source.GetTimeEntries(ctx, projectId)
	})
	if err != nil {
		return timeentry.Report{}, fmt.Errorf("failed to load time entries: %w", err)
	}
	return timeentry.BuildReportFromRaw(raw, criteria, dim), nil
}

func (s *ServiceImpl) GetExpenses(ctx context.Context, projectId int, state preset.State) ([]expense.Expense, []expense.PersonGroup, error) {
	expenses, err := s.loadExpenses(ctx, projectId)
	if err != nil {
		return nil, nil, err
	}
	filtered, groups := state.Apply(expenses)
	return filtered, groups, nil
}

func (s *ServiceImpl) Invalidate(projectId int) {
	s.projectData.InvalidateProject(projectId)
	s.timeEntries.InvalidateProject(projectId)
	s.amendments.InvalidateProject(projectId)
	s.expenses.InvalidateProject(projectId)
}

func (s *ServiceImpl) loadAmendments(ctx context.Context, projectId int) ([]amendment.ContractAmendment, error) {
	key := QueryKey{ProjectId: projectId, Query: queryAmendments}
	amendments, err := s.amendments.Load(ctx, key, func(ctx context.Context) ([]amendment.ContractAmendment, error) {
		return s.source.GetAmendments(ctx, projectId)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load amendments: %w", err)
	}
	return amendments, nil
}

func (s *ServiceImpl) loadExpenses(ctx context.Context, projectId int) ([]expense.Expense, error) {
	key := QueryKey{ProjectId: projectId, Query: queryExpenses}
	expenses, err := s.expenses.Load(ctx, key, func(ctx context.Context) ([]expense.Expense, error) {
		return s.source.GetExpenses(ctx, projectId)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	return expenses, nil
}

// MissingTimeInMonth returns the ids of people whose latest time entry is
// before the month of today, including people who never logged time.
func MissingTimeInMonth(people []PersonTotal, today time.Time) []string {
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).Format(timeentry.DateLayout)
	missing := make([]string, 0)
	for _, p := range people {
		if p.LastEntryDate < monthStart {
			missing = append(missing, p.PersonId)
		}
	}
	sort.Strings(missing)
	return missing
}

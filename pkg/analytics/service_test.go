package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/internal/utils"
	"github.com/burnwise/burnwise/pkg/access"
	"github.com/burnwise/burnwise/pkg/amendment"
	"github.com/burnwise/burnwise/pkg/burnrate"
	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/burnwise/burnwise/pkg/preset"
	"github.com/burnwise/burnwise/pkg/project"
	"github.com/burnwise/burnwise/pkg/timeentry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceStub struct {
	mu         sync.Mutex
	project    project.Project
	entries    []timeentry.TimeEntry
	raw        []timeentry.RawEntry
	amendments []amendment.ContractAmendment
	expenses   []expense.Expense
	calls      map[string]int
	Err        error
}

func newSourceStub(p project.Project, entries []timeentry.TimeEntry, amendments []amendment.ContractAmendment, expenses []expense.Expense) *sourceStub {
	raw := make([]timeentry.RawEntry, 0, len(entries))
	for _, e := range entries {
		raw = append(raw, timeentry.ToRaw(e))
	}
	return &sourceStub{
		project:    p,
		entries:    entries,
		raw:        raw,
		amendments: amendments,
		expenses:   expenses,
		calls:      map[string]int{},
	}
}

func (s *sourceStub) record(query string, projectId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[query]++
	if s.Err != nil {
		return s.Err
	}
	if projectId != s.project.Id {
		return project.ErrProjectNotFound
	}
	return nil
}

func (s *sourceStub) callCount(query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[query]
}

func (s *sourceStub) GetProjectData(ctx context.Context, projectId int) (ProjectData, error) {
	if err := s.record(queryProjectData, projectId); err != nil {
		return ProjectData{}, err
	}
	return BuildProjectData(s.project, s.entries, s.expenses), nil
}

func (s *sourceStub) GetTimeEntries(ctx context.Context, projectId int) ([]timeentry.RawEntry, error) {
	if err := s.record(queryTimeEntries, projectId); err != nil {
		return nil, err
	}
	return s.raw, nil
}

func (s *sourceStub) GetAmendments(ctx context.Context, projectId int) ([]amendment.ContractAmendment, error) {
	if err := s.record(queryAmendments, projectId); err != nil {
		return nil, err
	}
	return s.amendments, nil
}

func (s *sourceStub) GetExpenses(ctx context.Context, projectId int) ([]expense.Expense, error) {
	if err := s.record(queryExpenses, projectId); err != nil {
		return nil, err
	}
	return s.expenses, nil
}

func newClock() *utils.MockClock {
	return &utils.MockClock{FixedNow: date(2024, 2, 20)}
}

func TestServiceImpl_GetProjectAnalytics(t *testing.T) {
	t.Run("should report overrun project as critical", func(t *testing.T) {
		// given
		p := project.Project{Id: 1, Name: "Overrun", TotalBudget: dec("100000")}
		entries := []timeentry.TimeEntry{
			{Id: 1, ProjectId: 1, PersonId: "ada", Date: date(2024, 1, 10), Hours: dec("1000"), BillingRate: dec("120"), IsBillable: true},
		}
		service := NewService(newSourceStub(p, entries, nil, nil), newClock(), nil)

		// when
		analytics, err := service.GetProjectAnalytics(context.Background(), 1)

		// then
		require.NoError(t, err)
		assertDecimal(t, "100000", analytics.BurnRate.TotalBudget)
		assertDecimal(t, "120000", analytics.BurnRate.ConsumedBudget)
		assertDecimal(t, "120", analytics.BurnRate.BurnRatePercentage)
		assert.Equal(t, burnrate.HealthCritical, analytics.Health)
		require.NotNil(t, analytics.BurnRate.ProjectedCompletion)
		assert.Equal(t, date(2024, 2, 20), *analytics.BurnRate.ProjectedCompletion)
		assert.Equal(t, []string{"ada"}, analytics.MissingTimeThisMonth)
	})

	t.Run("should prefer approved amendments over project total", func(t *testing.T) {
		// given
		p := sampleProject()
		p.TotalBudget = dec("9999")
		amendments := []amendment.ContractAmendment{
			{Id: 1, ProjectId: 1, Value: dec("3000"), Status: amendment.StatusApproved},
			{Id: 2, ProjectId: 1, Value: dec("500"), Status: amendment.StatusDraft},
		}
		service := NewService(newSourceStub(p, sampleEntries(), amendments, sampleExpenses()), newClock(), nil)

		// when
		analytics, err := service.GetProjectAnalytics(context.Background(), 1)

		// then
		require.NoError(t, err)
		assertDecimal(t, "3000", analytics.Budget.TotalBudget)
		assert.Equal(t, 1, analytics.Budget.ApprovedCount)
		assert.Equal(t, 2, analytics.Budget.AmendmentCount)
		assertDecimal(t, "3000", analytics.BurnRate.TotalBudget)
		assertDecimal(t, "50", analytics.BurnRate.BurnRatePercentage)
		assert.Equal(t, burnrate.HealthHealthy, analytics.Health)
		assert.Equal(t, 1, analytics.UnbilledExpenses.Count)
		assertDecimal(t, "100", analytics.UnbilledExpenses.Amount)
		assert.Len(t, analytics.Monthly, 2)
	})

	t.Run("should surface source failure without caching", func(t *testing.T) {
		// given
		source := newSourceStub(sampleProject(), sampleEntries(), nil, nil)
		source.Err = errors.New("data service down")
		service := NewService(source, newClock(), nil)

		// when
		_, err := service.GetProjectAnalytics(context.Background(), 1)

		// then
		require.Error(t, err)
		source.Err = nil
		_, err = service.GetProjectAnalytics(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 2, source.callCount(queryProjectData))
	})

	t.Run("should report unknown project", func(t *testing.T) {
		service := NewService(newSourceStub(sampleProject(), nil, nil, nil), newClock(), nil)

		_, err := service.GetProjectAnalytics(context.Background(), 42)

		assert.ErrorIs(t, err, project.ErrProjectNotFound)
	})
}

func TestServiceImpl_Invalidation(t *testing.T) {
	t.Run("should serve cached reads until a change event arrives", func(t *testing.T) {
		// given
		bus := event_bus.NewEventBus()
		source := newSourceStub(sampleProject(), sampleEntries(), nil, sampleExpenses())
		service := NewService(source, newClock(), bus)
		ctx := context.Background()
		_, err := service.GetProjectAnalytics(ctx, 1)
		require.NoError(t, err)
		_, err = service.GetProjectAnalytics(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, 1, source.callCount(queryProjectData))

		// when
		require.NoError(t, bus.Publish(event_bus.NewEvent(ctx, event_bus.TimeEntryChangedEvent,
			event_bus.TimeEntryChanged{ProjectId: 1, EntryId: 1, Kind: event_bus.ChangeUpdated})))
		_, err = service.GetProjectAnalytics(ctx, 1)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, source.callCount(queryProjectData))
		assert.Equal(t, 2, source.callCount(queryAmendments))
		assert.Equal(t, 2, source.callCount(queryExpenses))
	})

	t.Run("should keep cache of other projects", func(t *testing.T) {
		// given
		bus := event_bus.NewEventBus()
		source := newSourceStub(sampleProject(), sampleEntries(), nil, nil)
		service := NewService(source, newClock(), bus)
		ctx := context.Background()
		_, err := service.GetSource(ctx, 1)
		require.NoError(t, err)

		// when
		for _, event := range []event_bus.Event{
			event_bus.NewEvent(ctx, event_bus.AmendmentChangedEvent, event_bus.AmendmentChanged{ProjectId: 2}),
			event_bus.NewEvent(ctx, event_bus.ExpenseChangedEvent, event_bus.ExpenseChanged{ProjectId: 2}),
			event_bus.NewEvent(ctx, event_bus.ProjectChangedEvent, event_bus.ProjectChanged{ProjectId: 2}),
		} {
			require.NoError(t, bus.Publish(event))
		}
		_, err = service.GetSource(ctx, 1)

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, source.callCount(queryProjectData))
	})
}

func TestServiceImpl_InvalidationAfterCancelledRequest(t *testing.T) {
	// given
	ctx := context.Background()
	bus := event_bus.NewEventBus()
	projects := project.NewRepositoryStub()
	p, err := projects.Create(ctx, sampleProject())
	require.NoError(t, err)
	entries := timeentry.NewRepositoryStub()
	source := NewRepositorySource(projects, entries, amendment.NewRepositoryStub(), expense.NewRepositoryStub())
	service := NewService(source, newClock(), bus)
	entryService := timeentry.NewService(entries, access.StaticChecker{Allowed: true}, bus)

	report, err := service.GetTimeEntryReport(ctx, p.Id, timeentry.FilterCriteria{}, timeentry.GroupByNone)
	require.NoError(t, err)
	require.Nil(t, report.Overall)

	// when
	requestCtx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = entryService.Create(requestCtx, timeentry.TimeEntry{ProjectId: p.Id, PersonId: "ada", Date: date(2024, 2, 1), Hours: dec("3"), BillingRate: dec("100"), IsBillable: true})
	require.NoError(t, err)
	report, err = service.GetTimeEntryReport(ctx, p.Id, timeentry.FilterCriteria{}, timeentry.GroupByNone)

	// then
	require.NoError(t, err)
	require.NotNil(t, report.Overall)
	assertDecimal(t, "3", report.Overall.TotalHours)
}

func TestServiceImpl_GetTimeEntryReport(t *testing.T) {
	// given
	source := newSourceStub(sampleProject(), sampleEntries(), nil, nil)
	source.raw = append(source.raw, timeentry.RawEntry{Id: 9, ProjectId: 1, PersonId: "ada", Date: "not-a-date", Hours: 5, IsBillable: true})
	service := NewService(source, newClock(), nil)

	// when
	report, err := service.GetTimeEntryReport(context.Background(), 1, timeentry.FilterCriteria{}, timeentry.GroupByMonth)

	// then
	require.NoError(t, err)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, "February 2024", report.Groups[0].Name)
	assert.Equal(t, "January 2024", report.Groups[1].Name)
	require.NotNil(t, report.Overall)
	assertDecimal(t, "14", report.Overall.TotalHours)
	assertDecimal(t, "1400", report.Overall.TotalRevenue)
}

func TestServiceImpl_GetExpenses(t *testing.T) {
	service := NewService(newSourceStub(sampleProject(), nil, nil, sampleExpenses()), newClock(), nil)

	t.Run("should apply default preset", func(t *testing.T) {
		expenses, groups, err := service.GetExpenses(context.Background(), 1, preset.DefaultState())

		require.NoError(t, err)
		assert.Len(t, expenses, 2)
		assert.Nil(t, groups)
	})

	t.Run("should group by incurring person", func(t *testing.T) {
		expenses, groups, err := service.GetExpenses(context.Background(), 1, preset.Select(preset.ByPerson))

		require.NoError(t, err)
		assert.Len(t, expenses, 2)
		require.Len(t, groups, 2)
		assert.Equal(t, "bob", groups[0].PersonId)
		assert.Equal(t, "carol", groups[1].PersonId)
	})
}

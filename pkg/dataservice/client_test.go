package dataservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/burnwise/burnwise/internal/config"
	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/internal/utils"
	"github.com/burnwise/burnwise/pkg/access"
	"github.com/burnwise/burnwise/pkg/amendment"
	"github.com/burnwise/burnwise/pkg/analytics"
	"github.com/burnwise/burnwise/pkg/burnrate"
	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/burnwise/burnwise/pkg/project"
	"github.com/burnwise/burnwise/pkg/timeentry"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

// startDataService serves the read endpoints of a burnwise server backed by in-memory repositories.
func startDataService(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	ctx := context.Background()
	clock := &utils.MockClock{FixedNow: date(time.February, 20)}
	bus := event_bus.NewEventBus()

	projects := project.NewRepositoryStub()
	p, err := projects.Create(ctx, project.Project{Name: "Atlas", EstimatedHours: dec("20"), TotalBudget: dec("1000")})
	require.NoError(t, err)
	amendments := amendment.NewRepositoryStub()
	_, err = amendments.Create(ctx, amendment.ContractAmendment{ProjectId: p.Id, Reference: uuid.New(), Title: "SOW", Type: amendment.TypeInitial, Value: dec("3000"), Status: amendment.StatusApproved})
	require.NoError(t, err)
	entries := timeentry.NewRepositoryStub(
		timeentry.TimeEntry{Id: 1, ProjectId: p.Id, PersonId: "ada", Date: date(time.January, 10), Hours: dec("8"), BillingRate: dec("100"), IsBillable: true},
		timeentry.TimeEntry{Id: 2, ProjectId: p.Id, PersonId: "bob", Date: date(time.February, 15), Hours: dec("4"), BillingRate: dec("150"), IsBillable: true, Workstream: "Design"},
	)
	expenses := expense.NewRepositoryStub(
		expense.Expense{Id: 1, ProjectId: p.Id, Date: date(time.February, 1), Amount: dec("100"), IsBillable: true, AuthorId: "ada", ReimbursementStatus: expense.ReimbursementNone},
		expense.Expense{Id: 2, ProjectId: p.Id, Date: date(time.February, 3), Amount: dec("20"), Billed: true, AuthorId: "bob", ReimbursementStatus: expense.ReimbursementNone},
	)
	checker := access.StaticChecker{Allowed: true}

	analyticsHandler := analytics.NewHandler(analytics.NewService(analytics.NewRepositorySource(projects, entries, amendments, expenses), clock, bus))
	entryHandler := timeentry.NewHandler(timeentry.NewService(entries, checker, bus))
	amendmentHandler := amendment.NewHandler(amendment.NewService(amendments, checker, bus, clock))

	var mu sync.Mutex
	var users []string
	seenUsers := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), users...)
	}
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			mu.Lock()
			users = append(users, req.Header.Get(userIdHeader))
			mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/api/projects/{projectId}/analytics/source", analyticsHandler.GetSource).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/expenses", analyticsHandler.ListExpenses).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/time-entries", entryHandler.List).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/amendments", amendmentHandler.List).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, seenUsers
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(config.DataService{BaseURL: server.URL + "/", Timeout: 5 * time.Second, UserId: "cli"})
}

func TestClient_GetProjectData(t *testing.T) {
	// given
	server, seenUsers := startDataService(t)
	client := newTestClient(server)

	// when
	data, err := client.GetProjectData(context.Background(), 1)

	// then
	require.NoError(t, err)
	assert.Equal(t, "Atlas", data.Project.Name)
	assert.True(t, dec("1500").Equal(data.ConsumedBudget), "consumed %s", data.ConsumedBudget)
	require.Len(t, data.Monthly, 2)
	assert.Equal(t, "2024-01", data.Monthly[0].Month)
	assert.Equal(t, []string{"cli"}, seenUsers())
}

func TestClient_GetTimeEntries(t *testing.T) {
	// given
	server, _ := startDataService(t)
	client := newTestClient(server)

	// when
	raw, err := client.GetTimeEntries(context.Background(), 1)

	// then
	require.NoError(t, err)
	require.Len(t, raw, 2)
	validated := timeentry.Validate(raw)
	require.Len(t, validated, 2)
	assert.Equal(t, "Design", validated[1].Workstream)
	assert.True(t, dec("150").Equal(validated[1].BillingRate))
}

func TestClient_GetAmendments(t *testing.T) {
	// given
	server, _ := startDataService(t)
	client := newTestClient(server)

	// when
	amendments, err := client.GetAmendments(context.Background(), 1)

	// then
	require.NoError(t, err)
	require.Len(t, amendments, 1)
	assert.True(t, amendments[0].IsApproved())
	assert.NotEqual(t, uuid.Nil, amendments[0].Reference)
	assert.True(t, dec("3000").Equal(amendments[0].Value))
}

func TestClient_GetExpenses(t *testing.T) {
	// given
	server, _ := startDataService(t)
	client := newTestClient(server)

	// when
	expenses, err := client.GetExpenses(context.Background(), 1)

	// then
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestClient_Errors(t *testing.T) {
	server, _ := startDataService(t)
	client := newTestClient(server)

	t.Run("should map 404 to unknown project", func(t *testing.T) {
		_, err := client.GetProjectData(context.Background(), 9)

		assert.ErrorIs(t, err, project.ErrProjectNotFound)
	})

	t.Run("should report unexpected status", func(t *testing.T) {
		var target any
		err := client.get(context.Background(), "/api/projects/1/broken", &target)

		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})
}

func TestClient_AsAnalyticsSource(t *testing.T) {
	// given
	server, _ := startDataService(t)
	service := analytics.NewService(newTestClient(server), &utils.MockClock{FixedNow: date(time.February, 20)}, nil)

	// when
	result, err := service.GetProjectAnalytics(context.Background(), 1)

	// then
	require.NoError(t, err)
	assert.True(t, dec("3000").Equal(result.BurnRate.TotalBudget))
	assert.True(t, dec("50").Equal(result.BurnRate.BurnRatePercentage))
	assert.Equal(t, burnrate.HealthHealthy, result.Health)
	assert.Equal(t, 1, result.UnbilledExpenses.Count)
}

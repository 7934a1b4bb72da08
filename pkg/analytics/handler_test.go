package analytics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/burnwise/burnwise/pkg/preset"
	"github.com/burnwise/burnwise/pkg/project"
	"github.com/burnwise/burnwise/pkg/timeentry"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(source Source) *mux.Router {
	handler := NewHandler(NewService(source, newClock(), nil))
	r := mux.NewRouter()
	r.HandleFunc("/api/projects/{projectId}/analytics", handler.GetAnalytics).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/analytics/source", handler.GetSource).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/time-entries/report", handler.GetTimeEntryReport).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/expenses", handler.ListExpenses).Methods("GET")
	return r
}

func TestHandler_GetAnalytics(t *testing.T) {
	router := setupRouter(newSourceStub(sampleProject(), sampleEntries(), nil, sampleExpenses()))

	t.Run("should return derived analytics", func(t *testing.T) {
		// when
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/1/analytics", nil))

		// then
		require.Equal(t, http.StatusOK, rr.Code)
		var dto ProjectAnalyticsDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
		assert.Equal(t, "Atlas", dto.Project.Name)
		assert.Equal(t, "healthy", dto.Health)
		assertDecimal(t, "50", dto.BurnRate.BurnRatePercentage)
		require.NotNil(t, dto.BurnRate.ProjectedCompletion)
		assert.Equal(t, []string{"carol"}, dto.MissingTimeThisMonth)
		assert.Equal(t, 1, dto.UnbilledExpenses.Count)
		assert.Len(t, dto.Monthly, 2)
	})

	t.Run("should answer 404 for unknown project", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/7/analytics", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandler_UpstreamFailure(t *testing.T) {
	// given
	source := newSourceStub(sampleProject(), sampleEntries(), nil, nil)
	source.Err = errors.New("dial tcp 10.0.0.5:5432: connection refused")
	router := setupRouter(source)

	// when
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/1/analytics", nil))

	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestHandler_GetSource(t *testing.T) {
	// given
	router := setupRouter(newSourceStub(sampleProject(), sampleEntries(), nil, sampleExpenses()))

	// when
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/1/analytics/source", nil))

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	var dto ProjectDataDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	data := DTOToProjectData(dto)
	assert.Equal(t, 1, data.Project.Id)
	assertDecimal(t, "1500", data.ConsumedBudget)
	require.Len(t, data.People, 3)
	assert.Equal(t, "2024-02-02", data.People[0].LastEntryDate)
}

func TestHandler_GetTimeEntryReport(t *testing.T) {
	router := setupRouter(newSourceStub(sampleProject(), sampleEntries(), nil, nil))

	t.Run("should group filtered entries", func(t *testing.T) {
		// when
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/1/time-entries/report?groupBy=month&billable=billable", nil))

		// then
		require.Equal(t, http.StatusOK, rr.Code)
		var dto timeentry.ReportDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
		require.Len(t, dto.Groups, 2)
		assert.Equal(t, "February 2024", dto.Groups[0].Name)
		require.NotNil(t, dto.Overall)
		assertDecimal(t, "12", dto.Overall.TotalHours)
	})

	t.Run("should return empty report with null overall", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/1/time-entries/report?personId=nobody", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"groups":[],"overall":null}`, rr.Body.String())
	})

	t.Run("should reject unknown grouping", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/1/time-entries/report?groupBy=epic", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandler_ListExpenses(t *testing.T) {
	router := setupRouter(newSourceStub(sampleProject(), nil, nil, sampleExpenses()))

	tests := []struct {
		name       string
		query      string
		wantPreset string
		wantCustom bool
		wantCount  int
		wantGroups int
	}{
		{"default preset", "", "uninvoiced", false, 2, 0},
		{"selected preset", "?preset=by-person", "by-person", false, 2, 2},
		{"custom filters", "?personId=bob", "all", true, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/1/expenses"+tt.query, nil))

			require.Equal(t, http.StatusOK, rr.Code)
			var dto ExpenseListDTO
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
			assert.Equal(t, tt.wantPreset, dto.Preset)
			assert.Equal(t, tt.wantCustom, dto.Custom)
			assert.Len(t, dto.Expenses, tt.wantCount)
			assert.Len(t, dto.Groups, tt.wantGroups)
		})
	}

	t.Run("should reject unknown preset", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects/1/expenses?preset=latest", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestParseExpenseQuery(t *testing.T) {
	t.Run("should keep origin custom when values equal a preset", func(t *testing.T) {
		// when
		state, err := ParseExpenseQuery(url.Values{"billed": {"false"}})

		// then
		require.NoError(t, err)
		assert.True(t, state.IsCustom())
		assert.Equal(t, preset.All, state.ActivePreset())
		assert.Equal(t, preset.Uninvoiced.Filter(), state.Filter)
	})

	t.Run("should parse every custom parameter", func(t *testing.T) {
		// when
		state, err := ParseExpenseQuery(url.Values{
			"unsubmitted":         {"true"},
			"hasReceipt":          {"false"},
			"minAmount":           {"50"},
			"reimbursementStatus": {"pending"},
			"startDate":           {"2024-03-01T10:00:00Z"},
			"endDate":             {"2024-03-31"},
		})

		// then
		require.NoError(t, err)
		assert.True(t, state.Filter.Unsubmitted)
		require.NotNil(t, state.Filter.HasReceipt)
		assert.False(t, *state.Filter.HasReceipt)
		require.NotNil(t, state.Filter.MinAmount)
		assertDecimal(t, "50", *state.Filter.MinAmount)
		assert.Equal(t, expense.ReimbursementPending, state.Filter.ReimbursementStatus)
		assert.Equal(t, "2024-03-01", state.Filter.StartDate)
		assert.Equal(t, "2024-03-31", state.Filter.EndDate)
	})

	t.Run("should reject malformed values", func(t *testing.T) {
		for _, q := range []url.Values{
			{"billed": {"maybe"}},
			{"minAmount": {"fifty"}},
			{"reimbursementStatus": {"lost"}},
			{"startDate": {"soon"}},
		} {
			_, err := ParseExpenseQuery(q)
			assert.ErrorIs(t, err, ErrInvalidQuery, "query %v", q)
		}
	})
}

func TestProjectAnalyticsToDTO(t *testing.T) {
	dto := ProjectAnalyticsToDTO(ProjectAnalytics{Project: project.Project{Id: 3}})

	assert.Equal(t, 3, dto.Project.Id)
	assert.NotNil(t, dto.MissingTimeThisMonth)
	assert.Nil(t, dto.BurnRate.ProjectedCompletion)
}

package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Projects
	r.HandleFunc("/api/projects", deps.ProjectHandler.List).Methods("GET")
	r.HandleFunc("/api/projects", deps.ProjectHandler.Create).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}", deps.ProjectHandler.Get).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}", deps.ProjectHandler.Update).Methods("PUT")

	// Contract amendments
	r.HandleFunc("/api/projects/{projectId}/amendments", deps.AmendmentHandler.List).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/amendments", deps.AmendmentHandler.Create).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}/amendments/{amendmentId}", deps.AmendmentHandler.Update).Methods("PUT")
	r.HandleFunc("/api/projects/{projectId}/amendments/{amendmentId}/submit", deps.AmendmentHandler.Submit).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}/amendments/{amendmentId}/approve", deps.AmendmentHandler.Approve).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}/amendments/{amendmentId}/reject", deps.AmendmentHandler.Reject).Methods("POST")

	// Time entries; the report route is registered before {entryId} so it is not taken for an id
	r.HandleFunc("/api/projects/{projectId}/time-entries/report", deps.AnalyticsHandler.GetTimeEntryReport).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/time-entries", deps.TimeEntryHandler.List).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/time-entries", deps.TimeEntryHandler.Create).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}/time-entries/{entryId}", deps.TimeEntryHandler.Update).Methods("PUT")
	r.HandleFunc("/api/projects/{projectId}/time-entries/{entryId}", deps.TimeEntryHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/projects/{projectId}/time-entries/{entryId}/lock", deps.TimeEntryHandler.Lock).Methods("POST")

	// Expenses
	r.HandleFunc("/api/projects/{projectId}/expenses", deps.AnalyticsHandler.ListExpenses).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/expenses", deps.ExpenseHandler.Create).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}/expenses/{expenseId}", deps.ExpenseHandler.Update).Methods("PUT")
	r.HandleFunc("/api/projects/{projectId}/expenses/{expenseId}", deps.ExpenseHandler.Delete).Methods("DELETE")

	// Analytics
	r.HandleFunc("/api/projects/{projectId}/analytics", deps.AnalyticsHandler.GetAnalytics).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/analytics/source", deps.AnalyticsHandler.GetSource).Methods("GET")
}

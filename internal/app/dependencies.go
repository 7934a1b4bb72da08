package app

import (
	"github.com/burnwise/burnwise/internal/config"
	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/internal/utils"
	"github.com/burnwise/burnwise/pkg/access"
	"github.com/burnwise/burnwise/pkg/amendment"
	"github.com/burnwise/burnwise/pkg/analytics"
	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/burnwise/burnwise/pkg/project"
	"github.com/burnwise/burnwise/pkg/timeentry"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus      *event_bus.EventBus
	Clock         utils.Clock
	AccessChecker access.Checker

	ProjectRepo    project.Repository
	ProjectService *project.ServiceImpl
	ProjectHandler *project.Handler

	AmendmentRepo    amendment.Repository
	AmendmentService *amendment.ServiceImpl
	AmendmentHandler *amendment.Handler

	TimeEntryRepo    timeentry.Repository
	TimeEntryService *timeentry.ServiceImpl
	TimeEntryHandler *timeentry.Handler

	ExpenseRepo    expense.Repository
	ExpenseService *expense.ServiceImpl
	ExpenseHandler *expense.Handler

	AnalyticsSource  analytics.Source
	AnalyticsService *analytics.ServiceImpl
	AnalyticsHandler *analytics.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}
	deps.AccessChecker = access.NewConfigChecker(cfg.Access)

	deps.ProjectRepo = project.NewRepository(db)
	deps.ProjectService = project.NewService(deps.ProjectRepo, deps.EventBus)
	deps.ProjectHandler = project.NewHandler(deps.ProjectService)

	deps.AmendmentRepo = amendment.NewRepository(db)
	deps.AmendmentService = amendment.NewService(deps.AmendmentRepo, deps.AccessChecker, deps.EventBus, deps.Clock)
	deps.AmendmentHandler = amendment.NewHandler(deps.AmendmentService)

	deps.TimeEntryRepo = timeentry.NewRepository(db)
	deps.TimeEntryService = timeentry.NewService(deps.TimeEntryRepo, deps.AccessChecker, deps.EventBus)
	deps.TimeEntryHandler = timeentry.NewHandler(deps.TimeEntryService)

	deps.ExpenseRepo = expense.NewRepository(db)
	deps.ExpenseService = expense.NewService(deps.ExpenseRepo, deps.EventBus)
	deps.ExpenseHandler = expense.NewHandler(deps.ExpenseService)

	deps.AnalyticsSource = analytics.NewRepositorySource(deps.ProjectRepo, deps.TimeEntryRepo, deps.AmendmentRepo, deps.ExpenseRepo)
	deps.AnalyticsService = analytics.NewService(deps.AnalyticsSource, deps.Clock, deps.EventBus)
	deps.AnalyticsHandler = analytics.NewHandler(deps.AnalyticsService)

	return deps
}

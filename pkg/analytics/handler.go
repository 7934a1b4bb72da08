package analytics

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/burnwise/burnwise/internal/rest"
	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/burnwise/burnwise/pkg/preset"
	"github.com/burnwise/burnwise/pkg/project"
	"github.com/burnwise/burnwise/pkg/timeentry"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidQuery = errors.New("invalid query")

type MonthlyMetricDTO struct {
	Month            string          `json:"month"`
	BillableHours    decimal.Decimal `json:"billableHours"`
	NonBillableHours decimal.Decimal `json:"nonBillableHours"`
	Revenue          decimal.Decimal `json:"revenue"`
	ExpenseAmount    decimal.Decimal `json:"expenseAmount"`
	Consumed         decimal.Decimal `json:"consumed"`
}

type PersonTotalDTO struct {
	PersonId      string          `json:"personId"`
	Hours         decimal.Decimal `json:"hours"`
	BillableHours decimal.Decimal `json:"billableHours"`
	Revenue       decimal.Decimal `json:"revenue"`
	ExpenseAmount decimal.Decimal `json:"expenseAmount"`
	LastEntryDate string          `json:"lastEntryDate,omitempty"`
}

type ProjectDataDTO struct {
	Project        project.ProjectDTO `json:"project"`
	Monthly        []MonthlyMetricDTO `json:"monthly"`
	ConsumedBudget decimal.Decimal    `json:"consumedBudget"`
	ActualHours    decimal.Decimal    `json:"actualHours"`
	People         []PersonTotalDTO   `json:"people"`
}

type BudgetSnapshotDTO struct {
	TotalBudget    decimal.Decimal `json:"totalBudget"`
	ApprovedCount  int             `json:"approvedCount"`
	AmendmentCount int             `json:"amendmentCount"`
}

type BurnRateDTO struct {
	TotalBudget         decimal.Decimal `json:"totalBudget"`
	ConsumedBudget      decimal.Decimal `json:"consumedBudget"`
	BurnRatePercentage  decimal.Decimal `json:"burnRatePercentage"`
	EstimatedHours      decimal.Decimal `json:"estimatedHours"`
	ActualHours         decimal.Decimal `json:"actualHours"`
	HoursVariance       decimal.Decimal `json:"hoursVariance"`
	ProjectedCompletion *string         `json:"projectedCompletion"`
}

type UnbilledExpensesDTO struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type ProjectAnalyticsDTO struct {
	Project              project.ProjectDTO  `json:"project"`
	Monthly              []MonthlyMetricDTO  `json:"monthly"`
	Budget               BudgetSnapshotDTO   `json:"budget"`
	BurnRate             BurnRateDTO         `json:"burnRate"`
	Health               string              `json:"health"`
	People               []PersonTotalDTO    `json:"people"`
	MissingTimeThisMonth []string            `json:"missingTimeThisMonth"`
	UnbilledExpenses     UnbilledExpensesDTO `json:"unbilledExpenses"`
}

type PersonGroupDTO struct {
	PersonId string               `json:"personId"`
	Total    decimal.Decimal      `json:"total"`
	Expenses []expense.ExpenseDTO `json:"expenses"`
}

type ExpenseListDTO struct {
	Preset        string               `json:"preset"`
	Custom        bool                 `json:"custom"`
	GroupByPerson bool                 `json:"groupByPerson"`
	Expenses      []expense.ExpenseDTO `json:"expenses"`
	Groups        []PersonGroupDTO     `json:"groups,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetAnalytics godoc
// @Summary Get budget, burn rate and people analytics of a project
// @Tags Analytics
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} ProjectAnalyticsDTO
// @Failure 404 {object} rest.ErrorResponse "Project not found"
// @Router /api/projects/{projectId}/analytics [get]
// @Security XUserId
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	projectId, ok := projectIdFromPath(w, r)
	if !ok {
		return
	}
	analytics, err := h.service.GetProjectAnalytics(r.Context(), projectId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ProjectAnalyticsToDTO(analytics))
}

// GetSource godoc
// @Summary Get the raw analytics bundle of a project
// @Tags Analytics
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} ProjectDataDTO
// @Router /api/projects/{projectId}/analytics/source [get]
// @Security XUserId
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	projectId, ok := projectIdFromPath(w, r)
	if !ok {
		return
	}
	data, err := h.service.GetSource(r.Context(), projectId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ProjectDataToDTO(data))
}

// GetTimeEntryReport godoc
// @Summary Filter and group time entries of a project
// @Tags Analytics
// @Produce json
// @Param projectId path int true "Project ID"
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Param personId query string false "Person ID or 'all'"
// @Param billable query string false "all, billable or non-billable"
// @Param groupBy query string false "none, month, workstream or stage"
// @Success 200 {object} timeentry.ReportDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid query"
// @Router /api/projects/{projectId}/time-entries/report [get]
// @Security XUserId
func (h *Handler) GetTimeEntryReport(w http.ResponseWriter, r *http.Request) {
	projectId, ok := projectIdFromPath(w, r)
	if !ok {
		return
	}
	criteria, dim, err := timeentry.ParseReportQuery(r.URL.Query())
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	log.Debugf("building time entry report for project %d grouped by %s", projectId, dim)
	report, err := h.service.GetTimeEntryReport(r.Context(), projectId, criteria, dim)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, timeentry.ReportToDTO(report))
}

// ListExpenses godoc
// @Summary List expenses of a project through a quick-filter preset or custom filters
// @Tags Analytics
// @Produce json
// @Param projectId path int true "Project ID"
// @Param preset query string false "all, uninvoiced, unsubmitted, missing-receipt-over-50, pending-reimbursement or by-person"
// @Success 200 {object} ExpenseListDTO
// @Failure 400 {object} rest.ErrorResponse "Unknown preset"
// @Router /api/projects/{projectId}/expenses [get]
// @Security XUserId
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	projectId, ok := projectIdFromPath(w, r)
	if !ok {
		return
	}
	state, err := ParseExpenseQuery(r.URL.Query())
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	expenses, groups, err := h.service.GetExpenses(r.Context(), projectId, state)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ExpenseListToDTO(state, expenses, groups))
}

var customFilterParams = []string{"billed", "unsubmitted", "hasReceipt", "minAmount", "reimbursementStatus", "personId", "startDate", "endDate"}

// ParseExpenseQuery resolves the filter state of an expense listing. A preset
// parameter selects that preset, any custom filter parameter submits custom
// filters, otherwise the default preset applies.
func ParseExpenseQuery(q url.Values) (preset.State, error) {
	if name := q.Get("preset"); name != "" {
		p, err := preset.Parse(name)
		if err != nil {
			return preset.State{}, err
		}
		return preset.Select(p), nil
	}

	custom := false
	for _, param := range customFilterParams {
		if q.Has(param) {
			custom = true
			break
		}
	}
	if !custom {
		return preset.DefaultState(), nil
	}

	var f expense.Filter
	var err error
	if f.Billed, err = optionalBool(q, "billed"); err != nil {
		return preset.State{}, err
	}
	if f.HasReceipt, err = optionalBool(q, "hasReceipt"); err != nil {
		return preset.State{}, err
	}
	if unsubmitted, err := optionalBool(q, "unsubmitted"); err != nil {
		return preset.State{}, err
	} else if unsubmitted != nil {
		f.Unsubmitted = *unsubmitted
	}
	if value := q.Get("minAmount"); value != "" {
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return preset.State{}, fmt.Errorf("%w: minAmount %q is not a number", ErrInvalidQuery, value)
		}
		f.MinAmount = &amount
	}
	if value := q.Get("reimbursementStatus"); value != "" {
		status, ok := expense.ParseReimbursementStatus(value)
		if !ok {
			return preset.State{}, fmt.Errorf("%w: unknown reimbursement status %q", ErrInvalidQuery, value)
		}
		f.ReimbursementStatus = status
	}
	f.PersonId = q.Get("personId")
	for name, target := range map[string]*string{"startDate": &f.StartDate, "endDate": &f.EndDate} {
		value := q.Get(name)
		if value == "" {
			continue
		}
		*target = timeentry.NormalizeDate(value)
		if *target == "" {
			return preset.State{}, fmt.Errorf("%w: %s %q is not a date", ErrInvalidQuery, name, value)
		}
	}
	return preset.DefaultState().SubmitCustom(f), nil
}

func optionalBool(q url.Values, name string) (*bool, error) {
	value := q.Get(name)
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a boolean", ErrInvalidQuery, name, value)
	}
	return &b, nil
}

func projectIdFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return 0, false
	}
	return projectId, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		rest.WriteError(w, http.StatusNotFound, "Project not found", "")
	default:
		log.Errorf("analytics request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func MonthlyMetricToDTO(m MonthlyMetric) MonthlyMetricDTO {
	return MonthlyMetricDTO{
		Month:            m.Month,
		BillableHours:    m.BillableHours,
		NonBillableHours: m.NonBillableHours,
		Revenue:          m.Revenue,
		ExpenseAmount:    m.ExpenseAmount,
		Consumed:         m.Consumed,
	}
}

func DTOToMonthlyMetric(dto MonthlyMetricDTO) MonthlyMetric {
	return MonthlyMetric{
		Month:            dto.Month,
		BillableHours:    dto.BillableHours,
		NonBillableHours: dto.NonBillableHours,
		Revenue:          dto.Revenue,
		ExpenseAmount:    dto.ExpenseAmount,
		Consumed:         dto.Consumed,
	}
}

func PersonTotalToDTO(p PersonTotal) PersonTotalDTO {
	return PersonTotalDTO{
		PersonId:      p.PersonId,
		Hours:         p.Hours,
		BillableHours: p.BillableHours,
		Revenue:       p.Revenue,
		ExpenseAmount: p.ExpenseAmount,
		LastEntryDate: p.LastEntryDate,
	}
}

func DTOToPersonTotal(dto PersonTotalDTO) PersonTotal {
	return PersonTotal{
		PersonId:      dto.PersonId,
		Hours:         dto.Hours,
		BillableHours: dto.BillableHours,
		Revenue:       dto.Revenue,
		ExpenseAmount: dto.ExpenseAmount,
		LastEntryDate: dto.LastEntryDate,
	}
}

func ProjectDataToDTO(d ProjectData) ProjectDataDTO {
	dto := ProjectDataDTO{
		Project:        project.ProjectToDTO(d.Project),
		Monthly:        make([]MonthlyMetricDTO, 0, len(d.Monthly)),
		ConsumedBudget: d.ConsumedBudget,
		ActualHours:    d.ActualHours,
		People:         make([]PersonTotalDTO, 0, len(d.People)),
	}
	for _, m := range d.Monthly {
		dto.Monthly = append(dto.Monthly, MonthlyMetricToDTO(m))
	}
	for _, p := range d.People {
		dto.People = append(dto.People, PersonTotalToDTO(p))
	}
	return dto
}

func DTOToProjectData(dto ProjectDataDTO) ProjectData {
	d := ProjectData{
		Project:        project.DTOToProject(dto.Project),
		Monthly:        make([]MonthlyMetric, 0, len(dto.Monthly)),
		ConsumedBudget: dto.ConsumedBudget,
		ActualHours:    dto.ActualHours,
		People:         make([]PersonTotal, 0, len(dto.People)),
	}
	for _, m := range dto.Monthly {
		d.Monthly = append(d.Monthly, DTOToMonthlyMetric(m))
	}
	for _, p := range dto.People {
		d.People = append(d.People, DTOToPersonTotal(p))
	}
	return d
}

func ProjectAnalyticsToDTO(a ProjectAnalytics) ProjectAnalyticsDTO {
	data := ProjectDataToDTO(ProjectData{Project: a.Project, Monthly: a.Monthly, People: a.People})
	burn := BurnRateDTO{
		TotalBudget:        a.BurnRate.TotalBudget,
		ConsumedBudget:     a.BurnRate.ConsumedBudget,
		BurnRatePercentage: a.BurnRate.BurnRatePercentage.Round(2),
		EstimatedHours:     a.BurnRate.EstimatedHours,
		ActualHours:        a.BurnRate.ActualHours,
		HoursVariance:      a.BurnRate.HoursVariance,
	}
	if a.BurnRate.ProjectedCompletion != nil {
		date := a.BurnRate.ProjectedCompletion.Format(timeentry.DateLayout)
		burn.ProjectedCompletion = &date
	}
	missing := a.MissingTimeThisMonth
	if missing == nil {
		missing = []string{}
	}
	return ProjectAnalyticsDTO{
		Project: data.Project,
		Monthly: data.Monthly,
		Budget: BudgetSnapshotDTO{
			TotalBudget:    a.Budget.TotalBudget,
			ApprovedCount:  a.Budget.ApprovedCount,
			AmendmentCount: a.Budget.AmendmentCount,
		},
		BurnRate:             burn,
		Health:               string(a.Health),
		People:               data.People,
		MissingTimeThisMonth: missing,
		UnbilledExpenses: UnbilledExpensesDTO{
			Count:  a.UnbilledExpenses.Count,
			Amount: a.UnbilledExpenses.Amount,
		},
	}
}

func ExpenseListToDTO(state preset.State, expenses []expense.Expense, groups []expense.PersonGroup) ExpenseListDTO {
	dto := ExpenseListDTO{
		Preset:        string(state.ActivePreset()),
		Custom:        state.IsCustom(),
		GroupByPerson: state.GroupByPerson,
		Expenses:      make([]expense.ExpenseDTO, 0, len(expenses)),
	}
	for _, e := range expenses {
		dto.Expenses = append(dto.Expenses, expense.ExpenseToDTO(e))
	}
	for _, g := range groups {
		group := PersonGroupDTO{PersonId: g.PersonId, Total: g.Total, Expenses: make([]expense.ExpenseDTO, 0, len(g.Expenses))}
		for _, e := range g.Expenses {
			group.Expenses = append(group.Expenses, expense.ExpenseToDTO(e))
		}
		dto.Groups = append(dto.Groups, group)
	}
	return dto
}

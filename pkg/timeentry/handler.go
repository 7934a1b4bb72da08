package timeentry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/burnwise/burnwise/internal/rest"
	"github.com/burnwise/burnwise/pkg/access"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type TimeEntryDTO struct {
	Id          int             `json:"id"`
	ProjectId   int             `json:"projectId"`
	PersonId    string          `json:"personId"`
	Date        string          `json:"date"`
	Hours       decimal.Decimal `json:"hours"`
	BillingRate decimal.Decimal `json:"billingRate"`
	CostRate    decimal.Decimal `json:"costRate"`
	IsBillable  bool            `json:"isBillable"`
	IsLocked    bool            `json:"isLocked"`
	Workstream  string          `json:"workstream,omitempty"`
	Stage       string          `json:"stage,omitempty"`
	Description string          `json:"description,omitempty"`
}

type SummaryDTO struct {
	TotalHours       decimal.Decimal `json:"totalHours"`
	BillableHours    decimal.Decimal `json:"billableHours"`
	NonBillableHours decimal.Decimal `json:"nonBillableHours"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
}

type DateRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type OverallSummaryDTO struct {
	SummaryDTO
	LockedCount   int           `json:"lockedCount"`
	UnlockedCount int           `json:"unlockedCount"`
	DateRange     *DateRangeDTO `json:"dateRange,omitempty"`
}

type GroupDTO struct {
	Name    string         `json:"name"`
	Entries []TimeEntryDTO `json:"entries"`
	Summary SummaryDTO     `json:"summary"`
}

type ReportDTO struct {
	Groups  []GroupDTO         `json:"groups"`
	Overall *OverallSummaryDTO `json:"overall"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List raw time entries of a project
// @Tags TimeEntry
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {array} TimeEntryDTO
// @Router /api/projects/{projectId}/time-entries [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return
	}
	entries, err := h.service.List(r.Context(), projectId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dtos := make([]TimeEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, TimeEntryToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Create godoc
// @Summary Log time on a project
// @Tags TimeEntry
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param entry body TimeEntryDTO true "Time entry"
// @Success 201 {object} TimeEntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/projects/{projectId}/time-entries [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating time entry")
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), entry)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, TimeEntryToDTO(created))
}

// Update godoc
// @Summary Update an unlocked time entry
// @Tags TimeEntry
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param entryId path int true "Time entry ID"
// @Param entry body TimeEntryDTO true "Time entry"
// @Success 200 {object} TimeEntryDTO
// @Failure 409 {object} rest.ErrorResponse "Time entry is locked"
// @Router /api/projects/{projectId}/time-entries/{entryId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	entryId, err := rest.PathInt(r, "entryId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid time entry id", err.Error())
		return
	}
	entry.Id = entryId
	updated, err := h.service.Update(r.Context(), entry)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TimeEntryToDTO(updated))
}

// Delete godoc
// @Summary Delete an unlocked time entry
// @Tags TimeEntry
// @Param projectId path int true "Project ID"
// @Param entryId path int true "Time entry ID"
// @Success 204 "No Content"
// @Failure 409 {object} rest.ErrorResponse "Time entry is locked"
// @Router /api/projects/{projectId}/time-entries/{entryId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	projectId, entryId, ok := pathIds(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), projectId, entryId); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Lock godoc
// @Summary Lock a time entry
// @Tags TimeEntry
// @Param projectId path int true "Project ID"
// @Param entryId path int true "Time entry ID"
// @Success 200 {object} TimeEntryDTO
// @Failure 403 {object} rest.ErrorResponse "Not allowed to manage project"
// @Router /api/projects/{projectId}/time-entries/{entryId}/lock [post]
// @Security XUserId
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	projectId, entryId, ok := pathIds(w, r)
	if !ok {
		return
	}
	locked, err := h.service.Lock(r.Context(), projectId, entryId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TimeEntryToDTO(locked))
}

// ParseReportQuery reads startDate, endDate, personId, billable and groupBy.
func ParseReportQuery(q url.Values) (FilterCriteria, GroupingDimension, error) {
	criteria := FilterCriteria{PersonId: q.Get("personId")}
	for name, target := range map[string]*string{"startDate": &criteria.StartDate, "endDate": &criteria.EndDate} {
		value := q.Get(name)
		if value == "" {
			continue
		}
		*target = NormalizeDate(value)
		if *target == "" {
			return FilterCriteria{}, "", fmt.Errorf("%w: %s %q is not a date", ErrInvalidCriteria, name, value)
		}
	}
	billable, err := ParseBillableFilter(q.Get("billable"))
	if err != nil {
		return FilterCriteria{}, "", err
	}
	criteria.Billable = billable
	dim, err := ParseGroupingDimension(q.Get("groupBy"))
	if err != nil {
		return FilterCriteria{}, "", err
	}
	return criteria, dim, nil
}

func pathIds(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return 0, 0, false
	}
	entryId, err := rest.PathInt(r, "entryId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid time entry id", err.Error())
		return 0, 0, false
	}
	return projectId, entryId, true
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (TimeEntry, bool) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return TimeEntry{}, false
	}
	var dto TimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return TimeEntry{}, false
	}
	dto.ProjectId = projectId
	entry, err := DTOToTimeEntry(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid time entry", err.Error())
		return TimeEntry{}, false
	}
	return entry, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTimeEntryNotFound):
		rest.WriteError(w, http.StatusNotFound, "Time entry not found", "")
	case errors.Is(err, ErrTimeEntryLocked):
		rest.WriteError(w, http.StatusConflict, "Time entry is locked", "")
	case errors.Is(err, ErrInvalidTimeEntry), errors.Is(err, ErrInvalidCriteria):
		rest.WriteError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, access.ErrForbidden):
		rest.WriteError(w, http.StatusForbidden, "Not allowed to manage this project", "")
	default:
		log.Errorf("time entry request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func TimeEntryToDTO(e TimeEntry) TimeEntryDTO {
	return TimeEntryDTO{
		Id:          e.Id,
		ProjectId:   e.ProjectId,
		PersonId:    e.PersonId,
		Date:        e.DateKey(),
		Hours:       e.Hours,
		BillingRate: e.BillingRate,
		CostRate:    e.CostRate,
		IsBillable:  e.IsBillable,
		IsLocked:    e.IsLocked,
		Workstream:  e.Workstream,
		Stage:       e.Stage,
		Description: e.Description,
	}
}

func DTOToTimeEntry(dto TimeEntryDTO) (TimeEntry, error) {
	date, ok := ParseDate(dto.Date)
	if !ok {
		return TimeEntry{}, fmt.Errorf("%w: date %q is not a date", ErrInvalidTimeEntry, dto.Date)
	}
	return TimeEntry{
		Id:          dto.Id,
		ProjectId:   dto.ProjectId,
		PersonId:    dto.PersonId,
		Date:        date,
		Hours:       dto.Hours,
		BillingRate: dto.BillingRate,
		CostRate:    dto.CostRate,
		IsBillable:  dto.IsBillable,
		IsLocked:    dto.IsLocked,
		Workstream:  dto.Workstream,
		Stage:       dto.Stage,
		Description: dto.Description,
	}, nil
}

func SummaryToDTO(s Summary) SummaryDTO {
	return SummaryDTO{
		TotalHours:       s.TotalHours,
		BillableHours:    s.BillableHours,
		NonBillableHours: s.NonBillableHours,
		TotalRevenue:     s.TotalRevenue,
	}
}

func ReportToDTO(report Report) ReportDTO {
	dto := ReportDTO{Groups: make([]GroupDTO, 0, len(report.Groups))}
	for _, g := range report.Groups {
		entries := make([]TimeEntryDTO, 0, len(g.Entries))
		for _, e := range g.Entries {
			entries = append(entries, TimeEntryToDTO(e))
		}
		dto.Groups = append(dto.Groups, GroupDTO{Name: g.Name, Entries: entries, Summary: SummaryToDTO(g.Summary)})
	}
	if report.Overall != nil {
		overall := &OverallSummaryDTO{
			SummaryDTO:    SummaryToDTO(report.Overall.Summary),
			LockedCount:   report.Overall.LockedCount,
			UnlockedCount: report.Overall.UnlockedCount,
		}
		if report.Overall.DateRange != nil {
			overall.DateRange = &DateRangeDTO{Start: report.Overall.DateRange.Start, End: report.Overall.DateRange.End}
		}
		dto.Overall = overall
	}
	return dto
}

package expense

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/burnwise/burnwise/internal/rest"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ExpenseDTO struct {
	Id                  int             `json:"id"`
	ProjectId           int             `json:"projectId"`
	Date                string          `json:"date"`
	Amount              decimal.Decimal `json:"amount"`
	Category            string          `json:"category,omitempty"`
	Description         string          `json:"description,omitempty"`
	IsBillable          bool            `json:"isBillable"`
	Billed              bool            `json:"billed"`
	ExpenseReportId     *int            `json:"expenseReportId"`
	HasReceipt          bool            `json:"hasReceipt"`
	ReimbursementStatus string          `json:"reimbursementStatus"`
	AssignedResourceId  string          `json:"assignedResourceId,omitempty"`
	AuthorId            string          `json:"authorId"`
	IncurredBy          string          `json:"incurredBy"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary Record an expense
// @Tags Expense
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param expense body ExpenseDTO true "Expense"
// @Success 201 {object} ExpenseDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/projects/{projectId}/expenses [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating expense")
	e, ok := decodeExpense(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), e)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ExpenseToDTO(created))
}

// Update godoc
// @Summary Update an expense
// @Tags Expense
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param expenseId path int true "Expense ID"
// @Param expense body ExpenseDTO true "Expense"
// @Success 200 {object} ExpenseDTO
// @Failure 404 {object} rest.ErrorResponse "Expense not found"
// @Router /api/projects/{projectId}/expenses/{expenseId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	e, ok := decodeExpense(w, r)
	if !ok {
		return
	}
	expenseId, err := rest.PathInt(r, "expenseId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense id", err.Error())
		return
	}
	e.Id = expenseId
	updated, err := h.service.Update(r.Context(), e)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ExpenseToDTO(updated))
}

// Delete godoc
// @Summary Delete an expense
// @Tags Expense
// @Param projectId path int true "Project ID"
// @Param expenseId path int true "Expense ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Expense not found"
// @Router /api/projects/{projectId}/expenses/{expenseId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return
	}
	expenseId, err := rest.PathInt(r, "expenseId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense id", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), projectId, expenseId); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeExpense(w http.ResponseWriter, r *http.Request) (Expense, bool) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return Expense{}, false
	}
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return Expense{}, false
	}
	dto.ProjectId = projectId
	e, err := DTOToExpense(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense", err.Error())
		return Expense{}, false
	}
	return e, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrExpenseNotFound):
		rest.WriteError(w, http.StatusNotFound, "Expense not found", "")
	case errors.Is(err, ErrInvalidExpense):
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense", err.Error())
	default:
		log.Errorf("expense request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func ExpenseToDTO(e Expense) ExpenseDTO {
	return ExpenseDTO{
		Id:                  e.Id,
		ProjectId:           e.ProjectId,
		Date:                e.DateKey(),
		Amount:              e.Amount,
		Category:            e.Category,
		Description:         e.Description,
		IsBillable:          e.IsBillable,
		Billed:              e.Billed,
		ExpenseReportId:     e.ExpenseReportId,
		HasReceipt:          e.HasReceipt,
		ReimbursementStatus: string(e.ReimbursementStatus),
		AssignedResourceId:  e.AssignedResourceId,
		AuthorId:            e.AuthorId,
		IncurredBy:          IncurringPerson(e),
	}
}

func DTOToExpense(dto ExpenseDTO) (Expense, error) {
	date, err := time.Parse(DateLayout, dto.Date)
	if err != nil {
		return Expense{}, fmt.Errorf("%w: date %q is not a date", ErrInvalidExpense, dto.Date)
	}
	return Expense{
		Id:                  dto.Id,
		ProjectId:           dto.ProjectId,
		Date:                date,
		Amount:              dto.Amount,
		Category:            dto.Category,
		Description:         dto.Description,
		IsBillable:          dto.IsBillable,
		Billed:              dto.Billed,
		ExpenseReportId:     dto.ExpenseReportId,
		HasReceipt:          dto.HasReceipt,
		ReimbursementStatus: ReimbursementStatus(dto.ReimbursementStatus),
		AssignedResourceId:  dto.AssignedResourceId,
		AuthorId:            dto.AuthorId,
	}, nil
}

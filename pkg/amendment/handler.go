package amendment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/burnwise/burnwise/internal/rest"
	"github.com/burnwise/burnwise/pkg/access"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type AmendmentDTO struct {
	Id            int             `json:"id"`
	ProjectId     int             `json:"projectId"`
	Reference     string          `json:"reference,omitempty"`
	Title         string          `json:"title"`
	Type          string          `json:"type"`
	Value         decimal.Decimal `json:"value"`
	Status        string          `json:"status,omitempty"`
	EffectiveDate string          `json:"effectiveDate,omitempty"`
	ApprovedAt    *time.Time      `json:"approvedAt,omitempty"`
	ApprovedBy    string          `json:"approvedBy,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List contract amendments of a project
// @Tags Amendment
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {array} AmendmentDTO
// @Router /api/projects/{projectId}/amendments [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return
	}
	amendments, err := h.service.List(r.Context(), projectId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dtos := make([]AmendmentDTO, 0, len(amendments))
	for _, a := range amendments {
		dtos = append(dtos, AmendmentToDTO(a))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Create godoc
// @Summary Create a draft contract amendment
// @Tags Amendment
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param amendment body AmendmentDTO true "Amendment"
// @Success 201 {object} AmendmentDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/projects/{projectId}/amendments [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating amendment")
	a, ok := decodeAmendment(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), a)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, AmendmentToDTO(created))
}

// Update godoc
// @Summary Update a draft or pending amendment
// @Tags Amendment
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param amendmentId path int true "Amendment ID"
// @Param amendment body AmendmentDTO true "Amendment"
// @Success 200 {object} AmendmentDTO
// @Failure 409 {object} rest.ErrorResponse "Amendment no longer editable"
// @Router /api/projects/{projectId}/amendments/{amendmentId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := decodeAmendment(w, r)
	if !ok {
		return
	}
	id, err := rest.PathInt(r, "amendmentId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid amendment id", err.Error())
		return
	}
	a.Id = id
	updated, err := h.service.Update(r.Context(), a)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, AmendmentToDTO(updated))
}

// Submit godoc
// @Summary Submit a draft amendment for approval
// @Tags Amendment
// @Param projectId path int true "Project ID"
// @Param amendmentId path int true "Amendment ID"
// @Success 200 {object} AmendmentDTO
// @Router /api/projects/{projectId}/amendments/{amendmentId}/submit [post]
// @Security XUserId
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Submit)
}

// Approve godoc
// @Summary Approve an amendment and update the project budget
// @Tags Amendment
// @Param projectId path int true "Project ID"
// @Param amendmentId path int true "Amendment ID"
// @Success 200 {object} AmendmentDTO
// @Failure 403 {object} rest.ErrorResponse "Not allowed to manage project"
// @Router /api/projects/{projectId}/amendments/{amendmentId}/approve [post]
// @Security XUserId
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

// Reject godoc
// @Summary Reject an amendment
// @Tags Amendment
// @Param projectId path int true "Project ID"
// @Param amendmentId path int true "Amendment ID"
// @Success 200 {object} AmendmentDTO
// @Failure 403 {object} rest.ErrorResponse "Not allowed to manage project"
// @Router /api/projects/{projectId}/amendments/{amendmentId}/reject [post]
// @Security XUserId
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

type transitionFunc func(ctx context.Context, projectId, id int) (ContractAmendment, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return
	}
	id, err := rest.PathInt(r, "amendmentId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid amendment id", err.Error())
		return
	}
	a, err := fn(r.Context(), projectId, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, AmendmentToDTO(a))
}

func decodeAmendment(w http.ResponseWriter, r *http.Request) (ContractAmendment, bool) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return ContractAmendment{}, false
	}
	var dto AmendmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return ContractAmendment{}, false
	}
	dto.ProjectId = projectId
	a, err := DTOToAmendment(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid amendment", err.Error())
		return ContractAmendment{}, false
	}
	return a, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAmendmentNotFound):
		rest.WriteError(w, http.StatusNotFound, "Amendment not found", "")
	case errors.Is(err, ErrAmendmentNotEditable):
		rest.WriteError(w, http.StatusConflict, "Amendment is no longer editable", err.Error())
	case errors.Is(err, ErrInvalidAmendment):
		rest.WriteError(w, http.StatusBadRequest, "Invalid amendment", err.Error())
	case errors.Is(err, access.ErrForbidden):
		rest.WriteError(w, http.StatusForbidden, "Not allowed to manage this project", "")
	default:
		log.Errorf("amendment request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func AmendmentToDTO(a ContractAmendment) AmendmentDTO {
	dto := AmendmentDTO{
		Id:         a.Id,
		ProjectId:  a.ProjectId,
		Title:      a.Title,
		Type:       string(a.Type),
		Value:      a.Value,
		Status:     string(a.Status),
		ApprovedAt: a.ApprovedAt,
		ApprovedBy: a.ApprovedBy,
	}
	if a.Reference != uuid.Nil {
		dto.Reference = a.Reference.String()
	}
	if a.EffectiveDate != nil {
		dto.EffectiveDate = a.EffectiveDate.Format(dateLayout)
	}
	return dto
}

func DTOToAmendment(dto AmendmentDTO) (ContractAmendment, error) {
	a := ContractAmendment{
		Id:        dto.Id,
		ProjectId: dto.ProjectId,
		Title:     dto.Title,
		Type:      Type(dto.Type),
		Value:     dto.Value,
	}
	if dto.EffectiveDate != "" {
		date, err := time.Parse(dateLayout, dto.EffectiveDate)
		if err != nil {
			return ContractAmendment{}, err
		}
		a.EffectiveDate = &date
	}
	return a, nil
}

package project

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/burnwise/burnwise/internal/rest"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ProjectDTO struct {
	Id             int             `json:"id"`
	Name           string          `json:"name"`
	Client         string          `json:"client,omitempty"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	TotalBudget    decimal.Decimal `json:"totalBudget"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List projects
// @Tags Project
// @Produce json
// @Success 200 {array} ProjectDTO
// @Router /api/projects [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing projects")
	projects, err := h.service.List(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to list projects", err.Error())
		return
	}
	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, ProjectToDTO(p))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Get godoc
// @Summary Get project
// @Tags Project
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} ProjectDTO
// @Failure 404 {object} rest.ErrorResponse "Project not found"
// @Router /api/projects/{projectId} [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return
	}
	p, err := h.service.Get(r.Context(), projectId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ProjectToDTO(p))
}

// Create godoc
// @Summary Create project
// @Tags Project
// @Accept json
// @Produce json
// @Param project body ProjectDTO true "Project"
// @Success 201 {object} ProjectDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/projects [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating project")
	var dto ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), DTOToProject(dto))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ProjectToDTO(created))
}

// Update godoc
// @Summary Update project
// @Tags Project
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param project body ProjectDTO true "Project"
// @Success 200 {object} ProjectDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Project not found"
// @Router /api/projects/{projectId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	projectId, err := rest.PathInt(r, "projectId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid project id", err.Error())
		return
	}
	var dto ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	dto.Id = projectId
	updated, err := h.service.Update(r.Context(), DTOToProject(dto))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ProjectToDTO(updated))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		rest.WriteError(w, http.StatusNotFound, "Project not found", "")
	case errors.Is(err, ErrInvalidProject):
		rest.WriteError(w, http.StatusBadRequest, "Invalid project", err.Error())
	default:
		log.Errorf("project request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func ProjectToDTO(p Project) ProjectDTO {
	return ProjectDTO{
		Id:             p.Id,
		Name:           p.Name,
		Client:         p.Client,
		EstimatedHours: p.EstimatedHours,
		TotalBudget:    p.TotalBudget,
	}
}

func DTOToProject(dto ProjectDTO) Project {
	return Project{
		Id:             dto.Id,
		Name:           dto.Name,
		Client:         dto.Client,
		EstimatedHours: dto.EstimatedHours,
		TotalBudget:    dto.TotalBudget,
	}
}

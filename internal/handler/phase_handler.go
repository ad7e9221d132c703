package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dassyor/internal/model"
	"dassyor/internal/service/phase"
	"dassyor/internal/service/project"
)

type PhaseHandler struct {
	phases   *phase.Service
	projects *project.Service
}

func NewPhaseHandler(phases *phase.Service, projects *project.Service) *PhaseHandler {
	return &PhaseHandler{phases: phases, projects: projects}
}

func respondPhaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, phase.ErrPhaseNotFound):
		c.JSON(http.StatusNotFound, model.Failure("phase not found"))
	case errors.Is(err, phase.ErrInvalidTransition):
		c.JSON(http.StatusConflict, model.Failure("invalid phase transition"))
	case errors.Is(err, phase.ErrNoCurrentPhase):
		c.JSON(http.StatusNotFound, model.Failure("no phase in progress"))
	case errors.Is(err, phase.ErrEmptyCatalog):
		c.JSON(http.StatusConflict, model.Failure("phase catalog is empty"))
	default:
		c.JSON(http.StatusInternalServerError, model.Failure("request failed"))
	}
}

// authorizeProject gates every project-scoped phase route. Denials look
// identical to a missing project.
func (h *PhaseHandler) authorizeProject(c *gin.Context) (uuid.UUID, bool) {
	id, ok := parseProjectID(c)
	if !ok {
		return uuid.Nil, false
	}

	if _, err := h.projects.Authorize(c.Request.Context(), id, callerID(c), callerRole(c)); err != nil {
		respondProjectError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

func parsePhaseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("phaseId"))
	if err != nil {
		c.JSON(http.StatusNotFound, model.Failure("phase not found"))
		return uuid.Nil, false
	}
	return id, true
}

// Seed populates the phase catalog with the default template. Admin only.
func (h *PhaseHandler) Seed(c *gin.Context) {
	phases, err := h.phases.SeedDefaultPhases(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Failure("could not seed phases"))
		return
	}
	c.JSON(http.StatusOK, model.Success("phase catalog ready", phases))
}

func (h *PhaseHandler) ListCatalog(c *gin.Context) {
	phases, err := h.phases.ListCatalog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Failure("could not list phases"))
		return
	}
	c.JSON(http.StatusOK, model.Success("phases", phases))
}

func (h *PhaseHandler) GetProjectPhases(c *gin.Context) {
	projectID, ok := h.authorizeProject(c)
	if !ok {
		return
	}

	list, err := h.phases.GetProjectPhases(c.Request.Context(), projectID)
	if err != nil {
		respondPhaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("project phases", list))
}

func (h *PhaseHandler) GetCurrent(c *gin.Context) {
	projectID, ok := h.authorizeProject(c)
	if !ok {
		return
	}

	current, err := h.phases.GetCurrentPhase(c.Request.Context(), projectID)
	if err != nil {
		respondPhaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("current phase", current))
}

func (h *PhaseHandler) Start(c *gin.Context) {
	projectID, ok := h.authorizeProject(c)
	if !ok {
		return
	}
	phaseID, ok := parsePhaseID(c)
	if !ok {
		return
	}

	p, err := h.phases.StartPhase(c.Request.Context(), projectID, phaseID)
	if err != nil {
		respondPhaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("phase started", p))
}

func (h *PhaseHandler) Complete(c *gin.Context) {
	projectID, ok := h.authorizeProject(c)
	if !ok {
		return
	}
	phaseID, ok := parsePhaseID(c)
	if !ok {
		return
	}

	p, err := h.phases.CompletePhase(c.Request.Context(), projectID, phaseID)
	if err != nil {
		respondPhaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("phase completed", p))
}

func (h *PhaseHandler) UpdateData(c *gin.Context) {
	projectID, ok := h.authorizeProject(c)
	if !ok {
		return
	}
	phaseID, ok := parsePhaseID(c)
	if !ok {
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	p, err := h.phases.UpdatePhaseData(c.Request.Context(), projectID, phaseID, patch)
	if err != nil {
		respondPhaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("phase data updated", p))
}

func (h *PhaseHandler) MoveNext(c *gin.Context) {
	projectID, ok := h.authorizeProject(c)
	if !ok {
		return
	}

	next, err := h.phases.MoveToNextPhase(c.Request.Context(), projectID)
	if errors.Is(err, phase.ErrNoNextPhase) {
		// The final phase stays in progress; this is not a failure.
		c.JSON(http.StatusOK, model.Success("no next phase available", nil))
		return
	}
	if err != nil {
		respondPhaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("moved to next phase", next))
}

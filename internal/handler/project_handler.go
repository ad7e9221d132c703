package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dassyor/internal/model"
	"dassyor/internal/service/project"
)

type ProjectHandler struct {
	projects *project.Service
}

func NewProjectHandler(projects *project.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// respondProjectError maps service failures onto the uniform envelope.
// Access denials and missing projects share one body.
func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, model.Failure("project not found"))
	case errors.Is(err, project.ErrAlreadyCollaborator):
		c.JSON(http.StatusConflict, model.Failure("user is already a collaborator"))
	case errors.Is(err, project.ErrNotCollaborator):
		c.JSON(http.StatusNotFound, model.Failure("collaborator not found"))
	case errors.Is(err, project.ErrInvitationNotFound):
		c.JSON(http.StatusNotFound, model.Failure("invitation not found"))
	case errors.Is(err, project.ErrInvitationExpired):
		c.JSON(http.StatusGone, model.Failure("invitation expired"))
	case errors.Is(err, project.ErrInvitationNotPending):
		c.JSON(http.StatusConflict, model.Failure("invitation already settled"))
	default:
		c.JSON(http.StatusInternalServerError, model.Failure("request failed"))
	}
}

func parseProjectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusNotFound, model.Failure("project not found"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req model.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	p, err := h.projects.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Failure("could not create project"))
		return
	}

	c.JSON(http.StatusCreated, model.Success("project created", p))
}

func (h *ProjectHandler) List(c *gin.Context) {
	list, err := h.projects.List(c.Request.Context(), callerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Failure("could not list projects"))
		return
	}
	c.JSON(http.StatusOK, model.Success("projects", list))
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	p, err := h.projects.Get(c.Request.Context(), id, callerID(c), callerRole(c))
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("project", p))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req model.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	p, err := h.projects.Update(c.Request.Context(), id, callerID(c), callerRole(c), req)
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("project updated", p))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), id, callerID(c), callerRole(c)); err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("project deleted", nil))
}

func (h *ProjectHandler) AddCollaborator(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req model.AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	err := h.projects.AddCollaborator(c.Request.Context(), id, callerID(c), callerRole(c), req.UserID)
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("collaborator added", nil))
}

func (h *ProjectHandler) RemoveCollaborator(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusNotFound, model.Failure("collaborator not found"))
		return
	}

	err = h.projects.RemoveCollaborator(c.Request.Context(), id, callerID(c), callerRole(c), userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("collaborator removed", nil))
}

func (h *ProjectHandler) Invite(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req model.InviteCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	inv, err := h.projects.Invite(c.Request.Context(), id, callerID(c), callerRole(c), req.Email)
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.Success("invitation sent", inv))
}

type invitationTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *ProjectHandler) AcceptInvitation(c *gin.Context) {
	var req invitationTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	if err := h.projects.AcceptInvitation(c.Request.Context(), req.Token); err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("invitation accepted", nil))
}

func (h *ProjectHandler) RejectInvitation(c *gin.Context) {
	var req invitationTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Failure("validation failed", err.Error()))
		return
	}

	if err := h.projects.RejectInvitation(c.Request.Context(), req.Token); err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Success("invitation rejected", nil))
}

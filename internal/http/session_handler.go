package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"planning-poker/internal/domain"
	"planning-poker/internal/service"
)

// SessionHandler mantiene dependencias para endpoints de sesiones e issues.
type SessionHandler struct {
	logger     *zap.Logger
	sessionSvc *service.SessionService
}

// NewSessionHandler crea una instancia de SessionHandler con dependencias necesarias.
func NewSessionHandler(logger *zap.Logger, sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{
		logger:     logger,
		sessionSvc: sessionSvc,
	}
}

// CreateSession maneja POST /sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		ProjectKey  string   `json:"project_key"`
		CreatedBy   string   `json:"created_by"`
		Estimators  []string `json:"estimators"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	detail, err := h.sessionSvc.CreateSession(c.Request.Context(), service.CreateSessionInput{
		Name:        req.Name,
		Description: req.Description,
		ProjectKey:  req.ProjectKey,
		CreatedBy:   actingUser(c, req.CreatedBy),
		Estimators:  req.Estimators,
	})
	if err != nil {
		writeServiceError(c, h.logger, "create session", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": detail})
}

// ListSessions maneja GET /sessions.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessionSvc.ListSessions(
		c.Request.Context(),
		domain.SessionStatus(c.Query("status")),
		queryInt(c, "limit"),
		queryInt(c, "skip"),
	)
	if err != nil {
		writeServiceError(c, h.logger, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession maneja GET /sessions/:id.
func (h *SessionHandler) GetSession(c *gin.Context) {
	detail, err := h.sessionSvc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, "get session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": detail})
}

// UpdateSession maneja PUT /sessions/:id. Con JWT solo el creador puede editar.
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		ProjectKey  *string `json:"project_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	detail, err := h.sessionSvc.UpdateSession(c.Request.Context(), c.Param("id"), service.UpdateSessionInput{
		ActorID:     actingUser(c, ""),
		Name:        req.Name,
		Description: req.Description,
		ProjectKey:  req.ProjectKey,
	})
	if err != nil {
		writeServiceError(c, h.logger, "update session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": detail})
}

// UpdateStatus maneja PATCH /sessions/:id/status.
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update status request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	detail, err := h.sessionSvc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.SessionStatus(req.Status))
	if err != nil {
		writeServiceError(c, h.logger, "update session status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": detail})
}

// SetEstimators maneja PUT /sessions/:id/estimators.
func (h *SessionHandler) SetEstimators(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid set estimators request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	detail, err := h.sessionSvc.SetEstimators(c.Request.Context(), c.Param("id"), req.UserIDs)
	if err != nil {
		writeServiceError(c, h.logger, "set estimators", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": detail})
}

// AddParticipant maneja POST /sessions/:id/participants.
func (h *SessionHandler) AddParticipant(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid add participant request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	detail, err := h.sessionSvc.AddParticipant(c.Request.Context(), c.Param("id"), actingUser(c, req.UserID))
	if err != nil {
		writeServiceError(c, h.logger, "add participant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": detail})
}

// RemoveParticipant maneja DELETE /sessions/:id/participants/:user_id.
func (h *SessionHandler) RemoveParticipant(c *gin.Context) {
	detail, err := h.sessionSvc.RemoveParticipant(c.Request.Context(), c.Param("id"), c.Param("user_id"))
	if err != nil {
		writeServiceError(c, h.logger, "remove participant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": detail})
}

// AddIssue maneja POST /sessions/:id/issues.
func (h *SessionHandler) AddIssue(c *gin.Context) {
	var req struct {
		ExternalKey       string `json:"external_key" binding:"required"`
		ExternalURL       string `json:"external_url"`
		Title             string `json:"title" binding:"required"`
		Description       string `json:"description"`
		StoryPointsBefore *int   `json:"story_points_before"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid add issue request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	issue, err := h.sessionSvc.AddIssue(c.Request.Context(), service.AddIssueInput{
		SessionID:         c.Param("id"),
		ExternalKey:       req.ExternalKey,
		ExternalURL:       req.ExternalURL,
		Title:             req.Title,
		Description:       req.Description,
		StoryPointsBefore: req.StoryPointsBefore,
	})
	if err != nil {
		writeServiceError(c, h.logger, "add issue", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"issue": issue})
}

// ListIssues maneja GET /sessions/:id/issues.
func (h *SessionHandler) ListIssues(c *gin.Context) {
	issues, err := h.sessionSvc.ListIssues(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, "list issues", err)
		return
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

// GetIssue maneja GET /issues/:id.
func (h *SessionHandler) GetIssue(c *gin.Context) {
	issue, err := h.sessionSvc.GetIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, "get issue", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// DeleteIssue maneja DELETE /issues/:id.
func (h *SessionHandler) DeleteIssue(c *gin.Context) {
	if err := h.sessionSvc.DeleteIssue(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, h.logger, "delete issue", err)
		return
	}
	c.Status(http.StatusNoContent)
}

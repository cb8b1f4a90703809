package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"planning-poker/internal/domain"
	"planning-poker/internal/repository"
	"planning-poker/internal/service"
)

// EstimateHandler expone la admision de votos y los resumenes de consenso.
type EstimateHandler struct {
	logger        *zap.Logger
	estimationSvc *service.EstimationService
}

// NewEstimateHandler crea una instancia de EstimateHandler con dependencias necesarias.
func NewEstimateHandler(logger *zap.Logger, estimationSvc *service.EstimationService) *EstimateHandler {
	return &EstimateHandler{
		logger:        logger,
		estimationSvc: estimationSvc,
	}
}

// SubmitEstimate maneja POST /estimates.
func (h *EstimateHandler) SubmitEstimate(c *gin.Context) {
	var req struct {
		SessionID string          `json:"session_id" binding:"required"`
		IssueID   string          `json:"issue_id" binding:"required"`
		UserID    string          `json:"user_id"`
		Estimate  domain.Estimate `json:"estimate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit estimate request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.estimationSvc.SubmitEstimate(c.Request.Context(), service.SubmitEstimateInput{
		SessionID: req.SessionID,
		IssueID:   req.IssueID,
		UserID:    actingUser(c, req.UserID),
		Estimate:  req.Estimate,
	})
	if err != nil {
		writeServiceError(c, h.logger, "submit estimate", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ListEstimates maneja GET /estimates.
func (h *EstimateHandler) ListEstimates(c *gin.Context) {
	votes, err := h.estimationSvc.ListEstimates(c.Request.Context(), estimateFilterFromQuery(c))
	if err != nil {
		writeServiceError(c, h.logger, "list estimates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"estimates": nonNilVotes(votes)})
}

// History maneja GET /estimates/history.
func (h *EstimateHandler) History(c *gin.Context) {
	votes, err := h.estimationSvc.History(c.Request.Context(), estimateFilterFromQuery(c))
	if err != nil {
		writeServiceError(c, h.logger, "load estimate history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"estimates": nonNilVotes(votes)})
}

// Summary maneja GET /estimates/summary/:issue_id.
func (h *EstimateHandler) Summary(c *gin.Context) {
	summary, err := h.estimationSvc.Summary(c.Request.Context(), c.Param("issue_id"))
	if err != nil {
		writeServiceError(c, h.logger, "load estimate summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Verdict maneja GET /issues/:id/verdict.
func (h *EstimateHandler) Verdict(c *gin.Context) {
	verdict, err := h.estimationSvc.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, "evaluate issue", err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func estimateFilterFromQuery(c *gin.Context) repository.EstimateFilter {
	return repository.EstimateFilter{
		SessionID: c.Query("session_id"),
		IssueID:   c.Query("issue_id"),
		UserID:    c.Query("user_id"),
		Limit:     queryInt(c, "limit"),
		Offset:    queryInt(c, "skip"),
	}
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func nonNilVotes(votes []domain.Vote) []domain.Vote {
	if votes == nil {
		return []domain.Vote{}
	}
	return votes
}

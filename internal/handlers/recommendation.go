package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/services"
	"github.com/looplearn/looplearn-backend/internal/types"
)

type RecommendationHandler struct {
	log        *logger.Logger
	recService services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recService services.RecommendationService) *RecommendationHandler {
	handlerLog := log.With("handler", "RecommendationHandler")
	return &RecommendationHandler{log: handlerLog, recService: recService}
}

// Generate handles POST /api/ai/recommend.
func (h *RecommendationHandler) Generate(c *gin.Context) {
	rd, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}

	var input struct {
		Type  string `json:"type"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if input.Type == "" {
		input.Type = types.RecTypeMixed
	}
	if input.Limit == 0 {
		input.Limit = 10
	}

	recs, err := h.recService.Generate(c.Request.Context(), rd.UserID, input.Type, input.Limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "recommend_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs, "count": len(recs)})
}

// Feedback handles PUT /api/ai/recommend.
func (h *RecommendationHandler) Feedback(c *gin.Context) {
	rd, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}

	var input services.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	feedback, err := h.recService.RecordFeedback(c.Request.Context(), rd.UserID, input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "feedback_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true, "feedback": feedback})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/services"
)

type InterestsHandler struct {
	log             *logger.Logger
	interestService services.InterestService
}

func NewInterestsHandler(log *logger.Logger, interestService services.InterestService) *InterestsHandler {
	handlerLog := log.With("handler", "InterestsHandler")
	return &InterestsHandler{log: handlerLog, interestService: interestService}
}

func (h *InterestsHandler) Get(c *gin.Context) {
	rd, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}
	interests, err := h.interestService.GetUserInterests(c.Request.Context(), rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "not_analyzed", fmt.Errorf("interests not analyzed yet"))
			return
		}
		RespondError(c, http.StatusInternalServerError, "interests_failed", err)
		return
	}
	RespondOK(c, gin.H{"interests": interests})
}

func (h *InterestsHandler) Refresh(c *gin.Context) {
	rd, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}
	interests, err := h.interestService.AnalyzeUserInterests(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "interests_failed", err)
		return
	}
	RespondOK(c, gin.H{"interests": interests})
}

func (h *InterestsHandler) Segment(c *gin.Context) {
	rd, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}
	segment, err := h.interestService.AnalyzeUserSegment(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "segment_failed", err)
		return
	}
	RespondOK(c, gin.H{"segment": segment})
}

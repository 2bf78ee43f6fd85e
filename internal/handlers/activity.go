package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/services"
	"github.com/looplearn/looplearn-backend/internal/types"
)

type ActivityHandler struct {
	log             *logger.Logger
	activityService services.ActivityService
}

func NewActivityHandler(log *logger.Logger, activityService services.ActivityService) *ActivityHandler {
	handlerLog := log.With("handler", "ActivityHandler")
	return &ActivityHandler{log: handlerLog, activityService: activityService}
}

func (h *ActivityHandler) Track(c *gin.Context) {
	rd, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
		return
	}

	var input struct {
		Activities []services.TrackActivityInput `json:"activities"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(input.Activities) == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("at least one activity required"))
		return
	}

	tracked := make([]*types.UserActivity, 0, len(input.Activities))
	for _, item := range input.Activities {
		activity, err := h.activityService.Track(c.Request.Context(), rd.UserID, item)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "track_failed", err)
			return
		}
		tracked = append(tracked, activity)
	}
	RespondOK(c, gin.H{"activities": tracked, "count": len(tracked)})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/looplearn/looplearn-backend/internal/logger"
)

type HealthcheckHandler struct {
	log *logger.Logger
}

func NewHealthcheckHandler(log *logger.Logger) *HealthcheckHandler {
	handlerLog := log.With("handler", "HealthcheckHandler")
	return &HealthcheckHandler{log: handlerLog}
}

func (h *HealthcheckHandler) Healthcheck(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

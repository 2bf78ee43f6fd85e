package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/services"
)

type AnalysisHandler struct {
	log             *logger.Logger
	analysisService services.ContentAnalysisService
}

func NewAnalysisHandler(log *logger.Logger, analysisService services.ContentAnalysisService) *AnalysisHandler {
	handlerLog := log.With("handler", "AnalysisHandler")
	return &AnalysisHandler{log: handlerLog, analysisService: analysisService}
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var input services.AnalyzeContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	analysis, err := h.analysisService.Analyze(c.Request.Context(), input)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "analysis_failed", err)
		return
	}
	RespondOK(c, gin.H{"analysis": analysis})
}

func (h *AnalysisHandler) AnalyzeBatch(c *gin.Context) {
	var input struct {
		Items []services.AnalyzeContentInput `json:"items"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	analyses, err := h.analysisService.AnalyzeBatch(c.Request.Context(), input.Items)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "analysis_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"analyses": analyses,
		"analyzed": len(analyses),
		"failed":   len(input.Items) - len(analyses),
	})
}

func (h *AnalysisHandler) FindSimilar(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("contentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_content_id", fmt.Errorf("invalid content id"))
		return
	}
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	similar, err := h.analysisService.FindSimilar(c.Request.Context(), contentID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "similar_failed", err)
		return
	}
	RespondOK(c, gin.H{"similar": similar})
}

func (h *AnalysisHandler) ExtractKeywords(c *gin.Context) {
	var input struct {
		Text  string `json:"text"`
		Count int    `json:"count"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	keywords, err := h.analysisService.ExtractKeywords(c.Request.Context(), input.Text, input.Count)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "keywords_failed", err)
		return
	}
	RespondOK(c, gin.H{"keywords": keywords})
}

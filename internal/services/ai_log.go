package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/repos"
	"github.com/looplearn/looplearn-backend/internal/types"
)

// AICallRecorder persists one audit row per model call. Recording is
// best-effort: a failed insert is logged and swallowed so the calling
// pipeline never fails because of its own audit trail.
type AICallRecorder interface {
	Record(ctx context.Context, entry AICallEntry)
}

type AICallEntry struct {
	UserID    *uuid.UUID
	ContextID *uuid.UUID
	CallType  string
	Model     string
	Prompt    string
	Response  string
	Success   bool
	Error     string
	Usage     map[string]any
}

type aiCallRecorder struct {
	log  *logger.Logger
	repo repos.AICallLogRepo
}

func NewAICallRecorder(repo repos.AICallLogRepo, baseLog *logger.Logger) AICallRecorder {
	svcLog := baseLog.With("service", "AICallRecorder")
	return &aiCallRecorder{log: svcLog, repo: repo}
}

func (s *aiCallRecorder) Record(ctx context.Context, entry AICallEntry) {
	row := &types.AICallLog{
		UserID:    entry.UserID,
		ContextID: entry.ContextID,
		CallType:  entry.CallType,
		Model:     entry.Model,
		Prompt:    entry.Prompt,
		Response:  entry.Response,
		Success:   entry.Success,
		Error:     entry.Error,
	}
	if len(entry.Usage) > 0 {
		raw, err := json.Marshal(entry.Usage)
		if err == nil {
			row.Usage = datatypes.JSON(raw)
		}
	}

	if _, err := s.repo.Create(ctx, nil, []*types.AICallLog{row}); err != nil {
		s.log.Warn("Failed to record AI call", "call_type", entry.CallType, "error", err)
	}
}

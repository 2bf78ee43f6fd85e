package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/clients/openai"
	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/observability"
	"github.com/looplearn/looplearn-backend/internal/repos"
	"github.com/looplearn/looplearn-backend/internal/types"
)

type InterestService interface {
	AnalyzeUserInterests(ctx context.Context, userID uuid.UUID) (*types.UserInterests, error)
	GetUserInterests(ctx context.Context, userID uuid.UUID) (*types.UserInterests, error)
	AnalyzeUserSegment(ctx context.Context, userID uuid.UUID) (map[string]any, error)
}

type interestService struct {
	log           *logger.Logger
	ai            openai.Client
	aggregator    PreferenceAggregator
	interestsRepo repos.UserInterestsRepo
	activityRepo  repos.UserActivityRepo
	recorder      AICallRecorder
}

func NewInterestService(
	ai openai.Client,
	aggregator PreferenceAggregator,
	interestsRepo repos.UserInterestsRepo,
	activityRepo repos.UserActivityRepo,
	recorder AICallRecorder,
	baseLog *logger.Logger,
) InterestService {
	svcLog := baseLog.With("service", "InterestService")
	return &interestService{
		log:           svcLog,
		ai:            ai,
		aggregator:    aggregator,
		interestsRepo: interestsRepo,
		activityRepo:  activityRepo,
		recorder:      recorder,
	}
}

var interestsSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"primary_interests":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"secondary_interests": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		// Strict structured outputs reject free-keyed objects, so the
		// topic->level map travels as an array of pairs.
		"skills": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"topic": map[string]any{"type": "string"},
					"level": map[string]any{"type": "string", "enum": []string{types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced}},
				},
				"required": []string{"topic", "level"},
			},
		},
		"content_types":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"formats":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"length_preference": map[string]any{"type": "string", "enum": []string{"short", "medium", "long"}},
		"learning_goals":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"primary_interests", "secondary_interests", "skills", "content_types", "formats", "length_preference", "learning_goals"},
}

// AnalyzeUserInterests recomputes the interest snapshot from the
// canonical preference profile and overwrites the previous one.
func (s *interestService) AnalyzeUserInterests(ctx context.Context, userID uuid.UUID) (*types.UserInterests, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}

	profile, err := s.aggregator.BuildProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	userPrompt := fmt.Sprintf("Engagement profile (weighted counts):\n%s", profileJSON)
	obj, err := s.ai.GenerateJSON(ctx,
		"You infer a learner's interests from their weighted engagement profile. Be specific; derive interests from the categories and tags, skills from the skill levels and tags, and learning goals from the overall pattern.",
		userPrompt,
		"user_interests",
		interestsSchema,
	)
	s.recordCall(ctx, userID, "analyze_interests", userPrompt, obj, err)
	if err != nil {
		return nil, fmt.Errorf("infer interests: %w", err)
	}

	snapshot := &types.UserInterests{
		UserID:             userID,
		PrimaryInterests:   mustJSON(orEmpty(stringSlice(obj["primary_interests"]))),
		SecondaryInterests: mustJSON(orEmpty(stringSlice(obj["secondary_interests"]))),
		Skills:             mustJSON(skillLevels(obj["skills"])),
		ContentPreferences: mustJSON(contentPreferences(obj)),
		LearningGoals:      mustJSON(orEmpty(stringSlice(obj["learning_goals"]))),
	}
	if _, err := s.interestsRepo.Upsert(ctx, nil, snapshot); err != nil {
		return nil, fmt.Errorf("store interests: %w", err)
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.IncInterestRecompute()
	}

	s.log.Info("User interests recomputed", "user_id", userID, "activity_count", profile.ActivityCount)
	return snapshot, nil
}

func (s *interestService) GetUserInterests(ctx context.Context, userID uuid.UUID) (*types.UserInterests, error) {
	return s.interestsRepo.GetByUserID(ctx, nil, userID)
}

var segmentSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"segment":         map[string]any{"type": "string"},
		"engagement":      map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
		"characteristics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"recommendations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"segment", "engagement", "characteristics", "recommendations"},
}

// AnalyzeUserSegment classifies the user on demand. The result is
// returned, never persisted: segments are a read-time view.
func (s *interestService) AnalyzeUserSegment(ctx context.Context, userID uuid.UUID) (map[string]any, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}

	interests, err := s.interestsRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		interests = nil
	}
	activities, err := s.activityRepo.GetRecentByUserID(ctx, nil, userID, 50)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	summary := map[string]any{
		"recent_activity_count": len(activities),
		"activity_types":        countByField(activities, func(a *types.UserActivity) string { return a.ActivityType }),
		"content_types":         countByField(activities, func(a *types.UserActivity) string { return a.ContentType }),
	}
	if interests != nil {
		summary["primary_interests"] = json.RawMessage(interests.PrimaryInterests)
		summary["skills"] = json.RawMessage(interests.Skills)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	userPrompt := fmt.Sprintf("User engagement summary:\n%s", summaryJSON)
	obj, err := s.ai.GenerateJSON(ctx,
		"You classify learners into behavioral segments (for example: 'deep diver', 'casual browser', 'skill builder'). Base the segment on the engagement summary only.",
		userPrompt,
		"user_segment",
		segmentSchema,
	)
	s.recordCall(ctx, userID, "analyze_segment", userPrompt, obj, err)
	if err != nil {
		return nil, fmt.Errorf("classify segment: %w", err)
	}
	return obj, nil
}

func (s *interestService) recordCall(ctx context.Context, userID uuid.UUID, callType, prompt string, response map[string]any, callErr error) {
	if s.recorder == nil {
		return
	}
	entry := AICallEntry{
		UserID:   &userID,
		CallType: callType,
		Model:    s.ai.Model(),
		Prompt:   prompt,
		Success:  callErr == nil,
	}
	if raw, err := json.Marshal(response); err == nil {
		entry.Response = string(raw)
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	s.recorder.Record(ctx, entry)
}

func countByField(activities []*types.UserActivity, key func(*types.UserActivity) string) map[string]int {
	counts := map[string]int{}
	for _, a := range activities {
		if k := key(a); k != "" {
			counts[k]++
		}
	}
	return counts
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// skillLevels folds the model's topic/level pairs into the persisted
// topic->level map. Unknown levels default to beginner rather than
// dropping the topic.
func skillLevels(v any) map[string]string {
	out := map[string]string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		pair, ok := item.(map[string]any)
		if !ok {
			continue
		}
		topic := stringField(pair["topic"])
		if topic == "" {
			continue
		}
		level := stringField(pair["level"])
		switch level {
		case types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced:
		default:
			level = types.DifficultyBeginner
		}
		out[topic] = level
	}
	return out
}

func contentPreferences(obj map[string]any) map[string]any {
	return map[string]any{
		"content_types":     orEmpty(stringSlice(obj["content_types"])),
		"formats":           orEmpty(stringSlice(obj["formats"])),
		"length_preference": stringField(obj["length_preference"]),
	}
}

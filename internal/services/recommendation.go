package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/clients/openai"
	redisclient "github.com/looplearn/looplearn-backend/internal/clients/redis"
	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/observability"
	"github.com/looplearn/looplearn-backend/internal/repos"
	"github.com/looplearn/looplearn-backend/internal/types"
	"github.com/looplearn/looplearn-backend/internal/vector"
)

const (
	recommendationRetention = 90 * 24 * time.Hour
	defaultRecommendScore   = 0.5
	fallbackReason          = "Recommended based on your recent learning activity"
)

type FeedbackInput struct {
	RecommendationID uuid.UUID `json:"recommendation_id"`
	FeedbackType     string    `json:"feedback_type"`
	FeedbackText     string    `json:"feedback_text"`
}

type RecommendationService interface {
	Generate(ctx context.Context, userID uuid.UUID, recType string, limit int) ([]*types.AIRecommendation, error)
	RecordFeedback(ctx context.Context, userID uuid.UUID, input FeedbackInput) (*types.RecommendationFeedback, error)
}

type recommendationService struct {
	log          *logger.Logger
	ai           openai.Client
	store        vector.Store
	aggregator   PreferenceAggregator
	recRepo      repos.AIRecommendationRepo
	feedbackRepo repos.RecommendationFeedbackRepo
	analysisRepo repos.ContentAnalysisRepo
	cache        *redisclient.RecommendationCache
	recorder     AICallRecorder
}

func NewRecommendationService(
	ai openai.Client,
	store vector.Store,
	aggregator PreferenceAggregator,
	recRepo repos.AIRecommendationRepo,
	feedbackRepo repos.RecommendationFeedbackRepo,
	analysisRepo repos.ContentAnalysisRepo,
	cache *redisclient.RecommendationCache,
	recorder AICallRecorder,
	baseLog *logger.Logger,
) RecommendationService {
	svcLog := baseLog.With("service", "RecommendationService")
	return &recommendationService{
		log:          svcLog,
		ai:           ai,
		store:        store,
		aggregator:   aggregator,
		recRepo:      recRepo,
		feedbackRepo: feedbackRepo,
		analysisRepo: analysisRepo,
		cache:        cache,
		recorder:     recorder,
	}
}

type candidate struct {
	ItemID      uuid.UUID
	ContentType string
	Score       float64
}

// Generate builds the user's preference profile, embeds it, and ranks
// content from the vector index. Results are upserted per
// (user, type, item) and stale rows beyond the retention window are
// swept on the way out.
func (s *recommendationService) Generate(ctx context.Context, userID uuid.UUID, recType string, limit int) ([]*types.AIRecommendation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	contentTypes, err := resolveRecTypes(recType)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []*types.AIRecommendation{}, nil
	}

	if cached, err := s.cache.Get(ctx, userID.String(), recType); err == nil && len(cached) > 0 {
		recs, err := s.recRepo.GetByUserAndType(ctx, nil, userID, recType, limit)
		if err == nil && len(recs) > 0 {
			s.log.Debug("Serving recommendations from cache marker", "user_id", userID, "rec_type", recType)
			if metrics := observability.Current(); metrics != nil {
				metrics.IncCacheEvent("hit")
			}
			return recs, nil
		}
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncCacheEvent("miss")
	}

	profile, err := s.aggregator.BuildProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}
	sentence := profile.Sentence()

	queryVecs, err := s.ai.Embed(ctx, []string{sentence})
	if err != nil {
		return nil, fmt.Errorf("embed profile: %w", err)
	}
	if len(queryVecs) != 1 {
		return nil, fmt.Errorf("embed profile: expected 1 vector, got %d", len(queryVecs))
	}

	candidates, err := s.queryCandidates(ctx, queryVecs[0], contentTypes, limit)
	if err != nil {
		return nil, err
	}
	candidates, err = s.dropFlagged(ctx, candidates)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	reasons := s.generateReasons(ctx, userID, sentence, candidates)

	recs := make([]*types.AIRecommendation, 0, len(candidates))
	for _, c := range candidates {
		score := c.Score
		if score <= 0 {
			score = defaultRecommendScore
		}
		reason, ok := reasons[c.ItemID]
		if !ok || reason == "" {
			reason = fallbackReason
		}
		recs = append(recs, &types.AIRecommendation{
			UserID:  userID,
			RecType: recType,
			ItemID:  c.ItemID,
			Score:   score,
			Reason:  reason,
		})
	}

	if _, err := s.recRepo.UpsertBatch(ctx, nil, recs); err != nil {
		return nil, fmt.Errorf("store recommendations: %w", err)
	}

	if swept, err := s.recRepo.DeleteOlderThan(ctx, nil, time.Now().Add(-recommendationRetention)); err != nil {
		s.log.Warn("Retention sweep failed", "error", err)
	} else if swept > 0 {
		s.log.Info("Swept stale recommendations", "deleted", swept)
	}

	cached := make([]redisclient.CachedRecommendation, 0, len(recs))
	for _, rec := range recs {
		cached = append(cached, redisclient.CachedRecommendation{
			ItemID: rec.ItemID.String(),
			Type:   rec.RecType,
			Score:  rec.Score,
			Reason: rec.Reason,
		})
	}
	_ = s.cache.Set(ctx, userID.String(), recType, cached)

	if metrics := observability.Current(); metrics != nil {
		metrics.IncRecommendationsGenerated(recType, len(recs))
	}

	s.log.Info("Recommendations generated", "user_id", userID, "rec_type", recType, "count", len(recs))
	return recs, nil
}

func (s *recommendationService) queryCandidates(ctx context.Context, queryVec []float32, contentTypes []string, limit int) ([]candidate, error) {
	var candidates []candidate
	seen := map[uuid.UUID]struct{}{}
	for _, contentType := range contentTypes {
		matches, err := s.store.QueryMatches(ctx, vectorNamespaceContent, queryVec, limit, map[string]any{
			"content_type": contentType,
		})
		if err != nil {
			return nil, fmt.Errorf("query %s candidates: %w", contentType, err)
		}
		for _, m := range matches {
			itemID, err := uuid.Parse(m.ID)
			if err != nil {
				continue
			}
			if _, dup := seen[itemID]; dup {
				continue
			}
			seen[itemID] = struct{}{}
			candidates = append(candidates, candidate{
				ItemID:      itemID,
				ContentType: contentType,
				Score:       m.Score,
			})
		}
	}
	return candidates, nil
}

func (s *recommendationService) dropFlagged(ctx context.Context, candidates []candidate) ([]candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ItemID)
	}
	analyses, err := s.analysisRepo.GetByContentIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate analyses: %w", err)
	}
	flagged := map[uuid.UUID]bool{}
	for _, a := range analyses {
		if a.Flagged {
			flagged[a.ContentID] = true
		}
	}
	out := candidates[:0]
	for _, c := range candidates {
		if !flagged[c.ItemID] {
			out = append(out, c)
		}
	}
	return out, nil
}

var reasonsSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"reasons": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"item_id": map[string]any{"type": "string"},
					"reason":  map[string]any{"type": "string"},
				},
				"required": []string{"item_id", "reason"},
			},
		},
	},
	"required": []string{"reasons"},
}

// generateReasons asks the model for one line per item, keyed by the
// echoed item_id. Matching is by id, never by position, so a short or
// reordered response degrades to the fallback reason instead of
// attaching text to the wrong item.
func (s *recommendationService) generateReasons(ctx context.Context, userID uuid.UUID, sentence string, candidates []candidate) map[uuid.UUID]string {
	reasons := map[uuid.UUID]string{}
	if len(candidates) == 0 {
		return reasons
	}

	items := make([]map[string]any, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, map[string]any{
			"item_id":      c.ItemID.String(),
			"content_type": c.ContentType,
		})
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return reasons
	}

	userPrompt := fmt.Sprintf("Learner profile: %s\n\nRecommended items:\n%s", sentence, itemsJSON)
	obj, err := s.ai.GenerateJSON(ctx,
		"For each recommended item, write one short sentence explaining why it fits this learner. Echo each item_id exactly as given.",
		userPrompt,
		"recommendation_reasons",
		reasonsSchema,
	)
	s.recordCall(ctx, userID, "generate_reasons", userPrompt, obj, err)
	if err != nil {
		s.log.Warn("Reason generation failed; using fallback reasons", "user_id", userID, "error", err)
		return reasons
	}

	rawReasons, ok := obj["reasons"].([]any)
	if !ok {
		return reasons
	}
	for _, raw := range rawReasons {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		itemID, err := uuid.Parse(stringField(entry["item_id"]))
		if err != nil {
			continue
		}
		if reason := stringField(entry["reason"]); reason != "" {
			reasons[itemID] = reason
		}
	}
	return reasons
}

func (s *recommendationService) RecordFeedback(ctx context.Context, userID uuid.UUID, input FeedbackInput) (*types.RecommendationFeedback, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	switch input.FeedbackType {
	case types.FeedbackHelpful, types.FeedbackNotHelpful, types.FeedbackSave, types.FeedbackDismiss:
	default:
		return nil, fmt.Errorf("unknown feedback type %q", input.FeedbackType)
	}

	rec, err := s.recRepo.GetByID(ctx, nil, input.RecommendationID)
	if err != nil {
		return nil, fmt.Errorf("load recommendation: %w", err)
	}
	if rec.UserID != userID {
		return nil, fmt.Errorf("recommendation does not belong to user")
	}

	feedback := &types.RecommendationFeedback{
		RecommendationID: rec.ID,
		UserID:           userID,
		FeedbackType:     input.FeedbackType,
		FeedbackText:     input.FeedbackText,
	}
	created, err := s.feedbackRepo.Create(ctx, nil, []*types.RecommendationFeedback{feedback})
	if err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	if input.FeedbackType == types.FeedbackSave {
		if err := s.recRepo.MarkClicked(ctx, nil, rec.ID); err != nil {
			s.log.Warn("Failed to mark recommendation clicked", "recommendation_id", rec.ID, "error", err)
		}
	}
	s.cache.Invalidate(ctx, userID.String())

	return created[0], nil
}

func (s *recommendationService) recordCall(ctx context.Context, userID uuid.UUID, callType, prompt string, response map[string]any, callErr error) {
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

func resolveRecTypes(recType string) ([]string, error) {
	switch recType {
	case types.RecTypeResource:
		return []string{types.ContentTypeResource}, nil
	case types.RecTypeLearningPath:
		return []string{types.ContentTypeLearningPath}, nil
	case types.RecTypePost:
		return []string{types.ContentTypePost}, nil
	case types.RecTypeMixed:
		return []string{types.ContentTypeResource, types.ContentTypeLearningPath, types.ContentTypePost}, nil
	default:
		return nil, fmt.Errorf("unknown recommendation type %q", recType)
	}
}

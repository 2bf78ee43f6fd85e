package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/looplearn/looplearn-backend/internal/clients/openai"
	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/types"
	"github.com/looplearn/looplearn-backend/internal/vector"
)

func testLogger() *logger.Logger {
	log, err := logger.New("test")
	if err != nil {
		panic(err)
	}
	return log
}

type fakeAIClient struct {
	completeFn func(ctx context.Context, system, user string, opts openai.CompleteOptions) (string, error)
	generateFn func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
	embedFn    func(ctx context.Context, inputs []string) ([][]float32, error)
	moderateFn func(ctx context.Context, text string) (*openai.ModerationResult, error)
}

func (f *fakeAIClient) Complete(ctx context.Context, system, user string, opts openai.CompleteOptions) (string, error) {
	if f.completeFn != nil {
		return f.completeFn(ctx, system, user, opts)
	}
	return "a short summary", nil
}

func (f *fakeAIClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	if f.generateFn != nil {
		return f.generateFn(ctx, system, user, schemaName, schema)
	}
	return map[string]any{}, nil
}

func (f *fakeAIClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(ctx, inputs)
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeAIClient) Moderate(ctx context.Context, text string) (*openai.ModerationResult, error) {
	if f.moderateFn != nil {
		return f.moderateFn(ctx, text)
	}
	return &openai.ModerationResult{}, nil
}

func (f *fakeAIClient) Model() string      { return "gpt-test" }
func (f *fakeAIClient) EmbedModel() string { return "text-embedding-3-small" }

type storeQuery struct {
	Namespace string
	TopK      int
	Filter    map[string]any
}

type fakeStore struct {
	mu       sync.Mutex
	upserted []vector.Vector
	queries  []storeQuery
	matches  map[string][]vector.Match // keyed by content_type filter, "" for none
	queryErr error
}

func (f *fakeStore) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, vectors...)
	return nil
}

func (f *fakeStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vector.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.queries = append(f.queries, storeQuery{Namespace: namespace, TopK: topK, Filter: filter})
	key := ""
	if filter != nil {
		if ct, ok := filter["content_type"].(string); ok {
			key = ct
		}
	}
	return f.matches[key], nil
}

func (f *fakeStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	return nil
}

type fakeAnalysisRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.ContentAnalysis
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{rows: map[uuid.UUID]*types.ContentAnalysis{}}
}

func (f *fakeAnalysisRepo) Upsert(ctx context.Context, tx *gorm.DB, analysis *types.ContentAnalysis) (*types.ContentAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[analysis.ContentID] = analysis
	return analysis, nil
}

func (f *fakeAnalysisRepo) GetByContentID(ctx context.Context, tx *gorm.DB, contentID uuid.UUID) (*types.ContentAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[contentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeAnalysisRepo) GetByContentIDs(ctx context.Context, tx *gorm.DB, contentIDs []uuid.UUID) ([]*types.ContentAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.ContentAnalysis
	for _, id := range contentIDs {
		if row, ok := f.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAnalysisRepo) DeleteByContentIDs(ctx context.Context, tx *gorm.DB, contentIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range contentIDs {
		delete(f.rows, id)
	}
	return nil
}

type fakeRecRepo struct {
	mu         sync.Mutex
	rows       map[string]*types.AIRecommendation
	sweepCalls int
	clicked    []uuid.UUID
}

func newFakeRecRepo() *fakeRecRepo {
	return &fakeRecRepo{rows: map[string]*types.AIRecommendation{}}
}

func recKey(userID uuid.UUID, recType string, itemID uuid.UUID) string {
	return fmt.Sprintf("%s|%s|%s", userID, recType, itemID)
}

func (f *fakeRecRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, recs []*types.AIRecommendation) ([]*types.AIRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		key := recKey(rec.UserID, rec.RecType, rec.ItemID)
		if existing, ok := f.rows[key]; ok {
			existing.Score = rec.Score
			existing.Reason = rec.Reason
			existing.UpdatedAt = time.Now()
			*rec = *existing
			continue
		}
		rec.ID = uuid.New()
		rec.UpdatedAt = time.Now()
		f.rows[key] = rec
	}
	return recs, nil
}

func (f *fakeRecRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AIRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.rows {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRecRepo) GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, recType string, limit int) ([]*types.AIRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.AIRecommendation
	for _, rec := range f.rows {
		if rec.UserID == userID && rec.RecType == recType {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecRepo) MarkClicked(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicked = append(f.clicked, id)
	for _, rec := range f.rows {
		if rec.ID == id {
			rec.IsClicked = true
		}
	}
	return nil
}

func (f *fakeRecRepo) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweepCalls++
	return 0, nil
}

type fakeFeedbackRepo struct {
	mu   sync.Mutex
	rows []*types.RecommendationFeedback
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback []*types.RecommendationFeedback) ([]*types.RecommendationFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range feedback {
		row.ID = uuid.New()
		f.rows = append(f.rows, row)
	}
	return feedback, nil
}

func (f *fakeFeedbackRepo) GetByRecommendationID(ctx context.Context, tx *gorm.DB, recommendationID uuid.UUID) ([]*types.RecommendationFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.RecommendationFeedback
	for _, row := range f.rows {
		if row.RecommendationID == recommendationID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeInterestsRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.UserInterests
}

func newFakeInterestsRepo() *fakeInterestsRepo {
	return &fakeInterestsRepo{rows: map[uuid.UUID]*types.UserInterests{}}
}

func (f *fakeInterestsRepo) Upsert(ctx context.Context, tx *gorm.DB, interests *types.UserInterests) (*types.UserInterests, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[interests.UserID] = interests
	return interests, nil
}

func (f *fakeInterestsRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserInterests, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

type fakeActivityRepo struct {
	mu   sync.Mutex
	rows []*types.UserActivity
}

func (f *fakeActivityRepo) Create(ctx context.Context, tx *gorm.DB, activities []*types.UserActivity) ([]*types.UserActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, activities...)
	return activities, nil
}

func (f *fakeActivityRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.UserActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.UserActivity
	for _, a := range f.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeActivityRepo) GetByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.UserActivity, error) {
	return f.GetRecentByUserID(ctx, tx, userID, 0)
}

func (f *fakeActivityRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.rows {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeAggregator struct {
	profile *PreferenceProfile
	err     error
}

func (f *fakeAggregator) BuildProfile(ctx context.Context, userID uuid.UUID) (*PreferenceProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profile != nil {
		return f.profile, nil
	}
	return AggregateProfile(nil, nil, nil), nil
}

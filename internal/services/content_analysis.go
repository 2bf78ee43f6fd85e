package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/looplearn/looplearn-backend/internal/clients/openai"
	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/observability"
	"github.com/looplearn/looplearn-backend/internal/repos"
	"github.com/looplearn/looplearn-backend/internal/types"
	"github.com/looplearn/looplearn-backend/internal/vector"
)

const (
	vectorNamespaceContent = "content"
	summaryMaxChars        = 200
	contentMaxChars        = 4000
	analysisBatchSize      = 5
	defaultKeywordCount    = 5
	defaultSimilarLimit    = 5
)

type AnalyzeContentInput struct {
	ContentID   uuid.UUID `json:"content_id"`
	ContentType string    `json:"content_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	AuthorID    uuid.UUID `json:"author_id"`
	Tags        []string  `json:"tags"`
}

type SimilarContent struct {
	ContentID   uuid.UUID `json:"content_id"`
	ContentType string    `json:"content_type"`
	Score       float64   `json:"score"`
}

type ContentAnalysisService interface {
	Analyze(ctx context.Context, input AnalyzeContentInput) (*types.ContentAnalysis, error)
	AnalyzeBatch(ctx context.Context, inputs []AnalyzeContentInput) ([]*types.ContentAnalysis, error)
	ExtractKeywords(ctx context.Context, text string, count int) ([]string, error)
	FindSimilar(ctx context.Context, contentID uuid.UUID, limit int) ([]SimilarContent, error)
}

type contentAnalysisService struct {
	log          *logger.Logger
	ai           openai.Client
	store        vector.Store
	analysisRepo repos.ContentAnalysisRepo
	recorder     AICallRecorder
}

func NewContentAnalysisService(
	ai openai.Client,
	store vector.Store,
	analysisRepo repos.ContentAnalysisRepo,
	recorder AICallRecorder,
	baseLog *logger.Logger,
) ContentAnalysisService {
	svcLog := baseLog.With("service", "ContentAnalysisService")
	return &contentAnalysisService{
		log:          svcLog,
		ai:           ai,
		store:        store,
		analysisRepo: analysisRepo,
		recorder:     recorder,
	}
}

var analysisSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"topics":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"target_audience":  map[string]any{"type": "string"},
		"difficulty_level": map[string]any{"type": "string", "enum": []string{types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced}},
		"key_takeaways":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"topics", "target_audience", "difficulty_level", "key_takeaways"},
}

// Analyze runs the full pipeline for one piece of content: moderation,
// structured extraction, summary, embedding, then a single row upsert.
// Flagged content is still analyzed and stored; the flag travels with
// the row so read paths can filter on it.
func (s *contentAnalysisService) Analyze(ctx context.Context, input AnalyzeContentInput) (*types.ContentAnalysis, error) {
	if input.ContentID == uuid.Nil {
		return nil, fmt.Errorf("content id required")
	}
	if input.ContentType == "" {
		return nil, fmt.Errorf("content type required")
	}
	body := truncateChars(strings.TrimSpace(input.Content), contentMaxChars)
	text := strings.TrimSpace(input.Title + "\n" + input.Description + "\n" + body)
	if text == "" {
		return nil, fmt.Errorf("content text required")
	}

	moderation, err := s.ai.Moderate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("moderate content: %w", err)
	}
	if moderation.Flagged {
		s.log.Warn("Content flagged by moderation",
			"content_id", input.ContentID,
			"categories", moderation.Categories,
		)
	}

	extraction, err := s.extract(ctx, input, body)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, input, body)
	if err != nil {
		return nil, err
	}

	// The embedding covers title+description+topics only; the body
	// already informed the extraction.
	embedText := strings.TrimSpace(input.Title + "\n" + input.Description)
	if len(extraction.Topics) > 0 {
		embedText += "\n" + strings.Join(extraction.Topics, ", ")
	}
	vecs, err := s.ai.Embed(ctx, []string{embedText})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embed content: expected 1 non-empty vector, got %d", len(vecs))
	}
	embedding := vecs[0]

	analysis := &types.ContentAnalysis{
		ContentID:       input.ContentID,
		ContentType:     input.ContentType,
		Topics:          mustJSON(extraction.Topics),
		TargetAudience:  extraction.TargetAudience,
		DifficultyLevel: extraction.DifficultyLevel,
		KeyTakeaways:    mustJSON(extraction.KeyTakeaways),
		Summary:         summary,
		Embedding:       mustJSON(embedding),
		EmbedModel:      s.ai.EmbedModel(),
		EmbedDim:        len(embedding),
		Flagged:         moderation.Flagged,
		AnalyzedAt:      time.Now().UTC(),
	}
	if len(moderation.Categories) > 0 {
		analysis.FlagCategories = mustJSON(moderation.Categories)
	}

	if _, err := s.analysisRepo.Upsert(ctx, nil, analysis); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	metadata := map[string]any{
		"content_type": input.ContentType,
		"embed_model":  s.ai.EmbedModel(),
		"title":        input.Title,
		"description":  input.Description,
	}
	if len(input.Tags) > 0 {
		metadata["tags"] = input.Tags
	}
	if input.AuthorID != uuid.Nil {
		metadata["author_id"] = input.AuthorID.String()
	}
	if err := s.store.Upsert(ctx, vectorNamespaceContent, []vector.Vector{{
		ID:       input.ContentID.String(),
		Values:   embedding,
		Metadata: metadata,
	}}); err != nil {
		return nil, fmt.Errorf("index embedding: %w", err)
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.ObserveAnalysis(moderation.Flagged, false)
	}

	s.log.Info("Content analyzed",
		"content_id", input.ContentID,
		"content_type", input.ContentType,
		"flagged", moderation.Flagged,
		"topics", len(extraction.Topics),
	)
	return analysis, nil
}

// AnalyzeBatch processes inputs in chunks of five. Per-item failures
// are logged and omitted from the result rather than failing the
// whole batch.
func (s *contentAnalysisService) AnalyzeBatch(ctx context.Context, inputs []AnalyzeContentInput) ([]*types.ContentAnalysis, error) {
	if len(inputs) == 0 {
		return []*types.ContentAnalysis{}, nil
	}

	results := make([]*types.ContentAnalysis, len(inputs))
	for start := 0; start < len(inputs); start += analysisBatchSize {
		end := start + analysisBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				analysis, err := s.Analyze(gctx, inputs[i])
				if err != nil {
					s.log.Warn("Batch item analysis failed",
						"content_id", inputs[i].ContentID,
						"error", err,
					)
					if metrics := observability.Current(); metrics != nil {
						metrics.ObserveAnalysis(false, true)
					}
					return nil
				}
				results[i] = analysis
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]*types.ContentAnalysis, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

var keywordsSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"keywords": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"keywords"},
}

// ExtractKeywords degrades to an empty list on model failure: keyword
// tagging is decoration, not a hard dependency.
func (s *contentAnalysisService) ExtractKeywords(ctx context.Context, text string, count int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}
	if count <= 0 {
		count = defaultKeywordCount
	}

	obj, err := s.ai.GenerateJSON(ctx,
		fmt.Sprintf("Extract up to %d concise keywords from the provided text. Return lowercase keywords only.", count),
		text,
		"keyword_extraction",
		keywordsSchema,
	)
	s.record(ctx, "extract_keywords", text, obj, err)
	if err != nil {
		s.log.Warn("Keyword extraction failed; returning empty set", "error", err)
		return []string{}, nil
	}
	keywords := stringSlice(obj["keywords"])
	if len(keywords) > count {
		keywords = keywords[:count]
	}
	return keywords, nil
}

// FindSimilar answers via the vector index, never by scanning stored
// embeddings. Vectors stamped with a different embed model than the
// one currently configured are rejected loudly instead of silently
// producing garbage similarity.
func (s *contentAnalysisService) FindSimilar(ctx context.Context, contentID uuid.UUID, limit int) ([]SimilarContent, error) {
	if contentID == uuid.Nil {
		return nil, fmt.Errorf("content id required")
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	analysis, err := s.analysisRepo.GetByContentID(ctx, nil, contentID)
	if err != nil {
		return nil, fmt.Errorf("load analysis: %w", err)
	}
	if analysis.EmbedModel != s.ai.EmbedModel() {
		return nil, fmt.Errorf("embedding model mismatch: stored=%q configured=%q; re-analyze content before comparing",
			analysis.EmbedModel, s.ai.EmbedModel())
	}

	var embedding []float32
	if err := json.Unmarshal(analysis.Embedding, &embedding); err != nil {
		return nil, fmt.Errorf("decode stored embedding: %w", err)
	}
	if len(embedding) != analysis.EmbedDim {
		return nil, fmt.Errorf("stored embedding dimension mismatch: stamped=%d actual=%d", analysis.EmbedDim, len(embedding))
	}

	// One extra so the item itself can be dropped from its own results.
	matches, err := s.store.QueryMatches(ctx, vectorNamespaceContent, embedding, limit+1, nil)
	if err != nil {
		return nil, fmt.Errorf("query similar: %w", err)
	}

	matchIDs := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		id, err := uuid.Parse(m.ID)
		if err != nil || id == contentID {
			continue
		}
		matchIDs = append(matchIDs, id)
	}
	analyses, err := s.analysisRepo.GetByContentIDs(ctx, nil, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("load match analyses: %w", err)
	}
	typeByID := make(map[uuid.UUID]string, len(analyses))
	for _, a := range analyses {
		typeByID[a.ContentID] = a.ContentType
	}

	out := make([]SimilarContent, 0, limit)
	for _, m := range matches {
		id, err := uuid.Parse(m.ID)
		if err != nil || id == contentID {
			continue
		}
		out = append(out, SimilarContent{
			ContentID:   id,
			ContentType: typeByID[id],
			Score:       m.Score,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type contentExtraction struct {
	Topics          []string
	TargetAudience  string
	DifficultyLevel string
	KeyTakeaways    []string
}

func (s *contentAnalysisService) extract(ctx context.Context, input AnalyzeContentInput, body string) (*contentExtraction, error) {
	userPrompt := analysisPrompt(input, body)
	obj, err := s.ai.GenerateJSON(ctx,
		"You analyze learning content. Extract its main topics, target audience, difficulty level, and key takeaways.",
		userPrompt,
		"content_analysis",
		analysisSchema,
	)
	s.record(ctx, "analyze_content", userPrompt, obj, err)
	if err != nil {
		return nil, fmt.Errorf("extract analysis: %w", err)
	}

	extraction := &contentExtraction{
		Topics:          stringSlice(obj["topics"]),
		TargetAudience:  stringField(obj["target_audience"]),
		DifficultyLevel: stringField(obj["difficulty_level"]),
		KeyTakeaways:    stringSlice(obj["key_takeaways"]),
	}
	if extraction.TargetAudience == "" {
		extraction.TargetAudience = "general"
	}
	switch extraction.DifficultyLevel {
	case types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced:
	default:
		extraction.DifficultyLevel = types.DifficultyIntermediate
	}
	if extraction.Topics == nil {
		extraction.Topics = []string{}
	}
	if extraction.KeyTakeaways == nil {
		extraction.KeyTakeaways = []string{}
	}
	return extraction, nil
}

func (s *contentAnalysisService) summarize(ctx context.Context, input AnalyzeContentInput, body string) (string, error) {
	userPrompt := analysisPrompt(input, body)
	summary, err := s.ai.Complete(ctx,
		fmt.Sprintf("Summarize the following learning content in one sentence of at most %d characters.", summaryMaxChars),
		userPrompt,
		openai.CompleteOptions{Temperature: 0.3, MaxTokens: 120},
	)
	s.record(ctx, "summarize_content", userPrompt, summary, err)
	if err != nil {
		return "", fmt.Errorf("summarize content: %w", err)
	}
	return truncateChars(strings.TrimSpace(summary), summaryMaxChars), nil
}

// analysisPrompt lays out the content for the extraction and summary
// calls. The body arrives already truncated.
func analysisPrompt(input AnalyzeContentInput, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\nDescription: %s", input.Title, input.Description)
	if body != "" {
		b.WriteString("\n\nContent:\n")
		b.WriteString(body)
	}
	if len(input.Tags) > 0 {
		b.WriteString("\n\nTags: ")
		b.WriteString(strings.Join(input.Tags, ", "))
	}
	return b.String()
}

// truncateChars cuts s to at most max characters, never splitting a
// rune: byte slicing would hand Postgres invalid UTF-8.
func truncateChars(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

func (s *contentAnalysisService) record(ctx context.Context, callType, prompt string, response any, callErr error) {
	if s.recorder == nil {
		return
	}
	entry := AICallEntry{
		CallType: callType,
		Model:    s.ai.Model(),
		Prompt:   prompt,
		Success:  callErr == nil,
	}
	switch v := response.(type) {
	case string:
		entry.Response = v
	default:
		if raw, err := json.Marshal(v); err == nil {
			entry.Response = string(raw)
		}
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	s.recorder.Record(ctx, entry)
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(raw)
}

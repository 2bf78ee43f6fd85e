package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/clients/openai"
	"github.com/looplearn/looplearn-backend/internal/types"
	"github.com/looplearn/looplearn-backend/internal/vector"
)

func newAnalysisService(ai *fakeAIClient, store *fakeStore, repo *fakeAnalysisRepo) ContentAnalysisService {
	return NewContentAnalysisService(ai, store, repo, nil, testLogger())
}

func validExtraction() map[string]any {
	return map[string]any{
		"topics":           []any{"go", "testing"},
		"target_audience":  "backend engineers",
		"difficulty_level": types.DifficultyIntermediate,
		"key_takeaways":    []any{"write table tests"},
	}
}

func TestAnalyzeStoresAnalysisAndIndexesVector(t *testing.T) {
	ai := &fakeAIClient{
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			return validExtraction(), nil
		},
	}
	store := &fakeStore{}
	repo := newFakeAnalysisRepo()
	svc := newAnalysisService(ai, store, repo)

	contentID := uuid.New()
	analysis, err := svc.Analyze(context.Background(), AnalyzeContentInput{
		ContentID:   contentID,
		ContentType: types.ContentTypeResource,
		Title:       "Testing in Go",
		Description: "A practical guide.",
		Tags:        []string{"go", "testing"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.EmbedModel != "text-embedding-3-small" || analysis.EmbedDim != 3 {
		t.Fatalf("embed stamp: model=%q dim=%d", analysis.EmbedModel, analysis.EmbedDim)
	}
	if _, ok := repo.rows[contentID]; !ok {
		t.Fatal("analysis not stored")
	}
	if len(store.upserted) != 1 || store.upserted[0].ID != contentID.String() {
		t.Fatalf("vector not indexed: %+v", store.upserted)
	}
	if store.upserted[0].Metadata["content_type"] != types.ContentTypeResource {
		t.Fatalf("vector metadata: %+v", store.upserted[0].Metadata)
	}
	meta := store.upserted[0].Metadata
	if meta["title"] != "Testing in Go" || meta["description"] != "A practical guide." {
		t.Fatalf("vector metadata missing title/description: %+v", meta)
	}
	tags, ok := meta["tags"].([]string)
	if !ok || len(tags) != 2 || tags[0] != "go" {
		t.Fatalf("vector metadata tags: %+v", meta["tags"])
	}
}

func TestAnalyzeFeedsBodyToModelCalls(t *testing.T) {
	body := strings.Repeat("b", contentMaxChars) + "OVERFLOW"
	var moderated, extractPrompt, summaryPrompt string
	ai := &fakeAIClient{
		moderateFn: func(ctx context.Context, text string) (*openai.ModerationResult, error) {
			moderated = text
			return &openai.ModerationResult{}, nil
		},
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			extractPrompt = user
			return validExtraction(), nil
		},
		completeFn: func(ctx context.Context, system, user string, opts openai.CompleteOptions) (string, error) {
			summaryPrompt = user
			return "a short summary", nil
		},
	}
	svc := newAnalysisService(ai, &fakeStore{}, newFakeAnalysisRepo())

	_, err := svc.Analyze(context.Background(), AnalyzeContentInput{
		ContentID:   uuid.New(),
		ContentType: types.ContentTypeResource,
		Title:       "Generic title",
		Description: "Generic description.",
		Content:     body,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for name, prompt := range map[string]string{"moderation": moderated, "extraction": extractPrompt, "summary": summaryPrompt} {
		if !strings.Contains(prompt, "bbbb") {
			t.Fatalf("%s never saw the body", name)
		}
		if strings.Contains(prompt, "OVERFLOW") {
			t.Fatalf("%s saw untruncated body", name)
		}
	}
}

func TestAnalyzeKeepsFlaggedContent(t *testing.T) {
	ai := &fakeAIClient{
		moderateFn: func(ctx context.Context, text string) (*openai.ModerationResult, error) {
			return &openai.ModerationResult{Flagged: true, Categories: []string{"harassment"}}, nil
		},
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			return validExtraction(), nil
		},
	}
	repo := newFakeAnalysisRepo()
	svc := newAnalysisService(ai, &fakeStore{}, repo)

	analysis, err := svc.Analyze(context.Background(), AnalyzeContentInput{
		ContentID:   uuid.New(),
		ContentType: types.ContentTypePost,
		Title:       "Spicy take",
		Description: "Questionable content.",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !analysis.Flagged {
		t.Fatal("flag not persisted")
	}
	var categories []string
	if err := json.Unmarshal(analysis.FlagCategories, &categories); err != nil || len(categories) != 1 {
		t.Fatalf("flag categories: %s", analysis.FlagCategories)
	}
}

func TestAnalyzeDefaultsSparseExtraction(t *testing.T) {
	ai := &fakeAIClient{
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			return map[string]any{
				"topics":           []any{},
				"target_audience":  "",
				"difficulty_level": "impossible",
				"key_takeaways":    nil,
			}, nil
		},
	}
	svc := newAnalysisService(ai, &fakeStore{}, newFakeAnalysisRepo())

	analysis, err := svc.Analyze(context.Background(), AnalyzeContentInput{
		ContentID:   uuid.New(),
		ContentType: types.ContentTypeResource,
		Title:       "Untitled",
		Description: "Sparse.",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.TargetAudience != "general" {
		t.Fatalf("target audience default: got %q", analysis.TargetAudience)
	}
	if analysis.DifficultyLevel != types.DifficultyIntermediate {
		t.Fatalf("difficulty default: got %q", analysis.DifficultyLevel)
	}
}

func TestAnalyzeTruncatesSummary(t *testing.T) {
	ai := &fakeAIClient{
		completeFn: func(ctx context.Context, system, user string, opts openai.CompleteOptions) (string, error) {
			return strings.Repeat("x", 500), nil
		},
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			return validExtraction(), nil
		},
	}
	svc := newAnalysisService(ai, &fakeStore{}, newFakeAnalysisRepo())

	analysis, err := svc.Analyze(context.Background(), AnalyzeContentInput{
		ContentID:   uuid.New(),
		ContentType: types.ContentTypeResource,
		Title:       "Long",
		Description: "Very long.",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analysis.Summary) != summaryMaxChars {
		t.Fatalf("summary length: want=%d got=%d", summaryMaxChars, len(analysis.Summary))
	}
}

func TestAnalyzeTruncatesSummaryOnRuneBoundary(t *testing.T) {
	ai := &fakeAIClient{
		completeFn: func(ctx context.Context, system, user string, opts openai.CompleteOptions) (string, error) {
			return strings.Repeat("a", summaryMaxChars-1) + "éé", nil
		},
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			return validExtraction(), nil
		},
	}
	svc := newAnalysisService(ai, &fakeStore{}, newFakeAnalysisRepo())

	analysis, err := svc.Analyze(context.Background(), AnalyzeContentInput{
		ContentID:   uuid.New(),
		ContentType: types.ContentTypeResource,
		Title:       "Accents",
		Description: "Multibyte tail.",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !utf8.ValidString(analysis.Summary) {
		t.Fatalf("summary is invalid UTF-8: %q", analysis.Summary)
	}
	if got := utf8.RuneCountInString(analysis.Summary); got != summaryMaxChars {
		t.Fatalf("summary runes: want=%d got=%d", summaryMaxChars, got)
	}
	if !strings.HasSuffix(analysis.Summary, "é") {
		t.Fatalf("summary lost its final rune: %q", analysis.Summary[len(analysis.Summary)-4:])
	}
}

func TestAnalyzeBatchOmitsFailedItems(t *testing.T) {
	badID := uuid.New()
	ai := &fakeAIClient{
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			if strings.Contains(user, "bad item") {
				return nil, &openai.ServiceError{Service: "openai", Operation: "generate_json"}
			}
			return validExtraction(), nil
		},
	}
	repo := newFakeAnalysisRepo()
	svc := newAnalysisService(ai, &fakeStore{}, repo)

	inputs := []AnalyzeContentInput{
		{ContentID: uuid.New(), ContentType: types.ContentTypeResource, Title: "good one", Description: "fine"},
		{ContentID: badID, ContentType: types.ContentTypeResource, Title: "bad item", Description: "fails"},
		{ContentID: uuid.New(), ContentType: types.ContentTypeResource, Title: "another good", Description: "fine"},
	}
	results, err := svc.AnalyzeBatch(context.Background(), inputs)
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results: want=2 got=%d", len(results))
	}
	for _, r := range results {
		if r.ContentID == badID {
			t.Fatal("failed item present in results")
		}
	}
}

func TestFindSimilarRejectsModelMismatch(t *testing.T) {
	repo := newFakeAnalysisRepo()
	contentID := uuid.New()
	repo.rows[contentID] = &types.ContentAnalysis{
		ContentID:  contentID,
		EmbedModel: "text-embedding-ancient",
		EmbedDim:   3,
		Embedding:  mustJSON([]float32{1, 0, 0}),
	}
	svc := newAnalysisService(&fakeAIClient{}, &fakeStore{}, repo)

	_, err := svc.FindSimilar(context.Background(), contentID, 5)
	if err == nil || !strings.Contains(err.Error(), "model mismatch") {
		t.Fatalf("want model mismatch error, got %v", err)
	}
}

func TestFindSimilarExcludesSelf(t *testing.T) {
	repo := newFakeAnalysisRepo()
	contentID, otherID := uuid.New(), uuid.New()
	repo.rows[contentID] = &types.ContentAnalysis{
		ContentID:  contentID,
		EmbedModel: "text-embedding-3-small",
		EmbedDim:   3,
		Embedding:  mustJSON([]float32{1, 0, 0}),
	}
	repo.rows[otherID] = &types.ContentAnalysis{
		ContentID:   otherID,
		ContentType: types.ContentTypePost,
		EmbedModel:  "text-embedding-3-small",
	}
	store := &fakeStore{matches: map[string][]vector.Match{
		"": {
			{ID: contentID.String(), Score: 1.0},
			{ID: otherID.String(), Score: 0.7},
		},
	}}
	svc := newAnalysisService(&fakeAIClient{}, store, repo)

	similar, err := svc.FindSimilar(context.Background(), contentID, 5)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(similar) != 1 {
		t.Fatalf("similar: want=1 got=%d", len(similar))
	}
	if similar[0].ContentID != otherID || similar[0].ContentType != types.ContentTypePost {
		t.Fatalf("unexpected result: %+v", similar[0])
	}
}

func TestExtractKeywordsFallsBackEmpty(t *testing.T) {
	ai := &fakeAIClient{
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			return nil, &openai.ServiceError{Service: "openai", Operation: "generate_json"}
		},
	}
	svc := newAnalysisService(ai, &fakeStore{}, newFakeAnalysisRepo())

	keywords, err := svc.ExtractKeywords(context.Background(), "some text", 0)
	if err != nil {
		t.Fatalf("ExtractKeywords: %v", err)
	}
	if len(keywords) != 0 {
		t.Fatalf("want empty keywords, got %v", keywords)
	}
}

func TestExtractKeywordsHonorsCount(t *testing.T) {
	var systemPrompt string
	ai := &fakeAIClient{
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			systemPrompt = system
			return map[string]any{"keywords": []any{"one", "two", "three", "four", "five", "six"}}, nil
		},
	}
	svc := newAnalysisService(ai, &fakeStore{}, newFakeAnalysisRepo())

	keywords, err := svc.ExtractKeywords(context.Background(), "some text", 3)
	if err != nil {
		t.Fatalf("ExtractKeywords: %v", err)
	}
	if !strings.Contains(systemPrompt, "up to 3") {
		t.Fatalf("prompt ignores count: %q", systemPrompt)
	}
	if len(keywords) != 3 {
		t.Fatalf("keywords: want=3 got=%d", len(keywords))
	}

	if _, err := svc.ExtractKeywords(context.Background(), "some text", 0); err != nil {
		t.Fatalf("ExtractKeywords default: %v", err)
	}
	if !strings.Contains(systemPrompt, "up to 5") {
		t.Fatalf("prompt ignores default count: %q", systemPrompt)
	}
}

func TestFindSimilarDefaultsLimit(t *testing.T) {
	repo := newFakeAnalysisRepo()
	contentID := uuid.New()
	repo.rows[contentID] = &types.ContentAnalysis{
		ContentID:  contentID,
		EmbedModel: "text-embedding-3-small",
		EmbedDim:   3,
		Embedding:  mustJSON([]float32{1, 0, 0}),
	}
	store := &fakeStore{}
	svc := newAnalysisService(&fakeAIClient{}, store, repo)

	if _, err := svc.FindSimilar(context.Background(), contentID, 0); err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	// default 5 plus the self slot
	if len(store.queries) != 1 || store.queries[0].TopK != 6 {
		t.Fatalf("queries: %+v", store.queries)
	}
}

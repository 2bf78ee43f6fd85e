package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/looplearn/looplearn-backend/internal/repos/testutil"
	"github.com/looplearn/looplearn-backend/internal/types"
)

func TestContentAnalysisRepoUpsertOverwrites(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewContentAnalysisRepo(db, testutil.Logger(t))
	ctx := context.Background()

	contentID := uuid.New()
	first := &types.ContentAnalysis{
		ID:              uuid.New(),
		ContentID:       contentID,
		ContentType:     types.ContentTypeResource,
		Topics:          datatypes.JSON([]byte(`["go"]`)),
		DifficultyLevel: types.DifficultyBeginner,
		Summary:         "first pass",
		EmbedModel:      "text-embedding-3-small",
		EmbedDim:        1536,
		AnalyzedAt:      time.Now(),
	}
	if _, err := repo.Upsert(ctx, tx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := &types.ContentAnalysis{
		ID:              uuid.New(),
		ContentID:       contentID,
		ContentType:     types.ContentTypeResource,
		Topics:          datatypes.JSON([]byte(`["go","testing"]`)),
		DifficultyLevel: types.DifficultyIntermediate,
		Summary:         "second pass",
		EmbedModel:      "text-embedding-3-small",
		EmbedDim:        1536,
		AnalyzedAt:      time.Now(),
	}
	if _, err := repo.Upsert(ctx, tx, second); err != nil {
		t.Fatalf("Upsert (second): %v", err)
	}

	got, err := repo.GetByContentID(ctx, tx, contentID)
	if err != nil {
		t.Fatalf("GetByContentID: %v", err)
	}
	if got.Summary != "second pass" {
		t.Fatalf("Upsert did not overwrite: summary=%q", got.Summary)
	}
	if got.DifficultyLevel != types.DifficultyIntermediate {
		t.Fatalf("Upsert did not overwrite: difficulty=%q", got.DifficultyLevel)
	}

	all, err := repo.GetByContentIDs(ctx, tx, []uuid.UUID{contentID})
	if err != nil {
		t.Fatalf("GetByContentIDs: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 analysis row per content, got %d", len(all))
	}
}

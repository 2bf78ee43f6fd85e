package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/repos/testutil"
	"github.com/looplearn/looplearn-backend/internal/types"
)

func TestUserActivityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	userRepo := NewUserRepo(db, testutil.Logger(t))
	repo := NewUserActivityRepo(db, testutil.Logger(t))
	ctx := context.Background()

	users, err := userRepo.Create(ctx, tx, []*types.User{
		{ID: uuid.New(), Email: "activityrepo@example.com", Password: "pw", FirstName: "A", LastName: "B"},
	})
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	userID := users[0].ID

	created, err := repo.Create(ctx, tx, []*types.UserActivity{
		{ID: uuid.New(), UserID: userID, ActivityType: types.ActivityView, ContentID: uuid.New(), ContentType: types.ContentTypeResource, DurationSeconds: 30},
		{ID: uuid.New(), UserID: userID, ActivityType: types.ActivityBookmark, ContentID: uuid.New(), ContentType: types.ContentTypePost},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Create: expected 2 activities, got %d", len(created))
	}

	recent, err := repo.GetRecentByUserID(ctx, tx, userID, 10)
	if err != nil {
		t.Fatalf("GetRecentByUserID: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("GetRecentByUserID: expected 2, got %d", len(recent))
	}

	limited, err := repo.GetRecentByUserID(ctx, tx, userID, 1)
	if err != nil {
		t.Fatalf("GetRecentByUserID (limit): %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("GetRecentByUserID (limit): expected 1, got %d", len(limited))
	}

	since, err := repo.GetByUserSince(ctx, tx, userID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetByUserSince: %v", err)
	}
	if len(since) != 2 {
		t.Fatalf("GetByUserSince: expected 2, got %d", len(since))
	}

	count, err := repo.CountByUserID(ctx, tx, userID)
	if err != nil {
		t.Fatalf("CountByUserID: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountByUserID: expected 2, got %d", count)
	}
}

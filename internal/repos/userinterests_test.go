package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/looplearn/looplearn-backend/internal/repos/testutil"
	"github.com/looplearn/looplearn-backend/internal/types"
)

func TestUserInterestsRepoUpsertOverwrites(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	userRepo := NewUserRepo(db, testutil.Logger(t))
	repo := NewUserInterestsRepo(db, testutil.Logger(t))
	ctx := context.Background()

	users, err := userRepo.Create(ctx, tx, []*types.User{
		{ID: uuid.New(), Email: "interestsrepo@example.com", Password: "pw", FirstName: "A", LastName: "B"},
	})
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	userID := users[0].ID

	if _, err := repo.Upsert(ctx, tx, &types.UserInterests{
		ID:               uuid.New(),
		UserID:           userID,
		PrimaryInterests: datatypes.JSON([]byte(`["go"]`)),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if _, err := repo.Upsert(ctx, tx, &types.UserInterests{
		ID:               uuid.New(),
		UserID:           userID,
		PrimaryInterests: datatypes.JSON([]byte(`["rust","distributed-systems"]`)),
	}); err != nil {
		t.Fatalf("Upsert (second): %v", err)
	}

	got, err := repo.GetByUserID(ctx, tx, userID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if string(got.PrimaryInterests) != `["rust","distributed-systems"]` {
		t.Fatalf("snapshot not overwritten: %s", got.PrimaryInterests)
	}
}

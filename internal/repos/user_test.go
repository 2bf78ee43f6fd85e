package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/repos/testutil"
	"github.com/looplearn/looplearn-backend/internal/types"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, tx, []*types.User{
		{
			ID:        uuid.New(),
			Email:     "userrepo@example.com",
			Password:  "pw",
			FirstName: "A",
			LastName:  "B",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Create: expected 1 user, got %d", len(created))
	}

	gotByID, err := repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotByID.ID != created[0].ID {
		t.Fatalf("GetByID: unexpected result: %+v", gotByID)
	}

	gotByEmail, err := repo.GetByEmail(ctx, tx, created[0].Email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if gotByEmail.Email != created[0].Email {
		t.Fatalf("GetByEmail: unexpected result: %+v", gotByEmail)
	}

	if err := repo.UpdateFields(ctx, tx, created[0].ID, map[string]any{"bio": "updated"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	updated, err := repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID (after update): %v", err)
	}
	if updated.Bio != "updated" {
		t.Fatalf("UpdateFields: bio not updated: %+v", updated)
	}
}

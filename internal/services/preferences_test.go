package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/types"
)

func TestAggregateProfileWeightsEngagement(t *testing.T) {
	resourceID := uuid.New()
	postID := uuid.New()
	meta := map[uuid.UUID]contentMeta{
		resourceID: {Category: "golang", Tags: []string{"concurrency", "testing"}},
		postID:     {Category: "databases", Tags: []string{"postgres"}},
	}

	at := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	activities := []*types.UserActivity{
		{UserID: uuid.New(), ActivityType: types.ActivityView, ContentID: resourceID, ContentType: types.ContentTypeResource, DurationSeconds: 40, CreatedAt: at},
		{UserID: uuid.New(), ActivityType: types.ActivityView, ContentID: postID, ContentType: types.ContentTypePost, DurationSeconds: 20, CreatedAt: at},
	}
	bookmarks := []*types.Bookmark{
		{UserID: uuid.New(), ContentID: resourceID, ContentType: types.ContentTypeResource},
	}

	profile := AggregateProfile(activities, bookmarks, meta)

	// view=1 + bookmark=4 on the resource
	if profile.Categories["golang"] != 5 {
		t.Fatalf("golang weight: want=5 got=%d", profile.Categories["golang"])
	}
	if profile.Categories["databases"] != 1 {
		t.Fatalf("databases weight: want=1 got=%d", profile.Categories["databases"])
	}
	// content types count raw occurrences: view + bookmark = 2
	if profile.ContentTypes[types.ContentTypeResource] != 2 {
		t.Fatalf("resource content type count: want=2 got=%d", profile.ContentTypes[types.ContentTypeResource])
	}
	if profile.MostActiveHour != 14 {
		t.Fatalf("most active hour: want=14 got=%d", profile.MostActiveHour)
	}
	if profile.AvgViewSeconds != 30 {
		t.Fatalf("avg view seconds: want=30 got=%v", profile.AvgViewSeconds)
	}
}

func TestAggregateProfileIgnoresUnknownActivityType(t *testing.T) {
	contentID := uuid.New()
	activities := []*types.UserActivity{
		{ActivityType: "mystery", ContentID: contentID, ContentType: types.ContentTypeResource},
	}
	profile := AggregateProfile(activities, nil, nil)
	if profile.ActivityCount != 0 {
		t.Fatalf("unknown activity type counted: %d", profile.ActivityCount)
	}
	if len(profile.ContentTypes) != 0 {
		t.Fatalf("unknown activity type contributed weight: %v", profile.ContentTypes)
	}
}

func TestAggregateProfileWithoutMetadata(t *testing.T) {
	resourceID := uuid.New()
	activities := []*types.UserActivity{
		{ActivityType: types.ActivityView, ContentID: resourceID, ContentType: types.ContentTypeResource},
		{ActivityType: types.ActivityBookmark, ContentID: resourceID, ContentType: types.ContentTypeResource},
	}

	profile := AggregateProfile(activities, nil, nil)

	if profile.ContentTypes[types.ContentTypeResource] != 2 {
		t.Fatalf("resource content type count: want=2 got=%d", profile.ContentTypes[types.ContentTypeResource])
	}
	if len(profile.Categories) != 0 || len(profile.Tags) != 0 {
		t.Fatalf("expected empty category/tag maps without metadata: %v %v", profile.Categories, profile.Tags)
	}
}

func TestSentenceIsDeterministic(t *testing.T) {
	profile := &PreferenceProfile{
		Categories:     map[string]int{"golang": 5, "databases": 5, "ml": 2},
		Tags:           map[string]int{"postgres": 3, "concurrency": 3},
		SkillLevels:    map[string]int{types.DifficultyIntermediate: 4},
		MostActiveHour: 9,
		ActivityCount:  12,
		AvgViewSeconds: 45,
	}

	first := profile.Sentence()
	for i := 0; i < 5; i++ {
		if got := profile.Sentence(); got != first {
			t.Fatalf("sentence not deterministic:\n%s\n%s", first, got)
		}
	}
	// tie between golang and databases breaks alphabetically
	if !strings.Contains(first, "databases, golang, ml") {
		t.Fatalf("category ordering: got %q", first)
	}
	if !strings.Contains(first, "intermediate") {
		t.Fatalf("skill level missing: got %q", first)
	}
	if !strings.Contains(first, "09:00") {
		t.Fatalf("active hour missing: got %q", first)
	}
}

func TestSentenceEmptyProfile(t *testing.T) {
	profile := AggregateProfile(nil, nil, nil)
	got := profile.Sentence()
	if !strings.Contains(got, "exploring new topics") {
		t.Fatalf("empty profile sentence: got %q", got)
	}
}

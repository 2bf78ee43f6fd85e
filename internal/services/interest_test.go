package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/types"
)

func newInterestService(ai *fakeAIClient, interestsRepo *fakeInterestsRepo, activityRepo *fakeActivityRepo) InterestService {
	return NewInterestService(ai, &fakeAggregator{}, interestsRepo, activityRepo, nil, testLogger())
}

func TestAnalyzeUserInterestsPersistsSkillLevels(t *testing.T) {
	ai := &fakeAIClient{
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			return map[string]any{
				"primary_interests":   []any{"distributed systems"},
				"secondary_interests": []any{"databases"},
				"skills": []any{
					map[string]any{"topic": "go", "level": types.DifficultyAdvanced},
					map[string]any{"topic": "sql", "level": "expert"},
					map[string]any{"topic": "", "level": types.DifficultyBeginner},
				},
				"content_types":     []any{"resource", "learning_path"},
				"formats":           []any{"video"},
				"length_preference": "medium",
				"learning_goals":    []any{"ship a service"},
			}, nil
		},
	}
	interestsRepo := newFakeInterestsRepo()
	svc := newInterestService(ai, interestsRepo, &fakeActivityRepo{})

	userID := uuid.New()
	snapshot, err := svc.AnalyzeUserInterests(context.Background(), userID)
	if err != nil {
		t.Fatalf("AnalyzeUserInterests: %v", err)
	}

	var skills map[string]string
	if err := json.Unmarshal(snapshot.Skills, &skills); err != nil {
		t.Fatalf("decode skills: %v", err)
	}
	if len(skills) != 2 {
		t.Fatalf("skills: want=2 got=%v", skills)
	}
	if skills["go"] != types.DifficultyAdvanced {
		t.Fatalf("go level: got %q", skills["go"])
	}
	// unknown level falls back rather than dropping the topic
	if skills["sql"] != types.DifficultyBeginner {
		t.Fatalf("sql level: got %q", skills["sql"])
	}

	var prefs struct {
		ContentTypes     []string `json:"content_types"`
		Formats          []string `json:"formats"`
		LengthPreference string   `json:"length_preference"`
	}
	if err := json.Unmarshal(snapshot.ContentPreferences, &prefs); err != nil {
		t.Fatalf("decode content preferences: %v", err)
	}
	if len(prefs.ContentTypes) != 2 || len(prefs.Formats) != 1 || prefs.LengthPreference != "medium" {
		t.Fatalf("content preferences: %+v", prefs)
	}

	if _, ok := interestsRepo.rows[userID]; !ok {
		t.Fatal("snapshot not stored")
	}
}

func TestAnalyzeUserInterestsDefaultsMissingFields(t *testing.T) {
	ai := &fakeAIClient{
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			return map[string]any{"primary_interests": []any{"ml"}}, nil
		},
	}
	svc := newInterestService(ai, newFakeInterestsRepo(), &fakeActivityRepo{})

	snapshot, err := svc.AnalyzeUserInterests(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("AnalyzeUserInterests: %v", err)
	}
	var skills map[string]string
	if err := json.Unmarshal(snapshot.Skills, &skills); err != nil || len(skills) != 0 {
		t.Fatalf("skills default: %s (%v)", snapshot.Skills, err)
	}
	var goals []string
	if err := json.Unmarshal(snapshot.LearningGoals, &goals); err != nil || len(goals) != 0 {
		t.Fatalf("learning goals default: %s (%v)", snapshot.LearningGoals, err)
	}
}

func TestAnalyzeUserSegmentRequestsRecommendations(t *testing.T) {
	var capturedSchema map[string]any
	ai := &fakeAIClient{
		generateFn: func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
			capturedSchema = schema
			return map[string]any{
				"segment":         "skill builder",
				"engagement":      "high",
				"characteristics": []any{"consistent weekly activity"},
				"recommendations": []any{"suggest an advanced learning path"},
			}, nil
		},
	}
	svc := newInterestService(ai, newFakeInterestsRepo(), &fakeActivityRepo{})

	result, err := svc.AnalyzeUserSegment(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("AnalyzeUserSegment: %v", err)
	}
	props, _ := capturedSchema["properties"].(map[string]any)
	if _, ok := props["recommendations"]; !ok {
		t.Fatalf("schema missing recommendations: %v", props)
	}
	recs, ok := result["recommendations"].([]any)
	if !ok || len(recs) != 1 {
		t.Fatalf("recommendations: %v", result["recommendations"])
	}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/repos"
	"github.com/looplearn/looplearn-backend/internal/types"
)

// PreferenceProfile is the single canonical view of what a user cares
// about. Both interest profiling and recommendation generation read
// from it, so the two can never drift apart on how engagement is
// weighted.
type PreferenceProfile struct {
	Categories     map[string]int `json:"categories"`
	Tags           map[string]int `json:"tags"`
	ContentTypes   map[string]int `json:"content_types"`
	SkillLevels    map[string]int `json:"skill_levels"`
	MostActiveHour int            `json:"most_active_hour"`
	AvgViewSeconds float64        `json:"avg_view_seconds"`
	ActivityCount  int            `json:"activity_count"`
}

// Engagement weights: creating and bookmarking signal more intent
// than a passive view.
var activityWeights = map[string]int{
	types.ActivityView:     1,
	types.ActivityLike:     2,
	types.ActivityComment:  3,
	types.ActivityShare:    3,
	types.ActivityBookmark: 4,
	types.ActivityCreate:   5,
}

type contentMeta struct {
	Category   string
	Tags       []string
	Difficulty string
}

type PreferenceAggregator interface {
	BuildProfile(ctx context.Context, userID uuid.UUID) (*PreferenceProfile, error)
}

type preferenceAggregator struct {
	log           *logger.Logger
	activityRepo  repos.UserActivityRepo
	bookmarkRepo  repos.BookmarkRepo
	resourceRepo  repos.ResourceRepo
	postRepo      repos.PostRepo
	pathRepo      repos.LearningPathRepo
	historyWindow int
}

func NewPreferenceAggregator(
	activityRepo repos.UserActivityRepo,
	bookmarkRepo repos.BookmarkRepo,
	resourceRepo repos.ResourceRepo,
	postRepo repos.PostRepo,
	pathRepo repos.LearningPathRepo,
	baseLog *logger.Logger,
) PreferenceAggregator {
	svcLog := baseLog.With("service", "PreferenceAggregator")
	return &preferenceAggregator{
		log:           svcLog,
		activityRepo:  activityRepo,
		bookmarkRepo:  bookmarkRepo,
		resourceRepo:  resourceRepo,
		postRepo:      postRepo,
		pathRepo:      pathRepo,
		historyWindow: 100,
	}
}

func (s *preferenceAggregator) BuildProfile(ctx context.Context, userID uuid.UUID) (*PreferenceProfile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}

	activities, err := s.activityRepo.GetRecentByUserID(ctx, nil, userID, s.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	bookmarks, err := s.bookmarkRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}

	meta, err := s.resolveContentMeta(ctx, activities, bookmarks)
	if err != nil {
		return nil, err
	}

	return AggregateProfile(activities, bookmarks, meta), nil
}

// resolveContentMeta batches content lookups by type so aggregation
// never issues one query per activity row.
func (s *preferenceAggregator) resolveContentMeta(ctx context.Context, activities []*types.UserActivity, bookmarks []*types.Bookmark) (map[uuid.UUID]contentMeta, error) {
	idsByType := map[string]map[uuid.UUID]struct{}{}
	add := func(contentType string, id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if idsByType[contentType] == nil {
			idsByType[contentType] = map[uuid.UUID]struct{}{}
		}
		idsByType[contentType][id] = struct{}{}
	}
	for _, a := range activities {
		add(a.ContentType, a.ContentID)
	}
	for _, b := range bookmarks {
		add(b.ContentType, b.ContentID)
	}

	meta := make(map[uuid.UUID]contentMeta)

	if ids := idSet(idsByType[types.ContentTypeResource]); len(ids) > 0 {
		rows, err := s.resourceRepo.GetByIDs(ctx, nil, ids)
		if err != nil {
			return nil, fmt.Errorf("load resources: %w", err)
		}
		for _, row := range rows {
			meta[row.ID] = contentMeta{Category: row.Category, Tags: decodeTags(row.Tags)}
		}
	}
	if ids := idSet(idsByType[types.ContentTypePost]); len(ids) > 0 {
		rows, err := s.postRepo.GetByIDs(ctx, nil, ids)
		if err != nil {
			return nil, fmt.Errorf("load posts: %w", err)
		}
		for _, row := range rows {
			meta[row.ID] = contentMeta{Category: row.Category, Tags: decodeTags(row.Tags)}
		}
	}
	if ids := idSet(idsByType[types.ContentTypeLearningPath]); len(ids) > 0 {
		rows, err := s.pathRepo.GetByIDs(ctx, nil, ids)
		if err != nil {
			return nil, fmt.Errorf("load learning paths: %w", err)
		}
		for _, row := range rows {
			meta[row.ID] = contentMeta{Category: row.Category, Tags: decodeTags(row.Tags), Difficulty: row.Difficulty}
		}
	}
	return meta, nil
}

// AggregateProfile folds activities and bookmarks into one weighted
// profile. Pure so the weighting rules can be tested without a
// database.
func AggregateProfile(activities []*types.UserActivity, bookmarks []*types.Bookmark, meta map[uuid.UUID]contentMeta) *PreferenceProfile {
	profile := &PreferenceProfile{
		Categories:   map[string]int{},
		Tags:         map[string]int{},
		ContentTypes: map[string]int{},
		SkillLevels:  map[string]int{},
	}

	hourCounts := map[int]int{}
	viewSecondsTotal := 0
	viewCount := 0

	// ContentTypes counts raw occurrences; the engagement weights only
	// shape categories, tags and skill levels.
	apply := func(contentID uuid.UUID, contentType string, weight int) {
		if contentType != "" {
			profile.ContentTypes[contentType]++
		}
		m, ok := meta[contentID]
		if !ok {
			return
		}
		if m.Category != "" {
			profile.Categories[m.Category] += weight
		}
		for _, tag := range m.Tags {
			if tag != "" {
				profile.Tags[tag] += weight
			}
		}
		if m.Difficulty != "" {
			profile.SkillLevels[m.Difficulty] += weight
		}
	}

	for _, a := range activities {
		weight, ok := activityWeights[a.ActivityType]
		if !ok {
			continue
		}
		apply(a.ContentID, a.ContentType, weight)
		hourCounts[a.CreatedAt.Hour()]++
		if a.ActivityType == types.ActivityView && a.DurationSeconds > 0 {
			viewSecondsTotal += a.DurationSeconds
			viewCount++
		}
		profile.ActivityCount++
	}
	for _, b := range bookmarks {
		apply(b.ContentID, b.ContentType, activityWeights[types.ActivityBookmark])
	}

	bestHour, bestCount := 0, 0
	for hour, count := range hourCounts {
		if count > bestCount || (count == bestCount && hour < bestHour) {
			bestHour, bestCount = hour, count
		}
	}
	profile.MostActiveHour = bestHour
	if viewCount > 0 {
		profile.AvgViewSeconds = float64(viewSecondsTotal) / float64(viewCount)
	}
	return profile
}

// Sentence renders the profile as the natural-language query embedded
// for vector search. Top 3 categories, top 5 tags, dominant skill
// level; ties break alphabetically so output is deterministic.
func (p *PreferenceProfile) Sentence() string {
	var parts []string

	if cats := topKeys(p.Categories, 3); len(cats) > 0 {
		parts = append(parts, "Learner focused on "+strings.Join(cats, ", "))
	} else {
		parts = append(parts, "Learner exploring new topics")
	}
	if tags := topKeys(p.Tags, 5); len(tags) > 0 {
		parts = append(parts, "frequently engages with "+strings.Join(tags, ", "))
	}
	if skills := topKeys(p.SkillLevels, 1); len(skills) > 0 {
		parts = append(parts, "prefers "+skills[0]+" material")
	}
	if p.ActivityCount > 0 {
		parts = append(parts, fmt.Sprintf("most active around %02d:00", p.MostActiveHour))
	}
	if p.AvgViewSeconds > 0 {
		parts = append(parts, fmt.Sprintf("typical view time %.0f seconds", p.AvgViewSeconds))
	}
	return strings.Join(parts, "; ") + "."
}

func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] == counts[keys[j]] {
			return keys[i] < keys[j]
		}
		return counts[keys[i]] > counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func idSet(set map[uuid.UUID]struct{}) []uuid.UUID {
	if len(set) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func decodeTags(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}

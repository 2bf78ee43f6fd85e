package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/observability"
	"github.com/looplearn/looplearn-backend/internal/repos"
	"github.com/looplearn/looplearn-backend/internal/types"
)

const (
	debounceWindow     = 5 * time.Minute
	debounceMaxEntries = 4096
)

type TrackActivityInput struct {
	ActivityType    string         `json:"activity_type"`
	ContentID       uuid.UUID      `json:"content_id"`
	ContentType     string         `json:"content_type"`
	DurationSeconds int            `json:"duration_seconds"`
	Metadata        map[string]any `json:"metadata"`
}

type ActivityService interface {
	Track(ctx context.Context, userID uuid.UUID, input TrackActivityInput) (*types.UserActivity, error)
	Close()
}

type activityService struct {
	log          *logger.Logger
	activityRepo repos.UserActivityRepo
	debouncer    *debouncer
}

// NewActivityService wires activity ingest to debounced interest
// recomputation: each tracked activity arms (or re-arms) a per-user
// timer, and the interest snapshot is recomputed once the user goes
// quiet.
func NewActivityService(
	activityRepo repos.UserActivityRepo,
	interests InterestService,
	baseLog *logger.Logger,
) ActivityService {
	svcLog := baseLog.With("service", "ActivityService")
	fire := func(userID uuid.UUID) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, err := interests.AnalyzeUserInterests(ctx, userID); err != nil {
			svcLog.Warn("Debounced interest recompute failed", "user_id", userID, "error", err)
		}
	}
	return &activityService{
		log:          svcLog,
		activityRepo: activityRepo,
		debouncer:    newDebouncer(debounceWindow, debounceMaxEntries, fire),
	}
}

func (s *activityService) Track(ctx context.Context, userID uuid.UUID, input TrackActivityInput) (*types.UserActivity, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	switch input.ActivityType {
	case types.ActivityView, types.ActivityLike, types.ActivityComment,
		types.ActivityShare, types.ActivityBookmark, types.ActivityCreate:
	default:
		return nil, fmt.Errorf("unknown activity type %q", input.ActivityType)
	}
	if input.ContentID == uuid.Nil {
		return nil, fmt.Errorf("content id required")
	}
	if input.ContentType == "" {
		return nil, fmt.Errorf("content type required")
	}

	activity := &types.UserActivity{
		UserID:          userID,
		ActivityType:    input.ActivityType,
		ContentID:       input.ContentID,
		ContentType:     input.ContentType,
		DurationSeconds: input.DurationSeconds,
	}
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		activity.Metadata = datatypes.JSON(raw)
	}

	created, err := s.activityRepo.Create(ctx, nil, []*types.UserActivity{activity})
	if err != nil {
		return nil, fmt.Errorf("store activity: %w", err)
	}

	s.debouncer.Touch(userID)
	return created[0], nil
}

func (s *activityService) Close() {
	s.debouncer.Stop()
}

type debounceEntry struct {
	timer   *time.Timer
	armedAt time.Time
}

// debouncer holds one pending timer per user. State is in-memory and
// best-effort: a restart loses pending recomputations, which the next
// activity re-arms. The map is capped; when full, the oldest pending
// user is flushed immediately rather than dropped.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	fire    func(uuid.UUID)
	pending map[uuid.UUID]*debounceEntry
	stopped bool
}

func newDebouncer(window time.Duration, max int, fire func(uuid.UUID)) *debouncer {
	return &debouncer{
		window:  window,
		max:     max,
		fire:    fire,
		pending: make(map[uuid.UUID]*debounceEntry),
	}
}

// Touch arms the user's timer, superseding any pending one.
func (d *debouncer) Touch(userID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if entry, ok := d.pending[userID]; ok {
		entry.timer.Stop()
		entry.timer.Reset(d.window)
		entry.armedAt = time.Now()
		return
	}

	if len(d.pending) >= d.max {
		d.flushOldestLocked()
	}

	entry := &debounceEntry{armedAt: time.Now()}
	entry.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.pending, userID)
		d.reportPendingLocked()
		d.mu.Unlock()
		d.fire(userID)
	})
	d.pending[userID] = entry
	d.reportPendingLocked()
}

func (d *debouncer) reportPendingLocked() {
	if metrics := observability.Current(); metrics != nil {
		metrics.SetDebouncePending(len(d.pending))
	}
}

func (d *debouncer) flushOldestLocked() {
	var oldestID uuid.UUID
	var oldest *debounceEntry
	for id, entry := range d.pending {
		if oldest == nil || entry.armedAt.Before(oldest.armedAt) {
			oldestID, oldest = id, entry
		}
	}
	if oldest == nil {
		return
	}
	oldest.timer.Stop()
	delete(d.pending, oldestID)
	d.reportPendingLocked()
	go d.fire(oldestID)
}

// Stop cancels all pending timers without firing them.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for id, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, id)
	}
	d.reportPendingLocked()
}

func (d *debouncer) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerUpdate(t *testing.T) {
	ctx, tracker := WithNewTracker(context.Background(), "pass-1", "full", nil)

	UpdateCtx(ctx, Delta{Evaluated: 3, Promoted: 1})
	UpdateCtx(ctx, Delta{Evaluated: 2, Demoted: 1, Cached: 2})

	snapshot, ok := GetSnapshot(ctx)
	assert.True(t, ok)
	assert.Equal(t, "pass-1", snapshot.PassID)
	assert.Equal(t, 5, snapshot.EvaluatedProcs)
	assert.Equal(t, 1, snapshot.PromotedProcs)
	assert.Equal(t, 1, snapshot.DemotedProcs)
	assert.Equal(t, 2, snapshot.CachedProcs)
	assert.Equal(t, tracker.Snapshot().EvaluatedProcs, snapshot.EvaluatedProcs)
}

func TestTrackerOnChange(t *testing.T) {
	_, tracker := WithNewTracker(context.Background(), "pass-2", "targets", nil)

	var mu sync.Mutex
	var seen []int
	tracker.OnChange(func(p Progress) {
		mu.Lock()
		seen = append(seen, p.EvaluatedProcs)
		mu.Unlock()
	})

	tracker.Update(Delta{Evaluated: 1})
	tracker.Update(Delta{Evaluated: 1})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, seen)
}

func TestMissingTracker(t *testing.T) {
	_, ok := GetSnapshot(context.Background())
	assert.False(t, ok)
	// must not panic
	UpdateCtx(context.Background(), Delta{Evaluated: 1})
}

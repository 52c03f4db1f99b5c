package points

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/backend/internal/models"
)

type fakeLedger struct {
	mu     sync.Mutex
	totals map[string]int64
	names  map[string]string
	addErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{totals: map[string]int64{}, names: map[string]string{}}
}

func (f *fakeLedger) AddPoints(ctx context.Context, userID string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.totals[userID] += delta
	return nil
}

func (f *fakeLedger) TopProfiles(ctx context.Context, limit int) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var profiles []models.Profile
	for id, pts := range f.totals {
		profiles = append(profiles, models.Profile{ID: id, FullName: f.names[id], Points: pts})
	}
	// Highest first.
	for i := 0; i < len(profiles); i++ {
		for j := i + 1; j < len(profiles); j++ {
			if profiles[j].Points > profiles[i].Points {
				profiles[i], profiles[j] = profiles[j], profiles[i]
			}
		}
	}
	if len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

func (f *fakeLedger) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pts, ok := f.totals[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &models.Profile{ID: id, FullName: f.names[id], Points: pts}, nil
}

func (f *fakeLedger) total(userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[userID]
}

func TestAwardIsAsynchronous(t *testing.T) {
	ledger := newFakeLedger()
	svc := New(ledger, nil)

	svc.Award("u1", DeltaPost, "post")
	svc.Award("u1", DeltaLike, "like")

	assert.Eventually(t, func() bool {
		return ledger.total("u1") == DeltaPost+DeltaLike
	}, time.Second, 10*time.Millisecond)
}

func TestAwardIgnoresEmptyUserAndZeroDelta(t *testing.T) {
	ledger := newFakeLedger()
	svc := New(ledger, nil)

	svc.Award("", DeltaPost, "post")
	svc.Award("u1", 0, "noop")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, ledger.total("u1"))
}

func TestAwardFailureNeverSurfaces(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addErr = errors.New("database down")
	svc := New(ledger, nil)

	// Must not panic or block the caller.
	svc.Award("u1", DeltaRegister, "register")
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, ledger.total("u1"))
}

func TestTopFallsBackToDatabase(t *testing.T) {
	ledger := newFakeLedger()
	ledger.totals["a"] = 12
	ledger.totals["b"] = 7
	ledger.names["a"] = "Ada"
	ledger.names["b"] = "Grace"
	svc := New(ledger, nil)

	entries, err := svc.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].UserID)
	assert.Equal(t, "Ada", entries[0].FullName)
	assert.Equal(t, int64(12), entries[0].Points)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestTopClampsLimit(t *testing.T) {
	ledger := newFakeLedger()
	ledger.totals["a"] = 1
	svc := New(ledger, nil)

	entries, err := svc.Top(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Schedule Computation Tests
// ==========================

func TestNextRun(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		at      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "later today",
			now:  base,
			at:   "09:00",
			want: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "already passed rolls to tomorrow",
			now:  base,
			at:   "06:00",
			want: time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly now rolls to tomorrow",
			now:  base,
			at:   "08:30",
			want: time.Date(2026, 3, 11, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "midnight",
			now:  base,
			at:   "00:00",
			want: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{name: "missing colon", now: base, at: "0900", wantErr: true},
		{name: "hour out of range", now: base, at: "24:00", wantErr: true},
		{name: "minute out of range", now: base, at: "09:60", wantErr: true},
		{name: "not a number", now: base, at: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextRun(tt.now, tt.at)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

// ==========================
// Sweep Lock Tests
// ==========================

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSweepLock_AcquireAndRelease(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	first := NewSweepLock(client, "notifier:sweep-lock", time.Minute)
	second := NewSweepLock(client, "notifier:sweep-lock", time.Minute)

	acquired, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)

	// A second instance cannot take a held lease.
	acquired, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, first.Release(ctx))

	acquired, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestSweepLock_ReleaseOnlyByHolder(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	holder := NewSweepLock(client, "notifier:sweep-lock", time.Minute)
	intruder := NewSweepLock(client, "notifier:sweep-lock", time.Minute)

	acquired, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// Releasing a lease owned by someone else is a no-op.
	require.NoError(t, intruder.Release(ctx))

	acquired, err = intruder.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestSweepLock_ExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	first := NewSweepLock(client, "notifier:sweep-lock", time.Minute)
	second := NewSweepLock(client, "notifier:sweep-lock", time.Minute)

	acquired, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// A dead holder's lease frees itself once the TTL passes.
	mr.FastForward(2 * time.Minute)

	acquired, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
}

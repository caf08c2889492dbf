package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calls   atomic.Int32
	ttl     time.Duration
	expired int64
	err     error
}

func (f *fakeExpirer) ExpireStaleOrders(_ context.Context, ttl time.Duration) (int64, error) {
	f.calls.Add(1)
	f.ttl = ttl
	return f.expired, f.err
}

func TestSweepOnce(t *testing.T) {
	expirer := &fakeExpirer{expired: 3}
	s, err := NewScheduler(expirer, "@every 1h", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, int64(3), s.SweepOnce(context.Background()))
	assert.Equal(t, 24*time.Hour, expirer.ttl)

	expirer.err = errors.New("db down")
	assert.Equal(t, int64(0), s.SweepOnce(context.Background()))
	assert.Equal(t, int32(2), expirer.calls.Load())
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(&fakeExpirer{}, "every ten minutes", time.Hour)
	assert.Error(t, err)
}

func TestSchedulerRunsOnSchedule(t *testing.T) {
	expirer := &fakeExpirer{}
	s, err := NewScheduler(expirer, "@every 1s", time.Hour)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return expirer.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("@every 30m"))
	assert.NoError(t, Validate("0 */30 * * * *"))
	assert.NoError(t, Validate("*/5 * * * *"))
	assert.Error(t, Validate("every half hour"))
}

func TestScheduler_RunsJob(t *testing.T) {
	s := New(time.Second)
	var runs int32
	require.NoError(t, s.Add("@every 1s", "ledger-audit", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		atomic.AddInt32(&runs, 1)
		return nil
	}))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := New(time.Second)
	assert.Error(t, s.Add("nope", "bad", func(context.Context) error { return nil }))
}

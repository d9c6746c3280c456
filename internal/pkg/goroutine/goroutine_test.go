package goroutine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RunsDetachedFromCaller(t *testing.T) {
	m := NewManager(2, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan error, 1)

	m.Go(ctx, func(taskCtx context.Context) error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		done <- taskCtx.Err()
		return nil
	})

	<-started
	cancel()

	require.NoError(t, m.Wait())
	assert.NoError(t, <-done)
}

func TestManager_TaskTimeout(t *testing.T) {
	m := NewManager(1, 10*time.Millisecond)

	m.Go(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, m.Wait(), context.DeadlineExceeded)
}

func TestManager_CollectsErrorsAndRecovers(t *testing.T) {
	m := NewManager(4, 0)
	boom := errors.New("boom")

	m.Go(context.Background(), func(context.Context) error { return boom })
	m.Go(context.Background(), func(context.Context) error { panic("oops") })

	err := m.Wait()
	assert.ErrorIs(t, err, boom)

	ran := false
	m.Go(context.Background(), func(context.Context) error { ran = true; return nil })
	assert.False(t, ran)
}

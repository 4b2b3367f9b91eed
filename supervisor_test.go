package scheduled

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSupervisedRestartsOnFailure(t *testing.T) {
	var calls int32

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- RunSupervised(ctx, func(context.Context) error {
			n := atomic.AddInt32(&calls, 1)
			if n < 3 {
				return errors.New("boom")
			}
			cancel()
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("RunSupervised did not return after cancellation")
	}

	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestRunSupervisedReturnsImmediatelyWhenAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := RunSupervised(ctx, func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

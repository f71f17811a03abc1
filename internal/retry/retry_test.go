package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fast returns the default policy with sleeps shrunk to microseconds so the
// schedule shape is preserved without the 15-second wall-clock cost.
func fast() Policy {
	p := Default(nil)
	p.InitialInterval = time.Microsecond
	return p
}

func TestDoExhaustsAttemptBudget(t *testing.T) {
	boom := errors.New("bucket unavailable")
	calls := 0

	err := fast().Do(context.Background(), "read object", func() error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.Equal(t, 5, calls, "an always-failing operation is attempted exactly 5 times")
	assert.ErrorIs(t, err, boom, "the original error propagates after exhaustion")
	assert.Contains(t, err.Error(), "read object")
}

func TestDoStopsOnFirstSuccess(t *testing.T) {
	calls := 0

	err := fast().Do(context.Background(), "fetch", func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDefaultBackoffSchedule(t *testing.T) {
	p := Default(nil)
	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, time.Second, p.InitialInterval, "sleeps follow 1+2+4+8 seconds")
}

func TestDoHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	p := Default(nil) // full-length sleeps; cancelation must cut them short
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, "fetch", func() error {
			calls++
			return errors.New("flaky")
		})
	}()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after context cancelation")
	}
	assert.LessOrEqual(t, calls, 2)
}

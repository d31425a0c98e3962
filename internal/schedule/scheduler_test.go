package schedule

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_Every(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s, err := New(func(context.Context, string) error { return nil }, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.Every("./repo", 10*time.Second, false)
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := New(func(context.Context, string) error { return nil }, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.Every("./repo", 0, false)
		require.Error(t, err)
	})
}

func TestNew_RequiresRunFunc(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestScheduler_RunsImmediately(t *testing.T) {
	var calls atomic.Int32
	var got atomic.Value
	s, err := New(func(_ context.Context, locator string) error {
		got.Store(locator)
		calls.Add(1)
		return stderrors.New("failures are logged")
	}, nil)
	require.NoError(t, err)

	_, err = s.Every("https://github.com/acme/widgets", time.Hour, true)
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, "https://github.com/acme/widgets", got.Load())
}

func TestScheduler_StopCancelsRunningPass(t *testing.T) {
	started := make(chan struct{})
	var canceled atomic.Bool
	s, err := New(func(ctx context.Context, _ string) error {
		close(started)
		<-ctx.Done()
		canceled.Store(true)
		return ctx.Err()
	}, nil)
	require.NoError(t, err)
	_, err = s.Every("./repo", time.Hour, true)
	require.NoError(t, err)
	s.Start()

	<-started
	require.NoError(t, s.Stop())
	require.Eventually(t, canceled.Load, time.Second, 10*time.Millisecond)
}

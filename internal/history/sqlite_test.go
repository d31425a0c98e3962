package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndEvents(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "r1", EventRunStarted, RunPayload{TargetID: "acme_widgets"}))
	require.NoError(t, s.Append(ctx, "r1", EventStageCompleted, StagePayload{Stage: "planning", DurationMS: 3}))
	require.NoError(t, s.Append(ctx, "r2", EventRunStarted, RunPayload{TargetID: "other"}))

	events, err := s.Events(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, EventRunStarted, events[0].Type)
	require.Equal(t, EventStageCompleted, events[1].Type)

	var stage StagePayload
	require.NoError(t, events[1].Decode(&stage))
	require.Equal(t, "planning", stage.Stage)
	require.Equal(t, int64(3), stage.DurationMS)
}

func TestDecodeInvalidPayload(t *testing.T) {
	err := Event{Type: "x", Payload: []byte("{")}.Decode(&RunPayload{})
	require.True(t, errors.HasCategory(err, errors.CategoryHistory))
}

func TestSaveRunAndList(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, outcome := range []string{"success", "degraded", "failed"} {
		require.NoError(t, s.SaveRun(ctx, Run{
			RunID:      string(rune('a' + i)),
			TargetID:   "acme_widgets",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 5*time.Second),
			Outcome:    outcome,
			Overall:    70 + i,
		}))
	}
	require.NoError(t, s.SaveRun(ctx, Run{RunID: "z", TargetID: "other", StartedAt: base}))

	runs, err := s.Runs(ctx, "acme_widgets", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, "c", runs[0].RunID)
	require.Equal(t, "failed", runs[0].Outcome)
	require.Equal(t, 5*time.Second, runs[0].Duration())

	limited, err := s.Runs(ctx, "acme_widgets", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	all, err := s.Runs(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)

	latest, err := s.Latest(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, "z", latest.RunID)
	require.Zero(t, latest.Duration())

	none, err := s.Latest(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestSaveRunReplaces(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, s.SaveRun(ctx, Run{RunID: "r", TargetID: "t", StartedAt: now}))
	require.NoError(t, s.SaveRun(ctx, Run{RunID: "r", TargetID: "t", StartedAt: now, Outcome: "success", Overall: 88, Approval: "approved"}))

	runs, err := s.Runs(ctx, "t", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 88, runs[0].Overall)
	require.Equal(t, "approved", runs[0].Approval)
}

func TestOpenFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(context.Background(), Run{RunID: "r", TargetID: "t", StartedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	runs, err := s.Runs(context.Background(), "t", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

package acquire

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/workspace"
)

func TestTargetID(t *testing.T) {
	cases := map[string]string{
		"https://github.com/acme/widgets":      "acme_widgets",
		"https://github.com/acme/widgets.git":  "acme_widgets",
		"https://github.com/acme/widgets/":     "acme_widgets",
		"git@github.com:acme/widgets.git":      "acme_widgets",
		"ssh://git@host:22/group/sub/tool.git": "sub_tool",
		"file:///srv/repos/svc":                "repos_svc",
		"/home/me/projects/my app":             "my_app",
		"./":                                   TargetID(mustWd(t)),
	}
	for in, want := range cases {
		require.Equal(t, want, TargetID(in), in)
	}
}

func mustWd(t *testing.T) string {
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}

func TestIsRemote(t *testing.T) {
	require.True(t, IsRemote("https://x/y"))
	require.True(t, IsRemote("git@x:y/z"))
	require.False(t, IsRemote("/tmp/x"))
	require.False(t, IsRemote("relative/dir"))
}

func TestAcquire_LocalDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o600))

	co, err := New(config.AcquireConfig{}, nil, nil).Acquire(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, dir, co.Dir)
	require.False(t, co.Remote)
	require.Empty(t, co.Commit)
	require.NoError(t, co.Release())
	require.DirExists(t, dir)
}

func TestAcquire_MissingDirectoryIsFatal(t *testing.T) {
	_, err := New(config.AcquireConfig{}, nil, nil).Acquire(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	require.True(t, errors.IsFatal(err))
	require.True(t, errors.HasCategory(err, errors.CategoryAcquisition))
}

func TestAcquire_FileIsNotADirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
	_, err := New(config.AcquireConfig{}, nil, nil).Acquire(context.Background(), f)
	require.True(t, errors.HasCategory(err, errors.CategoryAcquisition))
}

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600))
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestAcquire_CloneRemote(t *testing.T) {
	origin, commit := initRepo(t)
	base := t.TempDir()
	a := New(config.AcquireConfig{}, workspace.NewManager(base), nil)

	co, err := a.Acquire(context.Background(), "file://"+origin)
	require.NoError(t, err)
	require.True(t, co.Remote)
	require.Equal(t, commit, co.Commit)
	require.FileExists(t, filepath.Join(co.Dir, "main.go"))
	require.Equal(t, filepath.Base(origin), co.Name)

	dir := co.Dir
	require.NoError(t, co.Release())
	require.NoDirExists(t, dir)
}

func TestAcquire_LocalGitRepositoryReportsCommit(t *testing.T) {
	origin, commit := initRepo(t)
	co, err := New(config.AcquireConfig{}, nil, nil).Acquire(context.Background(), origin)
	require.NoError(t, err)
	require.Equal(t, commit, co.Commit)
}

func TestAcquire_CloneFailureIsFatalAndCleansUp(t *testing.T) {
	base := t.TempDir()
	a := New(config.AcquireConfig{}, workspace.NewManager(base), nil)

	_, err := a.Acquire(context.Background(), "file://"+filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.True(t, errors.IsFatal(err))
	require.True(t, errors.HasCategory(err, errors.CategoryAcquisition))

	entries, readErr := os.ReadDir(base)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestAcquire_Canceled(t *testing.T) {
	origin, _ := initRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(config.AcquireConfig{}, workspace.NewManager(t.TempDir()), nil).Acquire(ctx, "file://"+origin)
	require.Error(t, err)
	require.True(t, stderrors.Is(err, context.Canceled) || errors.HasCategory(err, errors.CategoryAcquisition))
}

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repodoc/internal/acquire"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/store"
)

type env struct {
	dir    string
	config string
	out    *bytes.Buffer
	logs   *bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	cfg := "generation:\n  provider: fake\n  requests_per_second: 0\n" +
		"pipeline:\n  retry_initial_delay: 1ms\n  retry_max_delay: 2ms\n" +
		"output:\n  directory: " + filepath.Join(dir, "out") + "\n" +
		"history:\n  enabled: true\n  path: " + filepath.Join(dir, "state", "history.db") + "\n"
	path := filepath.Join(dir, "repodoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &env{dir: dir, config: path, out: &bytes.Buffer{}, logs: &bytes.Buffer{}}
}

func (e *env) run(t *testing.T, args ...string) error {
	t.Helper()
	cli := &CLI{}
	g := &Global{Out: e.out, Err: e.logs}
	parser, err := kong.New(cli,
		kong.Name("repodoc"),
		kong.Vars{"version": "test"},
		kong.Bind(g),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(append([]string{"--config", e.config}, args...))
	require.NoError(t, err)
	return kctx.Run(cli)
}

func writeRepo(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "widget")
	files := map[string]string{
		"go.mod":    "module example.com/widget\n\ngo 1.22\n",
		"main.go":   "package main\n\nfunc main() {}\n",
		"README.md": "# widget\n",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return dir
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	e.config = filepath.Join(e.dir, "fresh.yaml")

	require.NoError(t, e.run(t, "init"))
	require.FileExists(t, e.config)
	require.Contains(t, e.out.String(), "initialized successfully")

	err := e.run(t, "init")
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	require.NoError(t, e.run(t, "init", "--force"))
}

func TestRunWritesArtifactsAndHistory(t *testing.T) {
	e := newEnv(t)
	repo := writeRepo(t)
	target := acquire.TargetID(repo)

	require.NoError(t, e.run(t, "run", repo))
	require.Contains(t, e.out.String(), "repodoc: "+target)
	require.Contains(t, e.out.String(), "success")

	out := filepath.Join(e.dir, "out")
	require.FileExists(t, filepath.Join(out, target, store.DocumentName))
	require.FileExists(t, filepath.Join(out, target, store.BlockName))
	require.FileExists(t, filepath.Join(out, target, store.ReportName))

	e.out.Reset()
	require.NoError(t, e.run(t, "history", target))
	require.Contains(t, e.out.String(), target)
	require.Contains(t, e.out.String(), "success")
}

func TestRunFlags(t *testing.T) {
	e := newEnv(t)
	repo := writeRepo(t)
	target := acquire.TargetID(repo)
	other := filepath.Join(e.dir, "elsewhere")

	require.NoError(t, e.run(t, "run", repo, "--no-tests", "--html", "--output", other))
	require.FileExists(t, filepath.Join(other, target, store.HTMLName))
	require.NoFileExists(t, filepath.Join(other, target, store.TestStrategyName))
}

func TestRunEmptyRepositoryExitCode(t *testing.T) {
	e := newEnv(t)
	empty := t.TempDir()
	err := e.run(t, "run", empty)
	require.Error(t, err)
	require.Equal(t, 11, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	require.Contains(t, e.out.String(), "failed")
	require.NoDirExists(t, filepath.Join(e.dir, "out", acquire.TargetID(empty)))
}

func TestReviewScoresExistingDocument(t *testing.T) {
	e := newEnv(t)
	repo := writeRepo(t)
	target := acquire.TargetID(repo)
	require.NoError(t, e.run(t, "run", repo))

	doc := filepath.Join(e.dir, "out", target, store.DocumentName)
	e.out.Reset()
	require.NoError(t, e.run(t, "review", doc, repo, "--save"))
	require.Contains(t, e.out.String(), "review: "+target)
	require.Contains(t, e.out.String(), "Quality")
	require.FileExists(t, filepath.Join(e.dir, "out", target, store.BlockName))
}

func TestHistoryUnknownRun(t *testing.T) {
	e := newEnv(t)
	err := e.run(t, "history", "--run", "missing")
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

// writeTree materializes a path->content map under a fresh temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

func TestBuild_GoService(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod": "module example.com/widget\n\ngo 1.22\n\nrequire (\n\tgithub.com/gin-gonic/gin v1.9.0\n\tgolang.org/x/sys v0.1.0 // indirect\n)\n",
		"cmd/widget/main.go":            "package main\nfunc main() {}\n",
		"internal/api/handler.go":       "package api\n",
		"internal/api/handler_test.go":  "package api\n",
		"web/app.js":                    "console.log('x')\n",
		"README.md":                     "# Widget\nA widget service.\n",
		"LICENSE":                       "MIT",
		".github/workflows/ci.yml":      "on: push\n",
		"node_modules/leftpad/index.js": "module.exports = 1\n",
		".git/HEAD":                     "ref: refs/heads/main\n",
	})

	snap, err := NewBuilder(0).Build(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, f := range snap.Files() {
		paths = append(paths, f.Path)
	}
	require.Equal(t, []string{
		".github/workflows/ci.yml",
		"LICENSE",
		"README.md",
		"cmd/widget/main.go",
		"go.mod",
		"internal/api/handler.go",
		"internal/api/handler_test.go",
		"web/app.js",
	}, paths)

	hist := snap.Histogram()
	require.Len(t, hist, 2)
	require.Equal(t, LanguageShare{Language: "go", Files: 3, Percentage: 75}, hist[0])
	require.Equal(t, "javascript", hist[1].Language)
	require.Equal(t, "go", snap.DominantLanguage())

	require.Equal(t, []string{"github.com/gin-gonic/gin"}, snap.Dependencies(EcosystemGo))
	require.Equal(t, ProjectWebAPI, snap.ProjectType())
	require.Equal(t, ComplexityLow, snap.Complexity())

	sig := snap.Signals()
	require.Equal(t, "README.md", sig.ReadmePath)
	require.Contains(t, sig.ReadmeExcerpt, "A widget service.")
	require.Equal(t, "LICENSE", sig.LicenseFile)
	require.Equal(t, []string{".github/workflows/ci.yml"}, sig.CIFiles)
	require.Equal(t, []string{"cmd/widget/main.go"}, sig.EntryPoints)
	require.Equal(t, []string{"internal/api/handler_test.go"}, sig.TestFiles)
	require.Equal(t, []string{"internal/api"}, sig.APIDirs)
}

func TestBuild_EmptyDirectoryIsFatal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	_, err := NewBuilder(0).Build(context.Background(), root)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrEmptyRepository))
	require.True(t, foundationerrors.IsFatal(err))
}

func TestBuild_MissingDirectory(t *testing.T) {
	_, err := NewBuilder(0).Build(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryIngest))
	require.True(t, errors.Is(err, ErrEmptyRepository))
	require.True(t, errors.Is(err, os.ErrNotExist))
	require.True(t, foundationerrors.IsFatal(err))
}

func TestBuild_FileInsteadOfDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"main.go": "package main\n"})
	_, err := NewBuilder(0).Build(context.Background(), filepath.Join(root, "main.go"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrEmptyRepository))
}

func TestBuild_OversizedFilesExcluded(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.py":     "print('hi')\n",
		"big.py":       strings.Repeat("x = 1\n", 100),
		"package.json": `{"name":"huge","dependencies":{"react":"18"}}` + strings.Repeat(" ", 200),
	})

	snap, err := NewBuilder(64).Build(context.Background(), root)
	require.NoError(t, err)

	files := snap.Files()
	require.Len(t, files, 3)
	for _, f := range files {
		switch f.Path {
		case "big.py", "package.json":
			require.True(t, f.Oversized, f.Path)
		default:
			require.False(t, f.Oversized, f.Path)
		}
	}
	require.Equal(t, []LanguageShare{{Language: "python", Files: 1, Percentage: 100}}, snap.Histogram())
	require.Empty(t, snap.Manifests())
}

func TestBuild_ShebangAndReadmeOnly(t *testing.T) {
	root := writeTree(t, map[string]string{
		"bin/deploy": "#!/usr/bin/env bash\necho hi\n",
	})
	snap, err := NewBuilder(0).Build(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, "shell", snap.Files()[0].Language)

	readmeOnly := writeTree(t, map[string]string{"README.md": "# Notes\n"})
	snap, err = NewBuilder(0).Build(context.Background(), readmeOnly)
	require.NoError(t, err)
	require.Zero(t, snap.SourceFileCount())
	require.Empty(t, snap.Histogram())
	require.Equal(t, ComplexityLow, snap.Complexity())
	require.Equal(t, ProjectLibrary, snap.ProjectType())
}

func TestBuild_Canceled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(0).Build(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuild_Deterministic(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a\n", "b.py": "x=1\n", "c.rs": "fn main(){}\n", "d.ts": "let x = 1\n",
	})
	first, err := NewBuilder(0).Build(context.Background(), root)
	require.NoError(t, err)
	second, err := NewBuilder(0).Build(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, first.Files(), second.Files())
	require.Equal(t, first.Histogram(), second.Histogram())
	require.Equal(t, []string{"go", "python", "rust"}, first.TopLanguages(3))
}

func TestAccessorsReturnCopies(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n"})
	snap, err := NewBuilder(0).Build(context.Background(), root)
	require.NoError(t, err)

	files := snap.Files()
	files[0].Path = "mutated"
	require.Equal(t, "a.go", snap.Files()[0].Path)
}

func TestEstimateComplexity(t *testing.T) {
	even := []LanguageShare{{"go", 3, 0}, {"python", 3, 0}, {"rust", 3, 0}}
	require.Equal(t, ComplexityMedium, estimateComplexity(even))

	skewed := []LanguageShare{{"go", 20, 0}, {"python", 1, 0}, {"rust", 1, 0}}
	require.Equal(t, ComplexityMedium, estimateComplexity(skewed))

	require.Equal(t, ComplexityHigh, estimateComplexity([]LanguageShare{{"go", 60, 0}}))
	require.Equal(t, ComplexityLow, estimateComplexity(nil))
}

package snapshot

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
)

// ErrEmptyRepository is wrapped by the fatal error Build returns for a directory without files.
var ErrEmptyRepository = stderrors.New("repository contains no files")

// DefaultMaxFileSize is the size above which files are excluded from content-bearing stages.
const DefaultMaxFileSize int64 = 1 << 20

const readmeExcerptBytes = 1200

// Builder walks a directory and produces a Snapshot.
type Builder struct {
	maxFileSize int64
}

// NewBuilder returns a Builder; non-positive sizes use DefaultMaxFileSize.
func NewBuilder(maxFileSize int64) *Builder {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Builder{maxFileSize: maxFileSize}
}

// Build walks dir and returns its snapshot. The walk never writes and honours
// ctx cancellation between files.
func (b *Builder) Build(ctx context.Context, dir string) (*Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapError(fmt.Errorf("%w: %w", ErrEmptyRepository, err), errors.CategoryIngest, "repository directory is not readable").
			Fatal().
			WithContext("dir", dir).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.WrapError(ErrEmptyRepository, errors.CategoryIngest, "repository path is not a directory").
			Fatal().
			WithContext("dir", dir).
			Build()
	}

	w := &walker{root: dir, maxFileSize: b.maxFileSize, counts: map[string]int{}}
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == dir {
				return err
			}
			slog.Warn("Skipping unreadable path", logfields.Path(p), logfields.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != dir {
				if _, skip := skipDirs[d.Name()]; skip {
					return fs.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return w.visit(p, d)
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.WrapError(walkErr, errors.CategoryIngest, "failed to walk repository").
			Fatal().
			WithContext("dir", dir).
			Build()
	}
	if len(w.files) == 0 {
		return nil, errors.WrapError(ErrEmptyRepository, errors.CategoryIngest, "repository contains no files").
			Fatal().
			WithContext("dir", dir).
			Build()
	}

	snap := &Snapshot{
		root:      dir,
		name:      filepath.Base(filepath.Clean(dir)),
		files:     w.files,
		histogram: buildHistogram(w.counts),
		manifests: w.manifests,
		signals:   w.signals,
	}
	snap.complexity = estimateComplexity(snap.histogram)
	snap.projectType = inferProjectType(snap)

	slog.Debug("Repository snapshot built",
		logfields.Path(dir),
		slog.Int("files", len(snap.files)),
		slog.Int("source_files", snap.SourceFileCount()),
		slog.String("complexity", string(snap.complexity)))
	return snap, nil
}

type walker struct {
	root        string
	maxFileSize int64
	files       []FileEntry
	counts      map[string]int
	manifests   []Manifest
	signals     Signals
}

func (w *walker) visit(p string, d fs.DirEntry) error {
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)
	fi, err := d.Info()
	if err != nil {
		slog.Warn("Skipping file without stat info", logfields.Path(rel), logfields.Error(err))
		return nil
	}

	entry := FileEntry{Path: rel, Size: fi.Size(), Oversized: fi.Size() > w.maxFileSize}
	lang, known := classifyName(rel)
	if !known && path.Ext(rel) == "" && !entry.Oversized {
		lang, known = classifyShebang(firstLine(p))
	}
	if known {
		entry.Language = lang.name
	}
	w.files = append(w.files, entry)
	w.signals.observePath(rel)

	if entry.Oversized {
		slog.Debug("Excluding oversized file from content stages", logfields.Path(rel), slog.Int64("size", entry.Size))
		return nil
	}
	if known && lang.kind == kindCode {
		w.counts[lang.name]++
		if isTestFile(rel) {
			w.signals.TestFiles = append(w.signals.TestFiles, rel)
		}
	}
	if isManifest(rel) {
		w.readManifest(p, rel)
	}
	if isRootReadme(rel) && w.signals.ReadmePath == "" {
		w.signals.ReadmePath = rel
		w.signals.ReadmeExcerpt = readExcerpt(p, readmeExcerptBytes)
	}
	return nil
}

func (w *walker) readManifest(p, rel string) {
	data, err := os.ReadFile(p) // #nosec G304 -- path comes from walking the repository root
	if err != nil {
		slog.Warn("Failed to read manifest", logfields.Path(rel), logfields.Error(err))
		return
	}
	m, err := parseManifest(rel, data)
	if err != nil {
		slog.Warn("Failed to parse manifest", logfields.Path(rel), logfields.Error(err))
		return
	}
	w.manifests = append(w.manifests, m)
}

func firstLine(p string) string {
	f, err := os.Open(p) // #nosec G304 -- path comes from walking the repository root
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()
	line, _ := bufio.NewReaderSize(f, 256).ReadString('\n')
	return strings.TrimSpace(line)
}

func readExcerpt(p string, limit int) string {
	f, err := os.Open(p) // #nosec G304 -- path comes from walking the repository root
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()
	buf := make([]byte, limit)
	n, _ := f.Read(buf)
	return strings.TrimSpace(string(buf[:n]))
}

func buildHistogram(counts map[string]int) []LanguageShare {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([]LanguageShare, 0, len(counts))
	for lang, c := range counts {
		pct := math.Round(float64(c)/float64(total)*1000) / 10
		out = append(out, LanguageShare{Language: lang, Files: c, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Files != out[j].Files {
			return out[i].Files > out[j].Files
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// estimateComplexity tiers the source file count and bumps one tier when the
// histogram is spread evenly across three or more languages.
func estimateComplexity(histogram []LanguageShare) Complexity {
	total := 0
	for _, h := range histogram {
		total += h.Files
	}
	tier := 0
	switch {
	case total >= 50:
		tier = 2
	case total >= 10:
		tier = 1
	}
	if len(histogram) >= 3 && normalizedEntropy(histogram, total) >= 0.75 && tier < 2 {
		tier++
	}
	return []Complexity{ComplexityLow, ComplexityMedium, ComplexityHigh}[tier]
}

func normalizedEntropy(histogram []LanguageShare, total int) float64 {
	if len(histogram) < 2 || total == 0 {
		return 0
	}
	h := 0.0
	for _, share := range histogram {
		p := float64(share.Files) / float64(total)
		h -= p * math.Log2(p)
	}
	return h / math.Log2(float64(len(histogram)))
}

var (
	apiFrameworks = []string{
		"express", "fastify", "koa", "@nestjs/core", "fastapi", "flask", "django", "starlette",
		"gin", "echo", "fiber", "chi", "mux", "spring-boot-starter-web", "rails", "sinatra",
		"actix-web", "axum", "rocket", "laravel/framework",
	}
	frontendFrameworks = []string{"react", "vue", "@angular/core", "svelte", "next", "nuxt"}
)

func inferProjectType(s *Snapshot) ProjectType {
	for _, fw := range apiFrameworks {
		if s.HasDependency(fw) {
			return ProjectWebAPI
		}
	}
	if len(s.signals.APIDirs) > 0 && len(s.signals.EntryPoints) > 0 {
		return ProjectWebAPI
	}
	for _, fw := range frontendFrameworks {
		if s.HasDependency(fw) {
			return ProjectWebFrontend
		}
	}
	if len(s.signals.EntryPoints) > 0 {
		return ProjectApplication
	}
	return ProjectLibrary
}

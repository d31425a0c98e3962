// Package acquire materializes a repository locator as a local directory:
// local paths pass through, remote URLs are cloned with go-git into a
// workspace directory.
package acquire

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/workspace"
)

// Checkout is a materialized repository.
type Checkout struct {
	Dir      string
	TargetID string
	Name     string // human-readable repository name
	Commit   string // HEAD commit when the directory is a git repository
	Remote   bool
	ws       *workspace.Dir
}

// Release removes the clone of a remote checkout. Local directories are never touched.
func (c *Checkout) Release() error {
	if c == nil || c.ws == nil {
		return nil
	}
	return c.ws.Release()
}

// Acquirer resolves locators.
type Acquirer struct {
	cfg       config.AcquireConfig
	workspace *workspace.Manager
	logger    *slog.Logger
}

// New returns an Acquirer cloning into ws. A nil ws uses an ephemeral manager
// rooted at cfg.WorkspaceDir.
func New(cfg config.AcquireConfig, ws *workspace.Manager, logger *slog.Logger) *Acquirer {
	if ws == nil {
		ws = workspace.NewManager(cfg.WorkspaceDir)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{cfg: cfg, workspace: ws, logger: logger}
}

// Acquire materializes locator. Failures are fatal acquisition errors.
func (a *Acquirer) Acquire(ctx context.Context, locator string) (*Checkout, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, errors.AcquisitionError("empty repository locator").Build()
	}
	if IsRemote(locator) {
		return a.clone(ctx, locator)
	}
	return a.local(locator)
}

func (a *Acquirer) local(dir string) (*Checkout, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAcquisition, "repository directory not found").
			Fatal().
			WithContext("locator", dir).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.AcquisitionError("repository locator is not a directory").
			WithContext("locator", dir).
			Build()
	}
	co := &Checkout{Dir: dir, TargetID: TargetID(dir), Remote: false}
	co.Name = co.TargetID
	if repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true}); err == nil {
		if head, err := repo.Head(); err == nil {
			co.Commit = head.Hash().String()
		}
	}
	a.logger.Debug("Using local repository", logfields.Path(dir), logfields.Target(co.TargetID))
	return co, nil
}

func (a *Acquirer) clone(ctx context.Context, locator string) (*Checkout, error) {
	target := TargetID(locator)
	ws, err := a.workspace.Create(target)
	if err != nil {
		return nil, err
	}

	opts := &git.CloneOptions{URL: locator, Depth: a.cfg.Depth}
	if a.cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(a.cfg.Branch)
		opts.SingleBranch = true
	}
	if auth := a.auth(); auth != nil {
		opts.Auth = auth
	}

	// Clone into a child named after the repository so the snapshot sees
	// the real repository name.
	name := repoName(locator)
	if name == "" {
		name = target
	}
	dir := filepath.Join(ws.Path, name)

	a.logger.Info("Cloning repository", logfields.Locator(locator), logfields.Path(dir), slog.String("branch", a.cfg.Branch))
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		_ = ws.Release()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyCloneError(locator, err)
	}

	co := &Checkout{Dir: dir, TargetID: target, Name: name, Remote: true, ws: ws}
	if head, err := repo.Head(); err == nil {
		co.Commit = head.Hash().String()
	}
	a.logger.Info("Repository cloned", logfields.Locator(locator), logfields.Commit(shortCommit(co.Commit)))
	return co, nil
}

func (a *Acquirer) auth() transport.AuthMethod {
	if a.cfg.Token == "" {
		return nil
	}
	// Hosting services accept any non-empty username with a token password.
	return &githttp.BasicAuth{Username: "token", Password: a.cfg.Token}
}

// classifyCloneError maps go-git failures onto fatal acquisition errors with
// a reason the CLI can show.
func classifyCloneError(locator string, err error) error {
	l := strings.ToLower(err.Error())
	reason := "unknown"
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		reason = "auth"
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		reason = "not_found"
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		reason = "unsupported_protocol"
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		reason = "rate_limit"
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection refused") || strings.Contains(l, "no such host"):
		reason = "network"
	}
	return errors.WrapError(err, errors.CategoryAcquisition, "failed to clone repository").
		Fatal().
		WithContext("locator", locator).
		WithContext("reason", reason).
		Build()
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}

package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
)

// Manager hands out clone directories below a base directory.
type Manager struct {
	baseDir    string
	persistent bool
}

// NewManager returns a manager creating a fresh directory per checkout. An
// empty baseDir uses the system temp directory.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager returns a manager whose directories are fixed per
// target and survive Release.
func NewPersistentManager(baseDir string) *Manager {
	m := NewManager(baseDir)
	m.persistent = true
	return m
}

// Persistent reports whether directories outlive their checkout.
func (m *Manager) Persistent() bool { return m.persistent }

// Dir is one workspace directory.
type Dir struct {
	Path       string
	persistent bool
}

// Create returns an empty directory for target. Persistent directories are
// emptied before reuse so a clone always starts clean.
func (m *Manager) Create(target string) (*Dir, error) {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create workspace base directory").
			WithContext("path", m.baseDir).
			Build()
	}
	if m.persistent {
		p := filepath.Join(m.baseDir, target)
		if err := os.RemoveAll(p); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to reset persistent workspace").
				WithContext("path", p).
				Build()
		}
		if err := os.MkdirAll(p, 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create persistent workspace").
				WithContext("path", p).
				Build()
		}
		slog.Debug("Using persistent workspace", logfields.Path(p))
		return &Dir{Path: p, persistent: true}, nil
	}

	p, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("repodoc-%s-", target))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create workspace").
			WithContext("path", m.baseDir).
			Build()
	}
	slog.Debug("Created workspace", logfields.Path(p))
	return &Dir{Path: p}, nil
}

// Release removes an ephemeral directory. Persistent directories are kept.
func (d *Dir) Release() error {
	if d == nil || d.Path == "" || d.persistent {
		return nil
	}
	if err := os.RemoveAll(d.Path); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean up workspace").
			WithContext("path", d.Path).
			Build()
	}
	slog.Debug("Cleaned up workspace", logfields.Path(d.Path))
	d.Path = ""
	return nil
}

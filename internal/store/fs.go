package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

// FSStore keeps artifacts as files below a root directory:
//
//	<root>/
//	  <target>/
//	    README.md
//	    regeneration.json
//	    ...
type FSStore struct {
	root string
	mu   sync.RWMutex
}

// NewFSStore creates root if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to create output directory").
			WithContext("path", root).
			Build()
	}
	return &FSStore{root: root}, nil
}

// Root returns the directory artifacts are written below.
func (s *FSStore) Root() string { return s.root }

// Path returns the file a key maps to.
func (s *FSStore) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put writes to a temp file in the destination directory and renames it
// into place.
func (s *FSStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.Path(key)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return storeErr(err, "failed to create artifact directory", key)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return storeErr(err, "failed to create temp file", key)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return storeErr(err, "failed to write artifact", key)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return storeErr(err, "failed to sync artifact", key)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return storeErr(err, "failed to close artifact", key)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return storeErr(err, "failed to set artifact permissions", key)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return storeErr(err, "failed to move artifact into place", key)
	}
	return nil
}

// Get reads the file for key.
func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// #nosec G304 - key is validated to stay below root
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err, "failed to read artifact", key)
	}
	return data, nil
}

// Delete removes the file for key.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return storeErr(err, "failed to delete artifact", key)
	}
	return nil
}

// Close is a no-op.
func (s *FSStore) Close() error { return nil }

func validKey(key string) error {
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(key)))
	if key == "" || strings.HasPrefix(clean, "../") || clean == ".." || filepath.IsAbs(key) {
		return errors.ValidationError("invalid artifact key").WithContext("key", key).Build()
	}
	return nil
}

func storeErr(err error, msg, key string) error {
	return errors.WrapError(err, errors.CategoryStore, msg).WithContext("key", key).Build()
}

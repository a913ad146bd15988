package userdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrOutsideRoot is returned when a candidate path escapes the user's
// data directory. Callers must treat this as a security rejection, not a
// retryable failure.
var ErrOutsideRoot = errors.New("path resolves outside user data directory")

// Resolver maps Telegram user IDs to isolated on-disk roots under a single
// base directory and guards against path traversal in user-supplied names.
type Resolver struct {
	Base string
}

func NewResolver(base string) *Resolver {
	return &Resolver{Base: base}
}

// UserRoot returns the user's directory path without touching the disk.
func (r *Resolver) UserRoot(userID int64) string {
	return filepath.Join(r.Base, strconv.FormatInt(userID, 10))
}

// EnsureUserRoot idempotently creates and returns the user's directory.
func (r *Resolver) EnsureUserRoot(userID int64) (string, error) {
	root := r.UserRoot(userID)
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("failed to create user directory: %w", err)
	}
	return root, nil
}

// EnsureFeatureDir idempotently creates and returns a feature subdirectory
// inside the user's root.
func (r *Resolver) EnsureFeatureDir(userID int64, name string) (string, error) {
	root, err := r.EnsureUserRoot(userID)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", name, err)
	}
	return dir, nil
}

// ResolveWithinUser resolves a relative path against the user's root and
// rejects anything that is not a strict descendant of it. On rejection it
// returns ErrOutsideRoot and never a usable path.
func (r *Resolver) ResolveWithinUser(userID int64, rel string) (string, error) {
	root := r.UserRoot(userID)
	candidate := filepath.Clean(filepath.Join(root, rel))

	rootWithSep := root + string(os.PathSeparator)
	if candidate == root || !strings.HasPrefix(candidate, rootWithSep) {
		return "", fmt.Errorf("%q: %w", rel, ErrOutsideRoot)
	}
	return candidate, nil
}

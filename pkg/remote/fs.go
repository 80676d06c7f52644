// Package remote implements scope remotes. A remote is another scope
// directory on a reachable filesystem; bundles cross the boundary in their
// zstd wire form.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/scope"
)

const (
	defaultPushAttempts = 4
	defaultPushBackoff  = 50 * time.Millisecond
)

// FS is a remote scope stored in a local directory.
type FS struct {
	name   string
	path   string
	logger *slog.Logger

	maxAttempts int
	backoff     time.Duration
}

// NewFS returns the remote named name whose scope lives at path.
func NewFS(name, path string, logger *slog.Logger) *FS {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FS{
		name:        name,
		path:        path,
		logger:      logger,
		maxAttempts: defaultPushAttempts,
		backoff:     defaultPushBackoff,
	}
}

func (r *FS) Name() string { return r.name }

// Path returns the remote scope directory.
func (r *FS) Path() string { return r.path }

func (r *FS) open() (*scope.Scope, error) {
	if _, err := os.Stat(filepath.Join(r.path, scope.ConfigFile)); err != nil {
		return nil, fmt.Errorf("remote %s: no scope at %s: %w", r.name, r.path, scope.ErrNotFound)
	}
	return scope.Open(scope.Options{Path: r.path, Logger: r.logger.With("remote", r.name)})
}

// Fetch bundles ids out of the remote scope.
func (r *FS) Fetch(ctx context.Context, ids bitid.BitIDs) (*scope.Bundle, error) {
	sc, err := r.open()
	if err != nil {
		return nil, err
	}
	b, err := sc.Bundle(ctx, ids)
	if err != nil {
		return nil, err
	}
	data, err := MarshalBundle(b)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("fetched bundle", "remote", r.name, "heads", len(b.Heads), "bytes", len(data))
	return UnmarshalBundle(data)
}

// Push hands b to the remote scope, retrying while its refs are locked.
func (r *FS) Push(ctx context.Context, b *scope.Bundle) error {
	data, err := MarshalBundle(b)
	if err != nil {
		return err
	}
	r.logger.Debug("pushing bundle", "remote", r.name, "heads", len(b.Heads), "bytes", len(data))
	return retryLocked(ctx, r.maxAttempts, r.backoff, func() error {
		sc, err := r.open()
		if err != nil {
			return err
		}
		received, err := UnmarshalBundle(data)
		if err != nil {
			return err
		}
		return sc.Receive(ctx, received)
	})
}

// Resolver resolves remote names through the remotes table of a scope's
// scope.json.
type Resolver struct {
	scopePath string
	logger    *slog.Logger
}

// NewResolver returns a Resolver reading the configuration of the scope at
// scopePath.
func NewResolver(scopePath string, logger *slog.Logger) *Resolver {
	return &Resolver{scopePath: scopePath, logger: logger}
}

// Resolve returns the FS remote configured as name. Relative remote paths
// are taken relative to the scope directory.
func (r *Resolver) Resolve(_ context.Context, name string) (scope.Remote, error) {
	path, err := scope.RemotePath(r.scopePath, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scope.ErrNotFound, err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.scopePath, path)
	}
	return NewFS(name, path, r.logger), nil
}

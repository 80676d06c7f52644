// Package scope is the persistent store façade of a workspace: it resolves
// components from the local repository or from remotes, freezes workspace
// components into Version records, and exchanges bundles with other scopes.
//
// On disk a scope is a directory holding:
//
//	scope.json                 name and remotes
//	objects/ab/cdef...         content-addressed records
//	refs/<scope>/<box>/<name>  ref of the current Component record
//
// Components of other scopes are cached under their own refs/<scope>
// prefix. A scope assumes a single writer; only ref updates are locked.
package scope

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/bit/pkg/docs"
	"github.com/odvcencio/bit/pkg/object"
)

// Options configures a Scope. Zero values select defaults: a discard
// logger, no remotes, no doc extraction and the wall clock.
type Options struct {
	Path    string
	Logger  *slog.Logger
	Remotes Remotes
	Docs    docs.Extractor
	User    User
	Now     func() time.Time
}

// User is the author recorded in the log of new versions.
type User struct {
	Name  string
	Email string
}

// Scope is an opened scope directory.
type Scope struct {
	name    string
	path    string
	repo    *object.Repository
	logger  *slog.Logger
	remotes Remotes
	docs    docs.Extractor
	user    User
	now     func() time.Time
}

// Init creates a scope named name at opts.Path. It fails with
// ErrAlreadyExists when the directory already holds a scope.
func Init(name string, opts Options) (*Scope, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("init scope: %w", err)
	}
	if _, err := os.Stat(configPath(opts.Path)); err == nil {
		return nil, fmt.Errorf("init scope %s: %w", opts.Path, ErrAlreadyExists)
	}
	s := newScope(name, opts)
	if err := s.EnsureDir(); err != nil {
		return nil, err
	}
	if err := WriteConfig(s.path, &Config{Name: name}); err != nil {
		return nil, fmt.Errorf("init scope: %w", err)
	}
	s.logger.Debug("scope initialized", "name", name, "path", s.path)
	return s, nil
}

// Open opens the scope at opts.Path, taking its name from scope.json.
func Open(opts Options) (*Scope, error) {
	cfg, err := ReadConfig(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open scope: %w", err)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("open scope %s: scope.json has no name", opts.Path)
	}
	return newScope(cfg.Name, opts), nil
}

func newScope(name string, opts Options) *Scope {
	s := &Scope{
		name:    name,
		path:    opts.Path,
		repo:    object.NewRepository(opts.Path),
		logger:  opts.Logger,
		remotes: opts.Remotes,
		docs:    opts.Docs,
		user:    opts.User,
		now:     opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.docs == nil {
		s.docs = docs.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Name returns the scope's name, the Scope field of the ids it owns.
func (s *Scope) Name() string { return s.name }

// Path returns the scope directory.
func (s *Scope) Path() string { return s.path }

// Repository returns the scope's object repository.
func (s *Scope) Repository() *object.Repository { return s.repo }

// EnsureDir creates the scope directory layout if it is missing.
func (s *Scope) EnsureDir() error {
	for _, dir := range []string{
		filepath.Join(s.path, "objects"),
		filepath.Join(s.path, "refs"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure scope dir: %w", err)
		}
	}
	return nil
}

// ValidateName checks that name can be used as a scope name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("scope name is required")
	}
	if strings.ContainsAny(name, `/\@`) || name == "." || name == ".." {
		return fmt.Errorf("invalid scope name %q", name)
	}
	return nil
}

func (s *Scope) checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scope %s: %w", s.name, err)
	}
	return nil
}

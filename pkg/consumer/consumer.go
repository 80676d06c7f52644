// Package consumer orchestrates a workspace: the inline components being
// authored, the versioned components materialized from the scope, and the
// commands that move components between the two.
//
// Workspace layout:
//
//	bit.json                                  workspace settings
//	inline_components/<box>/<name>/           unversioned components
//	components/<box>/<name>/<scope>/<version>/ materialized versions
//	.bit/                                     the scope
package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/docs"
	"github.com/odvcencio/bit/pkg/remote"
	"github.com/odvcencio/bit/pkg/scope"
)

const (
	InlineComponentsDir = "inline_components"
	ComponentsDir       = "components"
	HiddenDir           = ".bit"
)

// Indexer receives every committed component, e.g. for search.
type Indexer interface {
	Index(ctx context.Context, c *component.Component, scopePath string) error
}

// NopIndexer discards everything.
type NopIndexer struct{}

func (NopIndexer) Index(context.Context, *component.Component, string) error { return nil }

// Options configures a Consumer. Zero values select defaults: a discard
// logger, no indexing, the tree-sitter doc extractor, remotes from the
// scope's scope.json and the author from the global config.
type Options struct {
	Logger  *slog.Logger
	Indexer Indexer
	Docs    docs.Extractor
	Remotes scope.Remotes
	User    *scope.User
	Now     func() time.Time

	// ScopeName names the scope of a new workspace. It defaults to the
	// workspace directory name.
	ScopeName string
}

// Consumer is an opened workspace.
type Consumer struct {
	projectPath string
	created     bool
	bitJSON     *component.BitJSON
	scope       *scope.Scope
	logger      *slog.Logger
	indexer     Indexer
}

// Create initializes a workspace at projectPath. It fails with
// ErrAlreadyExists when projectPath already has a scope. Call Write to
// persist bit.json.
func Create(projectPath string, opts Options) (*Consumer, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if pathHasConsumer(abs) {
		return nil, fmt.Errorf("create workspace %s: %w", abs, ErrAlreadyExists)
	}
	name := opts.ScopeName
	if name == "" {
		name = defaultScopeName(abs)
	}
	sc, err := scope.Init(name, scopeOptions(abs, opts))
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return newConsumer(abs, true, component.DefaultBitJSON(), sc, opts), nil
}

// Load opens the workspace enclosing currentPath, searching upward. It
// fails with ErrNotFound when there is none.
func Load(currentPath string, opts Options) (*Consumer, error) {
	projectPath, err := locateConsumer(currentPath)
	if err != nil {
		return nil, err
	}
	sc, err := scope.Open(scopeOptions(projectPath, opts))
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	bj, err := component.ReadBitJSON(projectPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		bj = component.DefaultBitJSON()
	case err != nil:
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	return newConsumer(projectPath, false, bj, sc, opts), nil
}

func newConsumer(projectPath string, created bool, bj *component.BitJSON, sc *scope.Scope, opts Options) *Consumer {
	c := &Consumer{
		projectPath: projectPath,
		created:     created,
		bitJSON:     bj,
		scope:       sc,
		logger:      opts.Logger,
		indexer:     opts.Indexer,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.indexer == nil {
		c.indexer = NopIndexer{}
	}
	return c
}

func scopeOptions(projectPath string, opts Options) scope.Options {
	scopePath := filepath.Join(projectPath, HiddenDir)
	so := scope.Options{
		Path:    scopePath,
		Logger:  opts.Logger,
		Remotes: opts.Remotes,
		Docs:    opts.Docs,
		Now:     opts.Now,
	}
	if so.Remotes == nil {
		so.Remotes = remote.NewResolver(scopePath, opts.Logger)
	}
	if so.Docs == nil {
		so.Docs = docs.Default()
	}
	if opts.User != nil {
		so.User = *opts.User
	} else {
		so.User = globalUser(opts.Logger)
	}
	return so
}

func globalUser(logger *slog.Logger) scope.User {
	path, err := GlobalConfigPath()
	if err == nil {
		var cfg *GlobalConfig
		if cfg, err = LoadGlobalConfig(path); err == nil {
			return scope.User{Name: cfg.User.Name, Email: cfg.User.Email}
		}
	}
	if logger != nil {
		logger.Warn("global config unavailable", "err", err)
	}
	return scope.User{}
}

var invalidScopeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func defaultScopeName(projectPath string) string {
	name := invalidScopeChars.ReplaceAllString(filepath.Base(projectPath), "-")
	if scope.ValidateName(name) != nil {
		return "local"
	}
	return name
}

func pathHasConsumer(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, HiddenDir, scope.ConfigFile))
	return err == nil
}

func locateConsumer(currentPath string) (string, error) {
	abs, err := filepath.Abs(currentPath)
	if err != nil {
		return "", fmt.Errorf("load workspace: %w", err)
	}
	for cur := abs; ; {
		if pathHasConsumer(cur) {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("no workspace at %s or any parent: %w", abs, ErrNotFound)
		}
		cur = parent
	}
}

// Path returns the workspace root.
func (c *Consumer) Path() string { return c.projectPath }

// Created reports whether the workspace was created by this process.
func (c *Consumer) Created() bool { return c.created }

// Scope returns the workspace's scope.
func (c *Consumer) Scope() *scope.Scope { return c.scope }

// BitJSON returns the workspace settings.
func (c *Consumer) BitJSON() *component.BitJSON { return c.bitJSON }

func (c *Consumer) InlineComponentsPath() string {
	return filepath.Join(c.projectPath, InlineComponentsDir)
}

func (c *Consumer) ComponentsPath() string {
	return filepath.Join(c.projectPath, ComponentsDir)
}

// TesterID returns the workspace tester, nil when unset.
func (c *Consumer) TesterID() (*bitid.BitID, error) {
	return c.bitJSON.TesterID(c.scope.Name())
}

// CompilerID returns the workspace compiler, nil when unset.
func (c *Consumer) CompilerID() (*bitid.BitID, error) {
	return c.bitJSON.CompilerID(c.scope.Name())
}

// Write persists bit.json and makes sure the scope directory exists.
func (c *Consumer) Write() error {
	if err := component.WriteBitJSON(c.projectPath, c.bitJSON); err != nil {
		return err
	}
	return c.scope.EnsureDir()
}

// parseID parses a user-supplied component id in the workspace scope.
func (c *Consumer) parseID(raw string) (bitid.BitID, error) {
	id, err := bitid.Parse(raw, c.scope.Name())
	if err != nil {
		return bitid.BitID{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return id, nil
}

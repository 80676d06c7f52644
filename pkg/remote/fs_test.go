package remote

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/scope"
)

func initScope(t *testing.T, dir, name string, remotes scope.Remotes) *scope.Scope {
	t.Helper()
	s, err := scope.Init(name, scope.Options{Path: dir, Remotes: remotes})
	if err != nil {
		t.Fatalf("Init %s: %v", name, err)
	}
	return s
}

func commit(t *testing.T, s *scope.Scope, box, name, impl string) {
	t.Helper()
	c := &component.Component{Box: box, Name: name, ImplFile: "impl.js", Impl: []byte(impl)}
	if _, err := s.Put(context.Background(), c, scope.PutOptions{Message: "m"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestFSRemoteExportAndFetch(t *testing.T) {
	root := t.TempDir()
	originDir := filepath.Join(root, "origin")
	localDir := filepath.Join(root, "work", ".bit")

	initScope(t, originDir, "origin", nil)
	local := initScope(t, localDir, "local", NewResolver(localDir, nil))
	// Relative to the local scope directory.
	if err := local.SetRemote("origin", filepath.Join("..", "..", "origin")); err != nil {
		t.Fatalf("SetRemote: %v", err)
	}

	commit(t, local, "box", "foo", "foo")
	ctx := context.Background()
	cd, err := local.ExportAction(ctx, bitid.MustParse("box/foo", ""), "origin")
	if err != nil {
		t.Fatalf("ExportAction: %v", err)
	}
	if got := cd.Component.ID().String(); got != "origin/box/foo@1" {
		t.Errorf("exported id = %s, want origin/box/foo@1", got)
	}

	// A second workspace pulls the component through its own resolver.
	otherDir := filepath.Join(root, "other", ".bit")
	other := initScope(t, otherDir, "other", NewResolver(otherDir, nil))
	if err := other.SetRemote("origin", originDir); err != nil {
		t.Fatalf("SetRemote: %v", err)
	}
	got, err := other.Get(ctx, bitid.MustParse("origin/box/foo", ""))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Component.Impl) != "foo" || got.Component.Version != 1 {
		t.Errorf("fetched %s with impl %q", got.Component.ID(), got.Component.Impl)
	}
}

func TestResolverUnknownRemote(t *testing.T) {
	dir := t.TempDir()
	initScope(t, dir, "local", nil)
	_, err := NewResolver(dir, nil).Resolve(context.Background(), "missing")
	if !errors.Is(err, scope.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFSRemoteMissingScope(t *testing.T) {
	r := NewFS("ghost", filepath.Join(t.TempDir(), "nope"), nil)
	_, err := r.Fetch(context.Background(), bitid.NewBitIDs(bitid.MustParse("ghost/box/foo", "")))
	if !errors.Is(err, scope.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if r.Name() != "ghost" {
		t.Errorf("Name = %q", r.Name())
	}
}

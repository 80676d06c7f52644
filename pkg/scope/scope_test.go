package scope

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/flatten"
	"github.com/odvcencio/bit/pkg/object"
)

// scopeRemote serves another in-process scope.
type scopeRemote struct {
	name   string
	target *Scope
}

func (r scopeRemote) Name() string { return r.name }

func (r scopeRemote) Fetch(ctx context.Context, ids bitid.BitIDs) (*Bundle, error) {
	return r.target.Bundle(ctx, ids)
}

func (r scopeRemote) Push(ctx context.Context, b *Bundle) error {
	return r.target.Receive(ctx, b)
}

type remoteMap map[string]Remote

func (m remoteMap) Resolve(_ context.Context, name string) (Remote, error) {
	r, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("remote %q: %w", name, ErrNotFound)
	}
	return r, nil
}

func newTestScope(t *testing.T, name string, remotes Remotes) *Scope {
	t.Helper()
	clock := time.UnixMilli(1_700_000_000_000)
	s, err := Init(name, Options{
		Path:    filepath.Join(t.TempDir(), ".bit"),
		Remotes: remotes,
		User:    User{Name: "ada", Email: "ada@example.com"},
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	require.NoError(t, err)
	return s
}

func inline(box, name, impl string, deps ...string) *component.Component {
	c := &component.Component{
		Box:          box,
		Name:         name,
		ImplFile:     component.DefaultImplFile,
		Impl:         []byte(impl),
		Dependencies: bitid.BitIDs{},
	}
	for _, d := range deps {
		c.Dependencies = c.Dependencies.Add(bitid.MustParse(d, ""))
	}
	return c
}

func put(t *testing.T, s *Scope, c *component.Component) component.ComponentDependencies {
	t.Helper()
	cd, err := s.Put(context.Background(), c, PutOptions{Message: "commit " + c.Name})
	require.NoError(t, err)
	return cd
}

func TestInitAndOpen(t *testing.T) {
	s := newTestScope(t, "local", nil)
	assert.Equal(t, "local", s.Name())

	_, err := Init("local", Options{Path: s.Path()})
	require.ErrorIs(t, err, ErrAlreadyExists)

	opened, err := Open(Options{Path: s.Path()})
	require.NoError(t, err)
	assert.Equal(t, "local", opened.Name())

	require.NoError(t, s.EnsureDir())
	require.NoError(t, s.EnsureDir())

	_, err = Init("bad/name", Options{Path: t.TempDir()})
	require.Error(t, err)
}

func TestPutCreatesSequentialVersions(t *testing.T) {
	s := newTestScope(t, "local", nil)
	ctx := context.Background()

	first := put(t, s, inline("box", "foo", "v1"))
	assert.Equal(t, "local/box/foo@1", first.Component.ID().String())
	assert.Equal(t, "v1", string(first.Component.Impl))

	_, err := s.Put(ctx, inline("box", "foo", "v1"), PutOptions{Message: "again"})
	require.ErrorIs(t, err, ErrUnchanged)

	forced, err := s.Put(ctx, inline("box", "foo", "v1"), PutOptions{Message: "again", Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, forced.Component.Version)

	changed := put(t, s, inline("box", "foo", "v2"))
	assert.Equal(t, 3, changed.Component.Version)

	latest, err := s.Get(ctx, bitid.MustParse("box/foo", ""))
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Component.Version)
	assert.Equal(t, "v2", string(latest.Component.Impl))

	old, err := s.Get(ctx, bitid.MustParse("box/foo@1", ""))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(old.Component.Impl))

	recs, err := s.List("")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []int{1, 2, 3}, recs[0].VersionNumbers())
}

func TestPutFreezesDependencies(t *testing.T) {
	s := newTestScope(t, "local", nil)
	ctx := context.Background()

	put(t, s, inline("box", "baz", "baz"))
	put(t, s, inline("box", "bar", "bar", "local/box/baz@1"))
	// Unversioned dependencies pin to the latest version at commit time.
	foo := put(t, s, inline("box", "foo", "foo", "local/box/bar"))

	assert.Equal(t, []string{"local/box/bar@1"}, foo.Component.Dependencies.Strings())
	require.Len(t, foo.Dependencies, 1)
	assert.Equal(t, "local/box/baz@1", foo.Dependencies[0].Dependencies[0].Component.ID().String())

	rec, _, err := s.loadRecord(bitid.MustParse("local/box/foo", ""))
	require.NoError(t, err)
	v, err := s.Repository().LoadVersion(rec.Versions[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"local/box/bar@1", "local/box/baz@1"}, v.FlattenedDependencies.Strings())
	assert.Equal(t, "ada", v.Log.Username)
	assert.Equal(t, "commit foo", v.Log.Message)

	// A later bar release does not touch foo's frozen closure.
	put(t, s, inline("box", "bar", "bar v2", "local/box/baz@1"))
	again, err := s.Get(ctx, bitid.MustParse("local/box/foo@1", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"local/box/bar@1", "local/box/baz@1"}, flatten.IDs(flatten.Transitive(again)).Strings())
}

func TestPutMissingDependency(t *testing.T) {
	s := newTestScope(t, "local", nil)
	_, err := s.Put(context.Background(), inline("box", "foo", "foo", "local/box/ghost@1"), PutOptions{})
	require.ErrorIs(t, err, ErrNotFound)

	recs, err := s.List("")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGetNotFound(t *testing.T) {
	s := newTestScope(t, "local", nil)
	ctx := context.Background()

	_, err := s.Get(ctx, bitid.MustParse("box/nothing", ""))
	require.ErrorIs(t, err, ErrNotFound)

	put(t, s, inline("box", "foo", "foo"))
	_, err = s.Get(ctx, bitid.MustParse("box/foo@7", ""))
	require.ErrorIs(t, err, ErrNotFound)

	// No remote is configured for a foreign scope.
	_, err = s.Get(ctx, bitid.MustParse("elsewhere/box/foo@1", ""))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetFetchesFromRemoteAndCaches(t *testing.T) {
	origin := newTestScope(t, "origin", nil)
	put(t, origin, inline("box", "baz", "baz"))
	put(t, origin, inline("box", "bar", "bar", "origin/box/baz@1"))

	local := newTestScope(t, "local", remoteMap{"origin": scopeRemote{name: "origin", target: origin}})
	ctx := context.Background()

	cds, err := local.GetMany(ctx, bitid.NewBitIDs(bitid.MustParse("origin/box/bar@1", "")))
	require.NoError(t, err)
	require.Len(t, cds, 1)
	assert.Equal(t, "origin/box/bar@1", cds[0].Component.ID().String())
	assert.Equal(t, "origin/box/baz@1", cds[0].Dependencies[0].Component.ID().String())

	cached, err := local.List("origin")
	require.NoError(t, err)
	require.Len(t, cached, 2)

	// Served from the cache once the remote is gone.
	offline, err := Open(Options{Path: local.Path()})
	require.NoError(t, err)
	cd, err := offline.Get(ctx, bitid.MustParse("origin/box/bar@1", ""))
	require.NoError(t, err)
	assert.Equal(t, "bar", string(cd.Component.Impl))
}

func TestExportActionPushesAndReturnsRemoteView(t *testing.T) {
	origin := newTestScope(t, "origin", nil)
	remotes := remoteMap{"origin": scopeRemote{name: "origin", target: origin}}
	local := newTestScope(t, "local", remotes)
	ctx := context.Background()

	put(t, local, inline("box", "foo", "foo"))
	cd, err := local.ExportAction(ctx, bitid.MustParse("box/foo", ""), "origin")
	require.NoError(t, err)
	assert.Equal(t, "origin/box/foo@1", cd.Component.ID().String())
	assert.Equal(t, "foo", string(cd.Component.Impl))

	served, err := origin.Get(ctx, bitid.MustParse("box/foo@1", ""))
	require.NoError(t, err)
	assert.Equal(t, "origin", served.Component.Scope)

	// Exporting again is a no-op merge.
	_, err = local.ExportAction(ctx, bitid.MustParse("box/foo@1", ""), "origin")
	require.NoError(t, err)

	_, err = local.ExportAction(ctx, bitid.MustParse("box/foo", ""), "nowhere")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExportRejectsLocalDependencies(t *testing.T) {
	origin := newTestScope(t, "origin", nil)
	local := newTestScope(t, "local", remoteMap{"origin": scopeRemote{name: "origin", target: origin}})

	put(t, local, inline("box", "bar", "bar"))
	put(t, local, inline("box", "foo", "foo", "local/box/bar@1"))

	_, err := local.ExportAction(context.Background(), bitid.MustParse("box/foo", ""), "origin")
	require.ErrorIs(t, err, ErrLocalDependency)

	recs, err := origin.List("")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReceiveVersionConflict(t *testing.T) {
	origin := newTestScope(t, "origin", nil)
	remotes := remoteMap{"origin": scopeRemote{name: "origin", target: origin}}
	alice := newTestScope(t, "alice", remotes)
	bob := newTestScope(t, "bob", remotes)
	ctx := context.Background()

	put(t, alice, inline("box", "foo", "alice"))
	put(t, bob, inline("box", "foo", "bob"))

	_, err := alice.ExportAction(ctx, bitid.MustParse("box/foo", ""), "origin")
	require.NoError(t, err)
	_, err = bob.ExportAction(ctx, bitid.MustParse("box/foo", ""), "origin")
	require.ErrorIs(t, err, ErrVersionConflict)

	served, err := origin.Get(ctx, bitid.MustParse("box/foo@1", ""))
	require.NoError(t, err)
	assert.Equal(t, "alice", string(served.Component.Impl))
}

func TestReceiveRejectsIncompleteBundle(t *testing.T) {
	src := newTestScope(t, "src", nil)
	put(t, src, inline("box", "foo", "foo"))
	b, err := src.Bundle(context.Background(), bitid.NewBitIDs(bitid.MustParse("box/foo", "")))
	require.NoError(t, err)
	require.Len(t, b.Heads, 1)
	require.Len(t, b.Objects, 3) // component, version, impl

	// Drop the impl source.
	var trimmed []Object
	for _, obj := range b.Objects {
		if r, err := src.Repository().LoadSync(obj.Ref); err == nil && r.Kind() == object.KindSource {
			continue
		}
		trimmed = append(trimmed, obj)
	}
	b.Objects = trimmed

	dst := newTestScope(t, "dst", nil)
	err = dst.Receive(context.Background(), b)
	require.Error(t, err)
	recs, lerr := dst.List("")
	require.NoError(t, lerr)
	assert.Empty(t, recs)
}

func TestReceiveRejectsEscapingComponentRecord(t *testing.T) {
	rec := &object.Component{Scope: "src", Box: "..", Name: "x", Versions: map[int]object.Ref{}}
	raw, err := object.Compress(rec)
	require.NoError(t, err)
	ref, err := object.Hash(rec)
	require.NoError(t, err)

	dst := newTestScope(t, "dst", nil)
	b := &Bundle{
		Heads:   []Head{{ID: "src/../x", Ref: ref}},
		Objects: []Object{{Ref: ref, Raw: raw}},
	}
	err = dst.Receive(context.Background(), b)
	require.ErrorIs(t, err, object.ErrDecode)
	assert.NoFileExists(t, dst.refPath("dst", "..", "x"))
	recs, err := dst.List("")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestUpdateRefCASMismatch(t *testing.T) {
	s := newTestScope(t, "local", nil)
	put(t, s, inline("box", "foo", "foo"))

	err := s.updateRefCAS("local", "box", "foo", "0123456789abcdef0123456789abcdef01234567", "")
	require.ErrorIs(t, err, ErrRefCASMismatch)

	_, err = os.Stat(s.refPath("local", "box", "foo") + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file must be cleaned up")
}

type recordingWriter struct {
	got []component.ComponentDependencies
}

func (w *recordingWriter) WriteToComponentsDir(_ context.Context, cds []component.ComponentDependencies) ([]*component.Component, error) {
	w.got = append(w.got, cds...)
	return flatten.Flatten(cds), nil
}

func TestInstallEnvironment(t *testing.T) {
	s := newTestScope(t, "local", nil)
	put(t, s, inline("envs", "babel", "compile"))
	ctx := context.Background()

	w := &recordingWriter{}
	compiler := bitid.MustParse("local/envs/babel@1", "")
	written, err := s.InstallEnvironment(ctx, EnvironmentOptions{IDs: []*bitid.BitID{&compiler, nil}, Writer: w})
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(t, "local/envs/babel@1", written[0].ID().String())

	none, err := s.InstallEnvironment(ctx, EnvironmentOptions{IDs: []*bitid.BitID{nil, nil}, Writer: w})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRemoteConfig(t *testing.T) {
	s := newTestScope(t, "local", nil)
	require.NoError(t, s.SetRemote("origin", "/srv/origin"))
	require.NoError(t, s.SetRemote("mirror", "/srv/mirror"))
	require.Error(t, s.SetRemote("local", "/srv/self"))

	path, err := s.RemotePath("origin")
	require.NoError(t, err)
	assert.Equal(t, "/srv/origin", path)

	names, err := s.RemoteNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"mirror", "origin"}, names)

	require.NoError(t, s.RemoveRemote("mirror"))
	_, err = s.RemotePath("mirror")
	require.Error(t, err)

	cfg, err := ReadConfig(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Name)
}

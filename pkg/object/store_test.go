package object

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odvcencio/bit/pkg/bitid"
)

func TestHashBytesDeterminism(t *testing.T) {
	data := []byte("hello world")
	h1 := HashBytes(data)
	h2 := HashBytes(data)
	if h1 != h2 {
		t.Errorf("HashBytes not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 40 {
		t.Errorf("Ref length: got %d, want 40", len(h1))
	}
	if _, err := ParseRef(string(h1)); err != nil {
		t.Errorf("ParseRef(%q): %v", h1, err)
	}
}

func TestHashUsesCanonicalID(t *testing.T) {
	a := NewSource([]byte("module.exports = 1;"))
	b := NewSource([]byte("module.exports = 1;"))
	if mustHash(t, a) != mustHash(t, b) {
		t.Error("records with equal IDs produced different refs")
	}
	if mustHash(t, a) != HashBytes(mustID(t, a)) {
		t.Error("Hash must be sha1 of ID, not of the envelope")
	}
}

func tempRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(t.TempDir())
}

func testVersion(t *testing.T, repo *Repository, impl string) *Version {
	t.Helper()
	src := NewSource([]byte(impl))
	if _, err := repo.Write(src); err != nil {
		t.Fatalf("Write source: %v", err)
	}
	return FromComponent(VersionProps{
		ImplName:     "impl.js",
		Impl:         src,
		Message:      "initial",
		Date:         time.UnixMilli(1700000000000),
		Dependencies: bitid.NewBitIDs(bitid.MustParse("scope/box/bar@1", "")),
	})
}

func TestRepositoryWriteLoadRoundTrip(t *testing.T) {
	repo := tempRepo(t)
	v := testVersion(t, repo, "function foo() {}")

	ref, err := repo.Write(v)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := mustHash(t, v); ref != want {
		t.Fatalf("Write returned %s, want %s", ref, want)
	}

	// Bypass the decode cache to exercise the on-disk form.
	fresh := NewRepository(repo.Root())
	got, err := fresh.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotID, wantID := mustID(t, got), mustID(t, v); !bytes.Equal(gotID, wantID) {
		t.Errorf("round-trip ID mismatch:\n got %s\nwant %s", gotID, wantID)
	}
	gv, ok := got.(*Version)
	if !ok {
		t.Fatalf("Load returned %T, want *Version", got)
	}
	if gv.Dependencies.Strings()[0] != "scope/box/bar@1" {
		t.Errorf("Dependencies = %v", gv.Dependencies.Strings())
	}
}

func TestRepositoryWriteIdempotent(t *testing.T) {
	repo := tempRepo(t)
	src := NewSource([]byte("duplicate"))
	h1, err := repo.Write(src)
	if err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	h2, err := repo.Write(src)
	if err != nil {
		t.Fatalf("Write 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("same record produced different refs: %q vs %q", h1, h2)
	}

	var files int
	err = filepath.WalkDir(filepath.Join(repo.Root(), "objects"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if files != 1 {
		t.Errorf("objects on disk: got %d, want 1", files)
	}
}

func TestRepositoryFanoutLayoutAndFormat(t *testing.T) {
	repo := tempRepo(t)
	src := NewSource([]byte("format check"))
	ref, err := repo.Write(src)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(repo.Root(), "objects", string(ref[:2]), string(ref[2:])))
	if err != nil {
		t.Fatalf("expected fan-out file: %v", err)
	}
	envelope, err := Inflate(raw)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if want := "Source 12\x00format check"; string(envelope) != want {
		t.Errorf("envelope: got %q, want %q", envelope, want)
	}

	loaded, err := repo.LoadRaw(ref)
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if !bytes.Equal(loaded, raw) {
		t.Error("LoadRaw must return the on-disk bytes unmodified")
	}
}

func TestRepositoryMissingIsConsistencyError(t *testing.T) {
	repo := tempRepo(t)
	_, err := repo.LoadSync(HashBytes([]byte("never written")))
	if !errors.Is(err, ErrConsistency) {
		t.Fatalf("err = %v, want ErrConsistency", err)
	}
	if errors.Is(err, ErrDecode) {
		t.Error("missing object must not be reported as a decode error")
	}
}

func TestRepositoryCorruptIsDecodeError(t *testing.T) {
	repo := tempRepo(t)
	ref := HashBytes([]byte("corrupt"))
	dir := filepath.Join(repo.Root(), "objects", string(ref[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(ref[2:])), []byte("not zlib"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := repo.LoadSync(ref)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Ref != ref {
		t.Errorf("DecodeError should carry ref %s, got %v", ref, err)
	}
}

func TestRepositoryTypeMismatch(t *testing.T) {
	repo := tempRepo(t)
	ref, err := repo.Write(NewSource([]byte("x")))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := repo.LoadVersion(ref); !errors.Is(err, ErrDecode) {
		t.Errorf("LoadVersion on a Source: err = %v, want ErrDecode", err)
	}
}

func TestRepositoryWriteRawVerifiesHash(t *testing.T) {
	src := tempRepo(t)
	dst := tempRepo(t)

	ref, err := src.Write(NewSource([]byte("replicate me")))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := src.LoadRaw(ref)
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if err := dst.WriteRaw(ref, raw); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if !dst.Has(ref) {
		t.Fatal("replicated object missing")
	}

	other := HashBytes([]byte("something else"))
	if err := dst.WriteRaw(other, raw); !errors.Is(err, ErrDecode) {
		t.Errorf("WriteRaw under the wrong ref: err = %v, want ErrDecode", err)
	}
}

func TestLoadHonorsCanceledContext(t *testing.T) {
	repo := tempRepo(t)
	ref, err := repo.Write(NewSource([]byte("x")))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.Load(ctx, ref); !errors.Is(err, context.Canceled) {
		t.Errorf("Load with canceled ctx: err = %v", err)
	}
}

package object

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// decodedCacheSize bounds the number of decoded records kept in memory.
const decodedCacheSize = 1024

// Repository is the content-addressed record store with a 2-character
// fan-out directory layout: objects/ab/cdef0123...
//
// Files hold the zlib-compressed envelope of a record. The only operations
// are "has", "write" and "read"; nothing is ever rewritten in place.
type Repository struct {
	root    string
	decoded *lru.Cache[Ref, Record]
}

// NewRepository creates a Repository rooted at the given directory. The
// objects/ subdirectory is created lazily on first write.
func NewRepository(root string) *Repository {
	cache, err := lru.New[Ref, Record](decodedCacheSize)
	if err != nil {
		cache = nil
	}
	return &Repository{root: root, decoded: cache}
}

// Root returns the directory the repository lives in.
func (s *Repository) Root() string { return s.root }

// objectPath returns the filesystem path for a given ref.
func (s *Repository) objectPath(ref Ref) string {
	return filepath.Join(s.root, "objects", string(ref[:2]), string(ref[2:]))
}

// Has reports whether the repository contains a record with the given ref.
func (s *Repository) Has(ref Ref) bool {
	if len(ref) != refHexLen {
		return false
	}
	_, err := os.Stat(s.objectPath(ref))
	return err == nil
}

// Write stores a record and returns its ref. Writing a record that is
// already stored is a no-op.
func (s *Repository) Write(r Record) (Ref, error) {
	ref, err := Hash(r)
	if err != nil {
		return "", fmt.Errorf("object write: %w", err)
	}
	if s.Has(ref) {
		return ref, nil
	}
	compressed, err := Compress(r)
	if err != nil {
		return "", err
	}
	if err := s.writeFile(ref, compressed); err != nil {
		return "", err
	}
	return ref, nil
}

// WriteRaw stores compressed bytes received from another store. The bytes
// must decode to a record whose hash is ref.
func (s *Repository) WriteRaw(ref Ref, raw []byte) error {
	if _, err := ParseRef(string(ref)); err != nil {
		return fmt.Errorf("object write raw: %w", err)
	}
	if s.Has(ref) {
		return nil
	}
	r, err := Parse(raw)
	if err != nil {
		return withRef(err, ref)
	}
	got, err := Hash(r)
	if err != nil {
		return fmt.Errorf("object write raw %s: %w", ref, err)
	}
	if got != ref {
		return &DecodeError{Ref: ref, Kind: r.Kind(), Err: fmt.Errorf("hash mismatch: content hashes to %s", got)}
	}
	return s.writeFile(ref, raw)
}

// writeFile writes data atomically via temp file + rename.
func (s *Repository) writeFile(ref Ref, data []byte) error {
	dir := filepath.Join(s.root, "objects", string(ref[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("object write close: %w", err)
	}
	if err := os.Rename(tmpName, s.objectPath(ref)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("object write rename: %w", err)
	}
	return nil
}

// LoadRaw returns the compressed on-disk bytes of ref, unmodified.
func (s *Repository) LoadRaw(ref Ref) ([]byte, error) {
	if _, err := ParseRef(string(ref)); err != nil {
		return nil, &ConsistencyError{Ref: ref, Err: err}
	}
	raw, err := os.ReadFile(s.objectPath(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConsistencyError{Ref: ref, Err: err}
		}
		return nil, fmt.Errorf("object read %s: %w", ref, err)
	}
	return raw, nil
}

// LoadSync reads and decodes the record stored under ref.
func (s *Repository) LoadSync(ref Ref) (Record, error) {
	if s.decoded != nil {
		if r, ok := s.decoded.Get(ref); ok {
			return r, nil
		}
	}
	raw, err := s.LoadRaw(ref)
	if err != nil {
		return nil, err
	}
	r, err := Parse(raw)
	if err != nil {
		return nil, withRef(err, ref)
	}
	if s.decoded != nil {
		s.decoded.Add(ref, r)
	}
	return r, nil
}

// Load is LoadSync for callers running under a context; it fails fast when
// ctx is already done.
func (s *Repository) Load(ctx context.Context, ref Ref) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.LoadSync(ref)
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// LoadSource reads a Source record.
func (s *Repository) LoadSource(ref Ref) (*Source, error) {
	r, err := s.LoadSync(ref)
	if err != nil {
		return nil, err
	}
	src, ok := r.(*Source)
	if !ok {
		return nil, typeMismatch(ref, r.Kind(), KindSource)
	}
	return src, nil
}

// LoadVersion reads a Version record.
func (s *Repository) LoadVersion(ref Ref) (*Version, error) {
	r, err := s.LoadSync(ref)
	if err != nil {
		return nil, err
	}
	v, ok := r.(*Version)
	if !ok {
		return nil, typeMismatch(ref, r.Kind(), KindVersion)
	}
	return v, nil
}

// LoadComponent reads a Component record.
func (s *Repository) LoadComponent(ref Ref) (*Component, error) {
	r, err := s.LoadSync(ref)
	if err != nil {
		return nil, err
	}
	c, ok := r.(*Component)
	if !ok {
		return nil, typeMismatch(ref, r.Kind(), KindComponent)
	}
	return c, nil
}

func typeMismatch(ref Ref, got, want Kind) error {
	return &DecodeError{Ref: ref, Kind: got, Err: fmt.Errorf("type mismatch: got %q, want %q", got, want)}
}

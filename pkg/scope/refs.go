package scope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

func (s *Scope) refPath(scopeName, box, name string) string {
	return filepath.Join(s.path, "refs", scopeName, box, name)
}

// readRef returns the Component record ref stored for id's
// scope/box/name, or "" when there is none.
func (s *Scope) readRef(id bitid.BitID) (object.Ref, error) {
	return readRefHash(s.refPath(id.Scope, id.Box, id.Name))
}

// loadRecord loads the Component record of id's scope/box/name.
func (s *Scope) loadRecord(id bitid.BitID) (*object.Component, object.Ref, error) {
	ref, err := s.readRef(id)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", id.WithoutVersion(), err)
	}
	if ref == "" {
		return nil, "", fmt.Errorf("%s: %w", id.WithoutVersion(), ErrNotFound)
	}
	rec, err := s.repo.LoadComponent(ref)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", id.WithoutVersion(), err)
	}
	return rec, ref, nil
}

// updateRecord writes rec and moves its ref from oldRef to the new record
// using lockfile + rename compare-and-swap.
func (s *Scope) updateRecord(rec *object.Component, oldRef object.Ref) (object.Ref, error) {
	ref, err := s.repo.Write(rec)
	if err != nil {
		return "", err
	}
	if ref == oldRef {
		return ref, nil
	}
	if err := s.updateRefCAS(rec.Scope, rec.Box, rec.Name, ref, oldRef); err != nil {
		return "", err
	}
	return ref, nil
}

// updateRefCAS writes ref to the ref file of scopeName/box/name when the
// current value equals expectedOld ("" meaning absent).
func (s *Scope) updateRefCAS(scopeName, box, name string, ref, expectedOld object.Ref) error {
	display := scopeName + "/" + box + "/" + name
	refPath := s.refPath(scopeName, box, name)

	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", display, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", display, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	oldRef, err := readRefHash(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: read old ref: %w", display, err)
	}
	if oldRef != expectedOld {
		return fmt.Errorf(
			"update ref %q: %w (expected %q, found %q)",
			display,
			ErrRefCASMismatch,
			expectedOld,
			oldRef,
		)
	}

	if _, err := lockFile.WriteString(string(ref) + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", display, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", display, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", display, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", display, err)
	}
	cleanupLock = false
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("%w: timeout waiting for %q", ErrRefLocked, lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

func readRefHash(refPath string) (object.Ref, error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	ref, err := object.ParseRef(strings.TrimSpace(string(data)))
	if err != nil {
		return "", fmt.Errorf("corrupt ref file %s: %w", refPath, err)
	}
	return ref, nil
}

// List returns the Component records stored under scopeName, sorted by
// box and name. An empty scopeName lists the local scope.
func (s *Scope) List(scopeName string) ([]*object.Component, error) {
	if scopeName == "" {
		scopeName = s.name
	}
	root := filepath.Join(s.path, "refs", scopeName)

	var out []*object.Component
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}
		ref, err := readRefHash(path)
		if err != nil {
			return err
		}
		rec, err := s.repo.LoadComponent(ref)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list scope %s: %w", scopeName, err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Box != out[j].Box {
			return out[i].Box < out[j].Box
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Versions returns the version numbers stored for id's scope/box/name in
// ascending order.
func (s *Scope) Versions(id bitid.BitID) ([]int, error) {
	if id.Scope == "" {
		id = id.ChangeScope(s.name)
	}
	rec, _, err := s.loadRecord(id)
	if err != nil {
		return nil, err
	}
	return rec.VersionNumbers(), nil
}

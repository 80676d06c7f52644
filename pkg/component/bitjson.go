package component

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/bit/pkg/bitid"
)

const (
	// BitJSONFile is the name of the config file of a workspace and of each
	// component directory.
	BitJSONFile = "bit.json"

	DefaultImplFile = "impl.js"
	DefaultSpecFile = "spec.js"
	DistDir         = "dist"
	DistFile        = "dist.js"

	// NoEnv marks an unset compiler or tester in bit.json.
	NoEnv = "none"
)

// Sources names the implementation and spec files of a component.
type Sources struct {
	Impl string `json:"impl"`
	Spec string `json:"spec"`
}

// Env names the compiler and tester environment components.
type Env struct {
	Compiler string `json:"compiler"`
	Tester   string `json:"tester"`
}

// BitJSON is the persisted bit.json of a workspace or a component directory.
// Identity fields are only set in component directories.
type BitJSON struct {
	Name    string `json:"name,omitempty"`
	Box     string `json:"box,omitempty"`
	Scope   string `json:"scope,omitempty"`
	Version string `json:"version,omitempty"`

	Sources             Sources           `json:"sources"`
	Env                 Env               `json:"env"`
	Dependencies        map[string]string `json:"dependencies"`
	PackageDependencies map[string]string `json:"packageDependencies"`
}

// DefaultBitJSON returns the bit.json of a fresh workspace.
func DefaultBitJSON() *BitJSON {
	return &BitJSON{
		Sources:             Sources{Impl: DefaultImplFile, Spec: DefaultSpecFile},
		Env:                 Env{Compiler: NoEnv, Tester: NoEnv},
		Dependencies:        map[string]string{},
		PackageDependencies: map[string]string{},
	}
}

// ReadBitJSON reads dir/bit.json, filling unset settings with defaults. A
// missing file returns an error wrapping os.ErrNotExist.
func ReadBitJSON(dir string) (*BitJSON, error) {
	bj, err := readRawBitJSON(dir)
	if err != nil {
		return nil, err
	}
	bj.normalize()
	return bj, nil
}

func readRawBitJSON(dir string) (*BitJSON, error) {
	data, err := os.ReadFile(filepath.Join(dir, BitJSONFile))
	if err != nil {
		return nil, fmt.Errorf("read bit.json: %w", err)
	}
	var bj BitJSON
	if err := json.Unmarshal(data, &bj); err != nil {
		return nil, fmt.Errorf("read bit.json: unmarshal: %w", err)
	}
	return &bj, nil
}

// WriteBitJSON atomically writes dir/bit.json.
func WriteBitJSON(dir string, bj *BitJSON) error {
	if bj == nil {
		bj = DefaultBitJSON()
	}
	bj.normalize()
	data, err := json.MarshalIndent(bj, "", "  ")
	if err != nil {
		return fmt.Errorf("write bit.json: marshal: %w", err)
	}
	data = append(data, '\n')
	return writeFileAtomic(dir, BitJSONFile, data)
}

func (bj *BitJSON) normalize() {
	if bj.Sources.Impl == "" {
		bj.Sources.Impl = DefaultImplFile
	}
	if bj.Sources.Spec == "" {
		bj.Sources.Spec = DefaultSpecFile
	}
	if bj.Env.Compiler == "" {
		bj.Env.Compiler = NoEnv
	}
	if bj.Env.Tester == "" {
		bj.Env.Tester = NoEnv
	}
	if bj.Dependencies == nil {
		bj.Dependencies = map[string]string{}
	}
	if bj.PackageDependencies == nil {
		bj.PackageDependencies = map[string]string{}
	}
}

// CompilerID parses Env.Compiler; nil when unset.
func (bj *BitJSON) CompilerID(defaultScope string) (*bitid.BitID, error) {
	return parseEnv(bj.Env.Compiler, defaultScope)
}

// TesterID parses Env.Tester; nil when unset.
func (bj *BitJSON) TesterID(defaultScope string) (*bitid.BitID, error) {
	return parseEnv(bj.Env.Tester, defaultScope)
}

// DependencyIDs parses the dependency map.
func (bj *BitJSON) DependencyIDs(defaultScope string) (bitid.BitIDs, error) {
	return bitid.FromMap(bj.Dependencies, defaultScope)
}

// SetDependency records id in the dependency map, replacing any other
// version of the same component.
func (bj *BitJSON) SetDependency(id bitid.BitID) {
	if bj.Dependencies == nil {
		bj.Dependencies = map[string]string{}
	}
	bj.Dependencies[id.WithoutVersion()] = id.VersionString()
}

func parseEnv(raw, defaultScope string) (*bitid.BitID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == NoEnv {
		return nil, nil
	}
	id, err := bitid.Parse(raw, defaultScope)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func envString(id *bitid.BitID) string {
	if id == nil {
		return NoEnv
	}
	return id.String()
}

// writeFileAtomic writes dir/name via temp file + rename. name may contain
// subdirectories.
func writeFileAtomic(dir, name string, data []byte) error {
	dest := filepath.Join(dir, name)
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("write %s: mkdir: %w", name, err)
	}
	tmp, err := os.CreateTemp(parent, "."+filepath.Base(name)+"-tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: tmpfile: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: close: %w", name, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: rename: %w", name, err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

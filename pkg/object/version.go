package object

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/odvcencio/bit/pkg/bitid"
)

// FileRef names a file of a component and the Source holding its content.
type FileRef struct {
	Name string
	File Ref
}

// Log records who committed a Version, when, and why.
type Log struct {
	Message  string
	Date     string // unix milliseconds, decimal
	Username string
	Email    string
}

// Doclet is one extracted documentation entry of an implementation file.
type Doclet struct {
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`
	Signature   string `json:"signature,omitempty"`
	Description string `json:"description,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// SpecsResults is the outcome of a spec run. Version stores it as-is.
type SpecsResults struct {
	Pass  bool         `json:"pass"`
	Tests []TestResult `json:"tests,omitempty"`
	Stats TestStats    `json:"stats"`
}

// TestResult is one test case of a spec run.
type TestResult struct {
	Title    string `json:"title"`
	Pass     bool   `json:"pass"`
	Err      string `json:"err,omitempty"`
	Duration int64  `json:"duration"`
}

// TestStats summarizes a spec run. Times are unix milliseconds.
type TestStats struct {
	Start    int64 `json:"start"`
	End      int64 `json:"end"`
	Duration int64 `json:"duration"`
}

// Version is a frozen snapshot of one released revision of a component.
// A Version is never modified after it is hashed; any change produces a new
// Version with a new Ref.
type Version struct {
	Impl                  FileRef
	Specs                 *FileRef
	Dist                  *FileRef
	Compiler              *bitid.BitID
	Tester                *bitid.BitID
	Log                   Log
	SpecsResults          *SpecsResults
	Docs                  []Doclet
	Dependencies          bitid.BitIDs
	FlattenedDependencies bitid.BitIDs
	PackageDependencies   map[string]string
}

func (v *Version) Kind() Kind { return KindVersion }

// ID returns the canonical JSON form of the version.
func (v *Version) ID() ([]byte, error) { return v.Content() }

// Content is the canonical JSON form; Version's stored content and ID are
// the same bytes.
func (v *Version) Content() ([]byte, error) {
	return encodeRecord(KindVersion, v.toJSON())
}

// Refs returns the impl, specs and dist source refs, skipping unset ones.
func (v *Version) Refs() []Ref {
	refs := []Ref{v.Impl.File}
	if v.Specs != nil {
		refs = append(refs, v.Specs.File)
	}
	if v.Dist != nil {
		refs = append(refs, v.Dist.File)
	}
	return refs
}

func (v *Version) isRecord() {}

// SameContent reports whether v and other snapshot the same sources,
// environments and dependencies. Log, docs and specs results are ignored.
func (v *Version) SameContent(other *Version) bool {
	if other == nil {
		return false
	}
	if v.Impl != other.Impl || !sameFileRef(v.Specs, other.Specs) || !sameFileRef(v.Dist, other.Dist) {
		return false
	}
	if !sameID(v.Compiler, other.Compiler) || !sameID(v.Tester, other.Tester) {
		return false
	}
	if !v.Dependencies.Equal(other.Dependencies) {
		return false
	}
	if len(v.PackageDependencies) != len(other.PackageDependencies) {
		return false
	}
	for k, val := range v.PackageDependencies {
		if ov, ok := other.PackageDependencies[k]; !ok || ov != val {
			return false
		}
	}
	return true
}

func sameFileRef(a, b *FileRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameID(a, b *bitid.BitID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// VersionProps is what a workspace component contributes to a new Version.
type VersionProps struct {
	ImplName  string
	Impl      *Source
	SpecsName string
	Specs     *Source
	DistName  string
	Dist      *Source

	Compiler *bitid.BitID
	Tester   *bitid.BitID

	Message  string
	Username string
	Email    string
	Date     time.Time

	SpecsResults          *SpecsResults
	Docs                  []Doclet
	Dependencies          bitid.BitIDs
	FlattenedDependencies bitid.BitIDs
	PackageDependencies   map[string]string
}

// FromComponent builds a Version from committed component content. The
// sources are hashed here; writing them is the caller's job.
func FromComponent(p VersionProps) *Version {
	v := &Version{
		Impl:     FileRef{Name: p.ImplName, File: HashBytes(p.Impl.Data)},
		Compiler: p.Compiler,
		Tester:   p.Tester,
		Log: Log{
			Message:  p.Message,
			Date:     strconv.FormatInt(p.Date.UnixMilli(), 10),
			Username: p.Username,
			Email:    p.Email,
		},
		SpecsResults:          p.SpecsResults,
		Docs:                  p.Docs,
		Dependencies:          p.Dependencies,
		FlattenedDependencies: p.FlattenedDependencies,
		PackageDependencies:   p.PackageDependencies,
	}
	if p.Specs != nil {
		v.Specs = &FileRef{Name: p.SpecsName, File: HashBytes(p.Specs.Data)}
	}
	if p.Dist != nil {
		v.Dist = &FileRef{Name: p.DistName, File: HashBytes(p.Dist.Data)}
	}
	if v.Dependencies == nil {
		v.Dependencies = bitid.BitIDs{}
	}
	if v.FlattenedDependencies == nil {
		v.FlattenedDependencies = bitid.BitIDs{}
	}
	if v.PackageDependencies == nil {
		v.PackageDependencies = map[string]string{}
	}
	return v
}

// ---------------------------------------------------------------------------
// JSON form
// ---------------------------------------------------------------------------

type fileRefJSON struct {
	File string `json:"file"`
	Name string `json:"name"`
}

type logJSON struct {
	Message  string `json:"message"`
	Date     string `json:"date"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

type versionJSON struct {
	Impl                  fileRefJSON       `json:"impl"`
	Specs                 *fileRefJSON      `json:"specs,omitempty"`
	Dist                  *fileRefJSON      `json:"dist,omitempty"`
	Compiler              string            `json:"compiler,omitempty"`
	Tester                string            `json:"tester,omitempty"`
	Log                   logJSON           `json:"log"`
	SpecsResults          *SpecsResults     `json:"specsResults,omitempty"`
	Docs                  []Doclet          `json:"docs,omitempty"`
	Dependencies          []string          `json:"dependencies"`
	FlattenedDependencies []string          `json:"flattenedDependencies"`
	PackageDependencies   map[string]string `json:"packageDependencies,omitempty"`
}

func (v *Version) toJSON() versionJSON {
	out := versionJSON{
		Impl: fileRefJSON{File: string(v.Impl.File), Name: v.Impl.Name},
		Log: logJSON{
			Message:  v.Log.Message,
			Date:     v.Log.Date,
			Username: v.Log.Username,
			Email:    v.Log.Email,
		},
		SpecsResults:          v.SpecsResults,
		Docs:                  v.Docs,
		Dependencies:          v.Dependencies.Strings(),
		FlattenedDependencies: v.FlattenedDependencies.Strings(),
		PackageDependencies:   v.PackageDependencies,
	}
	if v.Specs != nil {
		out.Specs = &fileRefJSON{File: string(v.Specs.File), Name: v.Specs.Name}
	}
	if v.Dist != nil {
		out.Dist = &fileRefJSON{File: string(v.Dist.File), Name: v.Dist.Name}
	}
	if v.Compiler != nil {
		out.Compiler = v.Compiler.String()
	}
	if v.Tester != nil {
		out.Tester = v.Tester.String()
	}
	return out
}

// ParseVersion decodes the content of a Version record.
func ParseVersion(content []byte) (*Version, error) {
	var raw versionJSON
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, &DecodeError{Kind: KindVersion, Err: err}
	}
	fail := func(err error) (*Version, error) {
		return nil, &DecodeError{Kind: KindVersion, Err: err}
	}

	implRef, err := ParseRef(raw.Impl.File)
	if err != nil {
		return fail(fmt.Errorf("impl: %w", err))
	}
	v := &Version{
		Impl: FileRef{Name: raw.Impl.Name, File: implRef},
		Log: Log{
			Message:  raw.Log.Message,
			Date:     raw.Log.Date,
			Username: raw.Log.Username,
			Email:    raw.Log.Email,
		},
		SpecsResults:        raw.SpecsResults,
		Docs:                raw.Docs,
		PackageDependencies: raw.PackageDependencies,
	}
	if raw.Specs != nil {
		ref, err := ParseRef(raw.Specs.File)
		if err != nil {
			return fail(fmt.Errorf("specs: %w", err))
		}
		v.Specs = &FileRef{Name: raw.Specs.Name, File: ref}
	}
	if raw.Dist != nil {
		ref, err := ParseRef(raw.Dist.File)
		if err != nil {
			return fail(fmt.Errorf("dist: %w", err))
		}
		v.Dist = &FileRef{Name: raw.Dist.Name, File: ref}
	}
	if raw.Compiler != "" {
		id, err := bitid.Parse(raw.Compiler, "")
		if err != nil {
			return fail(fmt.Errorf("compiler: %w", err))
		}
		v.Compiler = &id
	}
	if raw.Tester != "" {
		id, err := bitid.Parse(raw.Tester, "")
		if err != nil {
			return fail(fmt.Errorf("tester: %w", err))
		}
		v.Tester = &id
	}
	if v.Dependencies, err = bitid.Deserialize(raw.Dependencies); err != nil {
		return fail(fmt.Errorf("dependencies: %w", err))
	}
	if v.FlattenedDependencies, err = bitid.Deserialize(raw.FlattenedDependencies); err != nil {
		return fail(fmt.Errorf("flattenedDependencies: %w", err))
	}
	if v.Dependencies == nil {
		v.Dependencies = bitid.BitIDs{}
	}
	if v.FlattenedDependencies == nil {
		v.FlattenedDependencies = bitid.BitIDs{}
	}
	if v.PackageDependencies == nil {
		v.PackageDependencies = map[string]string{}
	}
	return v, nil
}

// encodeRecord produces the canonical JSON content of a record.
func encodeRecord(kind Kind, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return data, nil
}

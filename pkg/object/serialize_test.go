package object

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/odvcencio/bit/pkg/bitid"
)

func mustHash(t testing.TB, r Record) Ref {
	t.Helper()
	ref, err := Hash(r)
	if err != nil {
		t.Fatalf("Hash(%s): %v", r.Kind(), err)
	}
	return ref
}

func mustID(t testing.TB, r Record) []byte {
	t.Helper()
	id, err := r.ID()
	if err != nil {
		t.Fatalf("ID(%s): %v", r.Kind(), err)
	}
	return id
}

func TestSerializeEnvelope(t *testing.T) {
	src := NewSource([]byte("héllo"))
	got, err := Serialize(src)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	// Length counts bytes, not characters.
	if want := "Source 6\x00héllo"; string(got) != want {
		t.Errorf("Serialize = %q, want %q", got, want)
	}
}

func TestCompressParseRoundTrip(t *testing.T) {
	compiler := bitid.MustParse("global/envs/babel@2", "")
	v := FromComponent(VersionProps{
		ImplName:  "impl.js",
		Impl:      NewSource([]byte("impl")),
		SpecsName: "spec.js",
		Specs:     NewSource([]byte("spec")),
		DistName:  "dist.js",
		Dist:      NewSource([]byte("dist")),
		Compiler:  &compiler,
		Message:   "msg",
		Username:  "ada",
		Email:     "ada@example.com",
		Date:      time.UnixMilli(42),
		SpecsResults: &SpecsResults{
			Pass:  true,
			Tests: []TestResult{{Title: "works", Pass: true, Duration: 3}},
			Stats: TestStats{Start: 1, End: 4, Duration: 3},
		},
		Docs:                  []Doclet{{Name: "foo", Kind: "function", Description: "does foo"}},
		Dependencies:          bitid.NewBitIDs(bitid.MustParse("s/box/bar@1", "")),
		FlattenedDependencies: bitid.NewBitIDs(bitid.MustParse("s/box/bar@1", ""), bitid.MustParse("s/box/baz@3", "")),
		PackageDependencies:   map[string]string{"left-pad": "^1.0.0"},
	})

	compressed, err := Compress(v)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	r, err := Parse(compressed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, ok := r.(*Version)
	if !ok {
		t.Fatalf("Parse returned %T", r)
	}
	if gotID, wantID := mustID(t, got), mustID(t, v); !bytes.Equal(gotID, wantID) {
		t.Fatalf("ID mismatch:\n got %s\nwant %s", gotID, wantID)
	}
	if mustHash(t, got) != mustHash(t, v) {
		t.Error("hash changed across round-trip")
	}
	if got.Log.Date != "42" {
		t.Errorf("Log.Date = %q, want %q", got.Log.Date, "42")
	}
	if got.Compiler == nil || *got.Compiler != compiler {
		t.Errorf("Compiler = %v", got.Compiler)
	}
	if len(got.Refs()) != 3 {
		t.Errorf("Refs = %v, want impl, specs and dist", got.Refs())
	}
}

func TestVersionRefsSkipUnset(t *testing.T) {
	v := FromComponent(VersionProps{ImplName: "impl.js", Impl: NewSource([]byte("a"))})
	refs := v.Refs()
	if len(refs) != 1 || refs[0] != mustHash(t, NewSource([]byte("a"))) {
		t.Errorf("Refs = %v, want only the impl ref", refs)
	}
}

func TestVersionCanonicalFormOmitsUnset(t *testing.T) {
	v := FromComponent(VersionProps{ImplName: "impl.js", Impl: NewSource([]byte("a")), Date: time.UnixMilli(1)})
	id := string(mustID(t, v))
	for _, field := range []string{`"specs"`, `"dist"`, `"compiler"`, `"tester"`, `"specsResults"`, `"docs"`} {
		if strings.Contains(id, field) {
			t.Errorf("canonical form should omit %s: %s", field, id)
		}
	}
	if !strings.Contains(id, `"dependencies":[]`) {
		t.Errorf("canonical form should keep empty dependencies: %s", id)
	}
}

func TestParseUnknownKind(t *testing.T) {
	_, err := ParseSerialized([]byte("Widget 2\x00{}"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if !strings.Contains(err.Error(), "unknown record kind") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestParseMalformedEnvelopes(t *testing.T) {
	cases := map[string]string{
		"no nul":          "Source 3abc",
		"no length":       "Source\x00abc",
		"bad length":      "Source x\x00abc",
		"length mismatch": "Source 5\x00abc",
		"bad version":     "Version 2\x00{]",
	}
	badRef := `{"impl":{"file":"zz","name":"impl.js"},"log":{"message":"","date":""}}`
	cases["version bad ref"] = fmt.Sprintf("Version %d\x00%s", len(badRef), badRef)
	for name, envelope := range cases {
		if _, err := ParseSerialized([]byte(envelope)); !errors.Is(err, ErrDecode) {
			t.Errorf("%s: err = %v, want ErrDecode", name, err)
		}
	}
}

func TestComponentRecordRoundTrip(t *testing.T) {
	c := &Component{Scope: "s", Box: "box", Name: "foo", Versions: map[int]Ref{}}
	c2 := c.WithVersion(1, HashBytes([]byte("v1"))).WithVersion(10, HashBytes([]byte("v10")))
	if len(c.Versions) != 0 {
		t.Error("WithVersion must not mutate the receiver")
	}
	if c2.Latest() != 10 {
		t.Errorf("Latest = %d, want 10", c2.Latest())
	}
	if refs := c2.Refs(); len(refs) != 2 || refs[0] != HashBytes([]byte("v1")) {
		t.Errorf("Refs not ordered by version: %v", refs)
	}

	compressed, err := Compress(c2)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	r, err := Parse(compressed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if mustHash(t, r) != mustHash(t, c2) {
		t.Error("component record hash changed across round-trip")
	}
	if moved := c2.ChangeScope("remote"); mustHash(t, moved) == mustHash(t, c2) || moved.Scope != "remote" {
		t.Error("ChangeScope should produce a distinct record")
	}
}

func TestParseComponentRejectsPathSegments(t *testing.T) {
	for _, content := range []string{
		`{"scope":"s","box":"..","name":"x","versions":{}}`,
		`{"scope":"s","box":"box","name":".","versions":{}}`,
		`{"scope":"../s","box":"box","name":"x","versions":{}}`,
		`{"scope":"s","box":"a/b","name":"x","versions":{}}`,
	} {
		if _, err := ParseComponent([]byte(content)); !errors.Is(err, ErrDecode) {
			t.Errorf("ParseComponent(%s) error = %v, want ErrDecode", content, err)
		}
	}
}

func TestEncodeRecordReturnsError(t *testing.T) {
	_, err := encodeRecord(KindVersion, make(chan int))
	if err == nil || !strings.Contains(err.Error(), "encode Version") {
		t.Fatalf("encodeRecord error = %v", err)
	}
}

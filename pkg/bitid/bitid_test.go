package bitid

import (
	"testing"
)

func TestParseForms(t *testing.T) {
	tests := []struct {
		raw  string
		want BitID
	}{
		{"box/name", BitID{Scope: "local", Box: "box", Name: "name"}},
		{"box/name@3", BitID{Scope: "local", Box: "box", Name: "name", Version: 3}},
		{"remote/box/name@1", BitID{Scope: "remote", Box: "box", Name: "name", Version: 1}},
		{"remote/box/name@latest", BitID{Scope: "remote", Box: "box", Name: "name"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.raw, "local")
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"", "name", "a/b/c/d", "box//name", "box/name@0", "box/name@x",
		"../x", "box/.", "box/..", "s/../name", "./box/name", `box\evil/name`,
	} {
		if _, err := Parse(raw, "local"); err == nil {
			t.Errorf("Parse(%q) should fail", raw)
		}
	}
}

func TestParseRejectsInvalidDefaultScope(t *testing.T) {
	for _, scope := range []string{"..", ".", "a/b"} {
		if _, err := Parse("box/name", scope); err == nil {
			t.Errorf("Parse with default scope %q should fail", scope)
		}
	}
}

func TestValidateSegment(t *testing.T) {
	for _, seg := range []string{"box", "my-box", "a.b", "..x"} {
		if err := ValidateSegment(seg); err != nil {
			t.Errorf("ValidateSegment(%q): %v", seg, err)
		}
	}
	for _, seg := range []string{"", " ", ".", "..", "a/b", `a\b`} {
		if err := ValidateSegment(seg); err == nil {
			t.Errorf("ValidateSegment(%q) should fail", seg)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	id := BitID{Scope: "s", Box: "b", Name: "n", Version: 7}
	if id.String() != "s/b/n@7" {
		t.Fatalf("String = %q", id.String())
	}
	back, err := Parse(id.String(), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back != id {
		t.Errorf("round-trip: got %+v, want %+v", back, id)
	}
}

func TestChangeScopeDoesNotMutate(t *testing.T) {
	id := BitID{Scope: "local", Box: "b", Name: "n", Version: 1}
	moved := id.ChangeScope("remote")
	if id.Scope != "local" {
		t.Errorf("original mutated: %+v", id)
	}
	if moved.Scope != "remote" || moved.Box != "b" || moved.Version != 1 {
		t.Errorf("ChangeScope = %+v", moved)
	}
}

func TestBitIDsDedupKeepsVersions(t *testing.T) {
	a1 := BitID{Scope: "s", Box: "b", Name: "a", Version: 1}
	a2 := a1.ChangeVersion(2)
	ids := NewBitIDs(a1, a2, a1)
	if len(ids) != 2 {
		t.Fatalf("len = %d, want 2", len(ids))
	}
	if ids[0] != a1 || ids[1] != a2 {
		t.Errorf("order not preserved: %v", ids.Strings())
	}
}

func TestMapRoundTrip(t *testing.T) {
	m := map[string]string{"box/bar": "1", "box/baz": "2", "other/box/qux": "latest"}
	ids, err := FromMap(m, "local")
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	want := []string{"local/box/bar@1", "local/box/baz@2", "other/box/qux"}
	got := ids.Strings()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	back := ids.ToMap()
	if back["local/box/bar"] != "1" || back["other/box/qux"] != "latest" {
		t.Errorf("ToMap = %v", back)
	}
}

func TestFromMapRejectsVersionedKey(t *testing.T) {
	if _, err := FromMap(map[string]string{"box/bar@1": "1"}, "local"); err == nil {
		t.Error("versioned key should be rejected")
	}
}

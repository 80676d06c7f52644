package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/odvcencio/bit/pkg/object"
)

func chdirForTest(t *testing.T, dir string) func() {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s): %v", dir, err)
	}
	return func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore cwd %s: %v", wd, err)
		}
	}
}

func runBit(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var output bytes.Buffer
	root := newRootCmd()
	root.SetOut(&output)
	root.SetErr(&output)
	root.SetArgs(args)
	err := root.Execute()
	return output.String(), err
}

func mustRunBit(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runBit(t, args...)
	if err != nil {
		t.Fatalf("bit %s: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func isolateGlobalConfig(t *testing.T) {
	t.Helper()
	t.Setenv(consumer.GlobalConfigEnv, filepath.Join(t.TempDir(), consumer.GlobalConfigFile))
	t.Setenv("BIT_USER_NAME", "")
	t.Setenv("BIT_USER_EMAIL", "")
}

func TestCommitExportAndInspect(t *testing.T) {
	isolateGlobalConfig(t)
	hub := filepath.Join(t.TempDir(), "hub")
	work := filepath.Join(t.TempDir(), "work")

	mustRunBit(t, "init", "--bare", "--name", "hub", hub)
	out := mustRunBit(t, "init", "--name", "local", work)
	if !strings.Contains(out, `scope "local"`) {
		t.Fatalf("init output = %q", out)
	}

	restore := chdirForTest(t, work)
	defer restore()

	mustRunBit(t, "create", "box/foo", "--specs")
	out = mustRunBit(t, "list", "--inline")
	if strings.TrimSpace(out) != "box/foo" {
		t.Fatalf("list --inline = %q, want box/foo", out)
	}

	out = mustRunBit(t, "status")
	if !strings.Contains(out, "new") || !strings.Contains(out, "box/foo") {
		t.Fatalf("status = %q", out)
	}
	out = mustRunBit(t, "diff", "box/foo")
	if !strings.Contains(out, "+++ b/box/foo/impl.js") {
		t.Fatalf("diff = %q", out)
	}

	if _, err := runBit(t, "commit", "box/foo"); err == nil {
		t.Fatal("commit without -m should fail")
	}
	out = mustRunBit(t, "commit", "box/foo", "-m", "first")
	if !strings.Contains(out, "[local/box/foo@1] first") {
		t.Fatalf("commit output = %q", out)
	}

	out = mustRunBit(t, "list")
	if strings.TrimSpace(out) != "local/box/foo@1" {
		t.Fatalf("list = %q", out)
	}

	out = mustRunBit(t, "show", "box/foo", "--json")
	var view showJSON
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("show --json: %v\n%s", err, out)
	}
	if view.ID != "local/box/foo@1" || view.Specs == "" {
		t.Fatalf("show --json = %+v", view)
	}

	mustRunBit(t, "remote", "add", "hub", hub)
	out = mustRunBit(t, "remote")
	if !strings.HasPrefix(out, "hub\t") {
		t.Fatalf("remote = %q", out)
	}

	out = mustRunBit(t, "export", "box/foo", "hub")
	if !strings.Contains(out, "exported hub/box/foo@1") {
		t.Fatalf("export output = %q", out)
	}
	out = mustRunBit(t, "list")
	if strings.TrimSpace(out) != "hub/box/foo@1" {
		t.Fatalf("list after export = %q", out)
	}
	out = mustRunBit(t, "list", "--scope", "hub")
	if !strings.HasPrefix(out, "hub/box/foo@1\t") {
		t.Fatalf("list --scope hub = %q", out)
	}

	raw, err := os.ReadFile(filepath.Join(work, consumer.HiddenDir, "refs", "hub", "box", "foo"))
	if err != nil {
		t.Fatalf("read ref: %v", err)
	}
	out = mustRunBit(t, "cat-object", "-t", strings.TrimSpace(string(raw)))
	if strings.TrimSpace(out) != string(object.KindComponent) {
		t.Fatalf("cat-object -t = %q", out)
	}
	out = mustRunBit(t, "cat-object", strings.TrimSpace(string(raw)))
	if !strings.Contains(out, `"scope":"hub"`) {
		t.Fatalf("cat-object = %q", out)
	}

	mustRunBit(t, "remove", "hub/box/foo")
	out = mustRunBit(t, "list")
	if strings.TrimSpace(out) != "" {
		t.Fatalf("list after remove = %q", out)
	}
	mustRunBit(t, "import", "hub/box/foo", "--save")
	out = mustRunBit(t, "list")
	if strings.TrimSpace(out) != "hub/box/foo@1" {
		t.Fatalf("list after import = %q", out)
	}
}

func TestImportRejectsConflictingFlags(t *testing.T) {
	_, err := runBit(t, "import", "envs/babel", "-t", "-c")
	if !errors.Is(err, consumer.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	_, err = runBit(t, "import", "--compiler")
	if !errors.Is(err, consumer.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestOutsideWorkspace(t *testing.T) {
	isolateGlobalConfig(t)
	restore := chdirForTest(t, t.TempDir())
	defer restore()

	_, err := runBit(t, "list")
	if !errors.Is(err, consumer.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestConfigCmd(t *testing.T) {
	isolateGlobalConfig(t)
	mustRunBit(t, "config", "user.name", "Ada")
	out := mustRunBit(t, "config", "user.name")
	if strings.TrimSpace(out) != "Ada" {
		t.Fatalf("config user.name = %q", out)
	}
	if _, err := runBit(t, "config", "user.shoe", "x"); !errors.Is(err, consumer.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestReportErrorExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{"consistency", fmt.Errorf("load: %w", &object.ConsistencyError{Ref: "ab", Err: os.ErrNotExist}), 2, "fatal: "},
		{"decode", fmt.Errorf("load: %w", object.ErrDecode), 2, "fatal: "},
		{"other", errors.New("boom"), 1, "error: boom"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := reportError(&buf, tc.err); got != tc.code {
				t.Errorf("code = %d, want %d", got, tc.code)
			}
			if !strings.HasPrefix(buf.String(), tc.want) {
				t.Errorf("output = %q, want prefix %q", buf.String(), tc.want)
			}
		})
	}
}

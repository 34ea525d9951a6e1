package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDeploy(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dist")
	d := NewDeployer(root, "")

	dep, err := d.Deploy(context.Background(), "1700000000000", map[string]string{
		"index.html":       "<h1>v1</h1>",
		"assets/tool.json": "{}",
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if dep.Path != filepath.Join(root, "1700000000000", "index.html") {
		t.Errorf("Path = %s", dep.Path)
	}
	if len(dep.Files) != 2 || dep.Files[0] != "assets/tool.json" {
		t.Errorf("Files = %v", dep.Files)
	}
	got, err := os.ReadFile(dep.Path)
	if err != nil || string(got) != "<h1>v1</h1>" {
		t.Fatalf("index.html = %q, %v", got, err)
	}

	// Redeploying replaces the bundle.
	if _, err := d.Deploy(context.Background(), "1700000000000", map[string]string{"index.html": "<h1>v2</h1>"}); err != nil {
		t.Fatal(err)
	}
	got, _ = os.ReadFile(dep.Path)
	if string(got) != "<h1>v2</h1>" {
		t.Errorf("index.html after redeploy = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "1700000000000", "assets", "tool.json")); !os.IsNotExist(err) {
		t.Error("stale file survived redeploy")
	}

	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".deploy-") {
			t.Errorf("staging dir left behind: %s", e.Name())
		}
	}
}

func TestDeployRejectsUnsafeNames(t *testing.T) {
	d := NewDeployer(t.TempDir(), "")

	if _, err := d.Deploy(context.Background(), "../etc", map[string]string{"index.html": ""}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("id traversal: %v", err)
	}
	for _, name := range []string{"../x.html", "/abs.html", ""} {
		if _, err := d.Deploy(context.Background(), "1", map[string]string{name: ""}); !errors.Is(err, ErrInvalidFile) {
			t.Errorf("file %q: %v", name, err)
		}
	}
}

func TestDeployHook(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook script needs a POSIX shell")
	}
	dir := t.TempDir()
	hook := filepath.Join(dir, "hook.sh")
	if err := os.WriteFile(hook, []byte("#!/bin/sh\necho \"synced $1\"\n"), 0755); err != nil {
		t.Fatal(err)
	}

	d := NewDeployer(filepath.Join(dir, "dist"), hook)
	dep, err := d.Deploy(context.Background(), "42", map[string]string{"index.html": "x"})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if dep.HookOutput != "synced "+dep.Dir {
		t.Errorf("HookOutput = %q", dep.HookOutput)
	}

	failing := filepath.Join(dir, "fail.sh")
	os.WriteFile(failing, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0755)
	d = NewDeployer(filepath.Join(dir, "dist"), failing)
	if _, err := d.Deploy(context.Background(), "43", map[string]string{"index.html": "x"}); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want hook stderr", err)
	}
}

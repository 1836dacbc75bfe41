package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/t10/tyck"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[log]
verbosity = 2
file = "t10.log"

[types]
comparator = "assignable"

[bench]
iterations = 500

[inspect]
db = "snaps.db"
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", c.Log.Verbosity)
	}
	if c.Types.Comparator != "assignable" {
		t.Errorf("comparator = %q, want assignable", c.Types.Comparator)
	}
	if c.Bench.Iterations != 500 {
		t.Errorf("iterations = %d, want 500", c.Bench.Iterations)
	}
	abs, _ := filepath.Abs(dir)
	if c.Dir != abs {
		t.Errorf("Dir = %q, want %q", c.Dir, abs)
	}
	if got, want := c.DBPath(), filepath.Join(abs, "snaps.db"); got != want {
		t.Errorf("DBPath = %q, want %q", got, want)
	}
	if p := c.LogPath(); p == nil || *p != filepath.Join(abs, "t10.log") {
		t.Errorf("LogPath = %v", p)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Types.Comparator != "exact" {
		t.Errorf("comparator = %q, want exact", c.Types.Comparator)
	}
	if c.Bench.Iterations != 1_000_000 {
		t.Errorf("iterations = %d", c.Bench.Iterations)
	}
	if c.LogPath() != nil {
		t.Error("LogPath should be nil without [log] file")
	}
	if filepath.Base(c.DBPath()) != "t10-snapshots.db" {
		t.Errorf("DBPath = %q", c.DBPath())
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Errorf("Default does not validate: %v", err)
	}
	if c.Comparator() != tyck.Exact {
		t.Error("default comparator should be Exact")
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "[types\ncomparator = "},
		{"unknown comparator", "[types]\ncomparator = \"fuzzy\""},
		{"negative iterations", "[bench]\niterations = -1"},
		{"verbosity", "[log]\nverbosity = 9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			if _, err := Load(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[bench]\niterations = 7\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if c.Bench.Iterations != 7 {
		t.Errorf("iterations = %d, want 7", c.Bench.Iterations)
	}
}

func TestApply(t *testing.T) {
	c := Default()
	c.Types.Comparator = "assignable"
	prev := c.Apply()
	defer tyck.Use(prev)

	if tyck.Current() != tyck.Assignable {
		t.Error("Apply did not install the assignable comparator")
	}
}

func TestResolveKeepsSpecialPaths(t *testing.T) {
	c := Default()
	c.Inspect.DB = ":memory:"
	if c.DBPath() != ":memory:" {
		t.Errorf("DBPath = %q", c.DBPath())
	}
	abs := filepath.Join(t.TempDir(), "x.db")
	c.Inspect.DB = abs
	if c.DBPath() != abs {
		t.Errorf("DBPath = %q, want %q", c.DBPath(), abs)
	}
}

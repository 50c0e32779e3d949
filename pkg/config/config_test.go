package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"tsume/pkg/config"
	"tsume/pkg/shogi"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoadConfigDefaults verifies omitted fields keep their defaults.
func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"engine": "/usr/local/bin/engine", "solver": {"max_nodes": 5000, "strict": true}}`)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := config.Default()
	if cfg.Engine != "/usr/local/bin/engine" || cfg.Millis != def.Millis {
		t.Fatalf("engine section: %+v", cfg)
	}
	if cfg.Solver.MaxNodes != 5000 || !cfg.Solver.Strict || cfg.Solver.MemoryMB != def.Solver.MemoryMB {
		t.Fatalf("solver section: %+v", cfg.Solver)
	}
	st, err := cfg.StateConfig()
	if err != nil {
		t.Fatalf("state config: %v", err)
	}
	if st != shogi.DefaultStateConfig() {
		t.Fatalf("state config: got %+v", st)
	}
}

// TestLoadConfigErrors verifies malformed files and unknown rules fail.
func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := config.LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("missing file should fail")
	}
	if _, err := config.LoadConfig(writeConfig(t, dir, `{"millis": `)); err == nil {
		t.Fatal("truncated json should fail")
	}
	if _, err := config.LoadConfig(writeConfig(t, dir, `{"state": {"rule": "chess"}}`)); err == nil {
		t.Fatal("unknown rule should fail")
	}
}

// TestFindConfigPathFrom verifies discovery walks up parent directories.
func TestFindConfigPathFrom(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, `{}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path, dir, err := config.FindConfigPathFrom(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if path != want || dir != root {
		t.Fatalf("got %s in %s, want %s", path, dir, want)
	}
}

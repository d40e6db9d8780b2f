package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	var cfg Config
	cfg.App.Port = 38471
	cfg.App.DataDir = "."
	cfg.Search.Queries = []string{`site:jobs.lever.co "engineer"`}
	cfg.Search.IntervalSeconds = 21600
	cfg.Validation.IntervalSeconds = 3600
	cfg.Validation.TimeoutSeconds = 5
	cfg.Validation.RetryTimeoutSeconds = 15
	cfg.Validation.BatchSize = 5
	cfg.RateLimit.PerHostRPS = 2
	cfg.RateLimit.Burst = 4
	return cfg
}

func TestSaveAtomicAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := validConfig()

	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.App.Port != cfg.App.Port {
		t.Errorf("Port = %d", loaded.App.Port)
	}
	if len(loaded.Search.Queries) != 1 {
		t.Errorf("Queries = %v", loaded.Search.Queries)
	}

	// Second save keeps a .bak of the first.
	cfg.App.Port = 38472
	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Errorf("expected .bak after resave: %v", err)
	}
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.App.Port = 0
	if err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Search.Queries = []string{" a ", "a", "", "b"}
	out, vr := NormalizeAndValidate(cfg)
	if !vr.OK() {
		t.Fatalf("unexpected errors: %v", vr.Errors)
	}
	if len(out.Search.Queries) != 2 {
		t.Errorf("Queries = %v, want deduped pair", out.Search.Queries)
	}

	cfg = validConfig()
	cfg.Email.Enabled = true
	if _, vr := NormalizeAndValidate(cfg); vr.OK() {
		t.Error("email enabled without host/user must error")
	}

	cfg = validConfig()
	cfg.GitHub.Repo = "not-a-repo"
	if _, vr := NormalizeAndValidate(cfg); vr.OK() {
		t.Error("repo without owner must error")
	}
}

func TestEnsureUserConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "default.yml")
	if err := SaveAtomic(defaultPath, validConfig()); err != nil {
		t.Fatal(err)
	}

	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(userPath); err != nil {
		t.Fatalf("seeded config missing: %v", err)
	}

	// Second call leaves the existing file alone.
	again, err := EnsureUserConfig(dataDir, "does-not-exist.yml")
	if err != nil {
		t.Fatal(err)
	}
	if again != userPath {
		t.Errorf("path changed: %q vs %q", again, userPath)
	}
}

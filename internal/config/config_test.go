package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t), "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "memorank.db" {
		t.Errorf("DatabasePath = %q, want memorank.db", cfg.DatabasePath)
	}
	if cfg.Training.Epochs != 400 || cfg.Training.LearningRate != 0.5 {
		t.Errorf("training defaults = %+v", cfg.Training)
	}
	if cfg.Bootstrap.Sessions != 500 || cfg.Bootstrap.Seed != 42 {
		t.Errorf("bootstrap defaults = %+v", cfg.Bootstrap)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memorank.yaml")
	content := "listen_addr: \":9090\"\ntraining:\n  epochs: 100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(newFlags(t), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.ListenAddr)
	}
	if cfg.Training.Epochs != 100 {
		t.Errorf("Training.Epochs = %d, want 100", cfg.Training.Epochs)
	}
	// Untouched keys keep their defaults.
	if cfg.DatabasePath != "memorank.db" {
		t.Errorf("DatabasePath = %q, want memorank.db", cfg.DatabasePath)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memorank.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEMORANK_LISTEN_ADDR", ":7070")
	t.Setenv("MEMORANK_TRAINING__EPOCHS", "50")

	cfg, err := Load(newFlags(t), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q, want :7070", cfg.ListenAddr)
	}
	if cfg.Training.Epochs != 50 {
		t.Errorf("Training.Epochs = %d, want 50", cfg.Training.Epochs)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MEMORANK_LISTEN_ADDR", ":7070")

	cfg, err := Load(newFlags(t, "--listen_addr", ":6060"), "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":6060" {
		t.Errorf("ListenAddr = %q, want :6060", cfg.ListenAddr)
	}
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	if _, err := Load(newFlags(t), filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("Load() with missing file error = %v, want nil", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MEMORANK_TRAINING__EPOCHS", "0")

	if _, err := Load(newFlags(t), ""); err == nil {
		t.Error("Load() accepted zero training epochs")
	}
}

package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsUsable(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Execution.MemorySize == 0 {
		t.Fatalf("expected a non-zero default memory size")
	}
	if cfg.Execution.StackTop == 0 {
		t.Fatalf("expected a non-zero default stack top")
	}
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Execution.MaxSteps != DefaultConfig().Execution.MaxSteps {
		t.Fatalf("expected default max steps")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Execution.MemorySize = 2048
	cfg.Display.Theme = "light"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Execution.MemorySize != 2048 {
		t.Fatalf("expected memory_size 2048, got %d", loaded.Execution.MemorySize)
	}
	if loaded.Display.Theme != "light" {
		t.Fatalf("expected theme light, got %q", loaded.Display.Theme)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()
	if cfg.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", cfg.Threshold, DefaultThreshold)
	}
	if cfg.Inverse != DefaultInverse {
		t.Errorf("Inverse = %v, want %v", cfg.Inverse, DefaultInverse)
	}
	if cfg.NumWorkers <= 0 {
		t.Errorf("NumWorkers = %d, want > 0", cfg.NumWorkers)
	}
}

func TestLoadRunConfigMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadRunConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %d, want default %d", cfg.Threshold, DefaultThreshold)
	}
}

func TestSaveAndLoadRunConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")

	want := DefaultRunConfig()
	want.Threshold = 200
	want.Inverse = true
	want.NumWorkers = 4

	if err := SaveRunConfig(want, path); err != nil {
		t.Fatalf("SaveRunConfig: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}

	got, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if got.Threshold != want.Threshold || got.Inverse != want.Inverse || got.NumWorkers != want.NumWorkers {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

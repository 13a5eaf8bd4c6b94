package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// TestDefaultConfig verifies the defaults are valid
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
	if cfg.Processing.NumCores != runtime.NumCPU() {
		t.Errorf("Expected %d cores, got %d", runtime.NumCPU(), cfg.Processing.NumCores)
	}
	if cfg.Output.Quality != 95 {
		t.Errorf("Expected quality 95, got %d", cfg.Output.Quality)
	}
	if cfg.Output.FolderName != "converted_jpegs" {
		t.Errorf("Expected folder converted_jpegs, got %s", cfg.Output.FolderName)
	}
}

// TestLoadMissingConfig verifies that a missing file yields the defaults
func TestLoadMissingConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Processing.Frames != "first" {
		t.Errorf("Expected frames=first, got %s", cfg.Processing.Frames)
	}
}

// TestLoadPartialConfig verifies that YAML values override only what they set
func TestLoadPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("output:\n  quality: 80\nprocessing:\n  frames: all\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Output.Quality != 80 {
		t.Errorf("Expected quality 80, got %d", cfg.Output.Quality)
	}
	if cfg.Processing.Frames != "all" {
		t.Errorf("Expected frames=all, got %s", cfg.Processing.Frames)
	}
	if cfg.Output.FolderName != "converted_jpegs" {
		t.Errorf("Default folder name was lost: %q", cfg.Output.FolderName)
	}
}

// TestLoadInvalidConfig verifies range checks and YAML errors
func TestLoadInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"quality":  "output:\n  quality: 101\n",
		"frames":   "processing:\n  frames: some\n",
		"cores":    "processing:\n  numCores: 0\n",
		"format":   "logging:\n  format: xml\n",
		"bad yaml": "output: [\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

// TestSaveAndLoad verifies that a saved default config loads back identically
func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile returned error: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Loaded config differs from defaults: %+v", cfg)
	}
}

// TestOverrideRepairsFileValue verifies validation runs after the overrides
func TestOverrideRepairsFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output:\n  quality: 0\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected quality 0 to be rejected without an override")
	}

	cfg, err := LoadWithOverrides(path, func(c *Config) { c.Output.Quality = 90 })
	if err != nil {
		t.Fatalf("LoadWithOverrides returned error: %v", err)
	}
	if cfg.Output.Quality != 90 {
		t.Errorf("Expected quality 90, got %d", cfg.Output.Quality)
	}
}

// TestOverrideCannotHideInvalidValue verifies the merged result is still validated
func TestOverrideCannotHideInvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := LoadWithOverrides(path, func(c *Config) { c.Processing.Frames = "some" })
	if err == nil {
		t.Error("Expected an error for an invalid override")
	}
}

// TestReadConfigSkipsValidation verifies raw values are returned as written
func TestReadConfigSkipsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output:\n  quality: 0\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig returned error: %v", err)
	}
	if cfg.Output.Quality != 0 {
		t.Errorf("Expected quality 0, got %d", cfg.Output.Quality)
	}
}

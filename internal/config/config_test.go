package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("Expected default config to be created")
	}

	if config.ServerURL != "ws://localhost:8000/ws/transcribe" {
		t.Errorf("Expected default server URL, got '%s'", config.ServerURL)
	}

	if config.Model != "base" {
		t.Errorf("Expected Model 'base', got '%s'", config.Model)
	}

	if config.Language != "auto" {
		t.Errorf("Expected Language 'auto', got '%s'", config.Language)
	}

	if config.Hotkey != "ctrl+shift+w" {
		t.Errorf("Expected Hotkey 'ctrl+shift+w', got '%s'", config.Hotkey)
	}

	if config.Audio.DeviceID != -1 {
		t.Errorf("Expected DeviceID -1, got %d", config.Audio.DeviceID)
	}

	if config.Audio.SampleRate != 16000 {
		t.Errorf("Expected SampleRate 16000, got %d", config.Audio.SampleRate)
	}

	if config.Audio.Channels != 1 {
		t.Errorf("Expected Channels 1, got %d", config.Audio.Channels)
	}

	if config.Audio.ChunkSize != 1024 {
		t.Errorf("Expected ChunkSize 1024, got %d", config.Audio.ChunkSize)
	}

	if config.Recording.MinDurationMs != 100 {
		t.Errorf("Expected MinDurationMs 100, got %d", config.Recording.MinDurationMs)
	}

	if config.Recording.MaxDurationS != 300 {
		t.Errorf("Expected MaxDurationS 300, got %d", config.Recording.MaxDurationS)
	}

	if config.Injection.Method != "type" {
		t.Errorf("Expected injection method 'type', got '%s'", config.Injection.Method)
	}

	if !config.NotificationsEnabled {
		t.Error("Expected notifications to be enabled by default")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.ServerURL != DefaultConfig().ServerURL {
		t.Errorf("Expected defaults for missing file, got '%s'", config.ServerURL)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	config := DefaultConfig()
	config.Model = "small"
	config.Hotkey = "cmd+shift+d"

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Model != "small" {
		t.Errorf("Expected Model 'small', got '%s'", loaded.Model)
	}

	if loaded.Hotkey != "cmd+shift+d" {
		t.Errorf("Expected Hotkey 'cmd+shift+d', got '%s'", loaded.Hotkey)
	}
}

func TestLoad_PartialFileMergesFieldByField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	// Only one field of the audio group is overridden; the rest of the
	// group must keep its defaults, not be zeroed.
	partial := `{"model": "large", "audio": {"sample_rate": 48000}}`
	if err := os.WriteFile(configPath, []byte(partial), 0644); err != nil {
		t.Fatalf("Failed to write partial config: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Model != "large" {
		t.Errorf("Expected Model 'large', got '%s'", config.Model)
	}

	if config.Audio.SampleRate != 48000 {
		t.Errorf("Expected SampleRate 48000, got %d", config.Audio.SampleRate)
	}

	if config.Audio.Channels != 1 {
		t.Errorf("Expected Channels to keep default 1, got %d", config.Audio.Channels)
	}

	if config.Audio.ChunkSize != 1024 {
		t.Errorf("Expected ChunkSize to keep default 1024, got %d", config.Audio.ChunkSize)
	}

	if config.Audio.DeviceID != -1 {
		t.Errorf("Expected DeviceID to keep default -1, got %d", config.Audio.DeviceID)
	}

	if config.ServerURL != DefaultConfig().ServerURL {
		t.Errorf("Expected ServerURL to keep default, got '%s'", config.ServerURL)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SPEAKTOME_SERVER_URL", "ws://example.com:9000/ws/transcribe")
	t.Setenv("SPEAKTOME_MODEL", "medium")
	t.Setenv("SPEAKTOME_HOTKEY", "cmd+shift+v")
	t.Setenv("SPEAKTOME_LOG_LEVEL", "debug")

	config := DefaultConfig()
	config.ApplyEnv()

	if config.ServerURL != "ws://example.com:9000/ws/transcribe" {
		t.Errorf("Expected env server URL, got '%s'", config.ServerURL)
	}

	if config.Model != "medium" {
		t.Errorf("Expected Model 'medium', got '%s'", config.Model)
	}

	if config.Hotkey != "cmd+shift+v" {
		t.Errorf("Expected Hotkey 'cmd+shift+v', got '%s'", config.Hotkey)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestApplyEnv_EmptyValuesIgnored(t *testing.T) {
	t.Setenv("SPEAKTOME_SERVER_URL", "")

	config := DefaultConfig()
	config.ApplyEnv()

	if config.ServerURL != DefaultConfig().ServerURL {
		t.Errorf("Expected empty env var to be ignored, got '%s'", config.ServerURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:      "http server URL",
			mutate:    func(c *Config) { c.ServerURL = "http://localhost:8000" },
			expectErr: true,
		},
		{
			name:   "wss server URL",
			mutate: func(c *Config) { c.ServerURL = "wss://stt.example.com/ws/transcribe" },
		},
		{
			name:      "unknown model",
			mutate:    func(c *Config) { c.Model = "turbo" },
			expectErr: true,
		},
		{
			name:      "empty language",
			mutate:    func(c *Config) { c.Language = "" },
			expectErr: true,
		},
		{
			name:      "unparseable hotkey",
			mutate:    func(c *Config) { c.Hotkey = "ctrl+banana" },
			expectErr: true,
		},
		{
			name:      "hotkey without modifier",
			mutate:    func(c *Config) { c.Hotkey = "w" },
			expectErr: true,
		},
		{
			name:      "sample rate too low",
			mutate:    func(c *Config) { c.Audio.SampleRate = 4000 },
			expectErr: true,
		},
		{
			name:      "too many channels",
			mutate:    func(c *Config) { c.Audio.Channels = 6 },
			expectErr: true,
		},
		{
			name:      "chunk size zero",
			mutate:    func(c *Config) { c.Audio.ChunkSize = 0 },
			expectErr: true,
		},
		{
			name:      "negative min duration",
			mutate:    func(c *Config) { c.Recording.MinDurationMs = -1 },
			expectErr: true,
		},
		{
			name:      "max duration over cap",
			mutate:    func(c *Config) { c.Recording.MaxDurationS = 600 },
			expectErr: true,
		},
		{
			name:      "unknown injection method",
			mutate:    func(c *Config) { c.Injection.Method = "telepathy" },
			expectErr: true,
		},
		{
			name:   "paste injection method",
			mutate: func(c *Config) { c.Injection.Method = "paste" },
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected config to validate, got %v", err)
			}
		})
	}
}

func TestCombo(t *testing.T) {
	config := DefaultConfig()

	combo, err := config.Combo()
	if err != nil {
		t.Fatalf("Combo failed: %v", err)
	}

	if combo.String() != "ctrl+shift+w" {
		t.Errorf("Expected canonical 'ctrl+shift+w', got '%s'", combo.String())
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Cannot get home directory: %v", err)
	}

	expanded, err := ExpandPath("~/logs")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}

	expected := filepath.Join(homeDir, "logs")
	if expanded != expected {
		t.Errorf("Expected %s, got %s", expected, expanded)
	}

	empty, err := ExpandPath("")
	if err != nil {
		t.Fatalf("ExpandPath(\"\") failed: %v", err)
	}
	if empty != "" {
		t.Errorf("Expected empty result for empty path, got %s", empty)
	}
}

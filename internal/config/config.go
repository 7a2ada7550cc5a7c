package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yok-tottii/speaktome-client/internal/hotkey"
)

// Config holds application configuration
type Config struct {
	ServerURL            string          `json:"server_url"`
	Model                string          `json:"model"`
	Language             string          `json:"language"` // "auto" for automatic detection, or specific language code
	Hotkey               string          `json:"hotkey"`   // e.g. "ctrl+shift+w"
	Audio                AudioConfig     `json:"audio"`
	Recording            RecordingConfig `json:"recording"`
	Injection            InjectionConfig `json:"injection"`
	NotificationsEnabled bool            `json:"notifications_enabled"`
	Logging              LoggingConfig   `json:"logging"`
}

// AudioConfig holds audio capture parameters
type AudioConfig struct {
	DeviceID   int `json:"device_id"` // -1 means use system default device
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
	ChunkSize  int `json:"chunk_size"` // samples per read
}

// RecordingConfig holds recording cycle limits
type RecordingConfig struct {
	MinDurationMs int `json:"min_duration_ms"` // below this the recording is discarded as too short
	MaxDurationS  int `json:"max_duration_s"`  // auto-stop cap, seconds
}

// InjectionConfig holds text injection behavior
type InjectionConfig struct {
	Method          string `json:"method"` // "type" or "paste"
	FocusDelayMs    int    `json:"focus_delay_ms"`
	AddSpaceAfter   bool   `json:"add_space_after"`
	CapitalizeFirst bool   `json:"capitalize_first"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `json:"level"` // debug, info, warn, error
	Dir   string `json:"dir"`   // empty means the default app-support logs dir
}

// validModels are the model identifiers the server accepts
var validModels = map[string]bool{
	"tiny":   true,
	"base":   true,
	"small":  true,
	"medium": true,
	"large":  true,
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ServerURL: "ws://localhost:8000/ws/transcribe",
		Model:     "base",
		Language:  "auto", // Automatic language detection
		Hotkey:    "ctrl+shift+w",
		Audio: AudioConfig{
			DeviceID:   -1,
			SampleRate: 16000,
			Channels:   1,
			ChunkSize:  1024,
		},
		Recording: RecordingConfig{
			MinDurationMs: 100,
			MaxDurationS:  300,
		},
		Injection: InjectionConfig{
			Method:          "type",
			FocusDelayMs:    100,
			AddSpaceAfter:   false,
			CapitalizeFirst: false,
		},
		NotificationsEnabled: true,
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
	}
}

// Load loads configuration from the specified path. A missing file yields
// the defaults. The user file is unmarshaled over a defaults-initialized
// struct, so a partially-specified file overrides only the fields it
// mentions; nested groups merge field-by-field, never wholesale.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from environment variables. Environment wins
// over the file; flags win over environment (applied by the caller).
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPEAKTOME_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("SPEAKTOME_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("SPEAKTOME_HOTKEY"); v != "" {
		c.Hotkey = v
	}
	if v := os.Getenv("SPEAKTOME_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Save saves configuration to the specified path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, "Library", "Application Support", "SpeakToMe", "config.json")
}

// Validate validates all configuration fields. Called once at startup;
// a failure here is fatal so bad settings never reach a recording cycle.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.ServerURL, "ws://") && !strings.HasPrefix(c.ServerURL, "wss://") {
		return fmt.Errorf("invalid server_url: %s (must start with ws:// or wss://)", c.ServerURL)
	}

	if !validModels[c.Model] {
		return fmt.Errorf("invalid model: %s (must be one of tiny, base, small, medium, large)", c.Model)
	}

	if c.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}

	if _, err := hotkey.ParseCombo(c.Hotkey); err != nil {
		return fmt.Errorf("invalid hotkey: %w", err)
	}

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 48000 {
		return fmt.Errorf("invalid sample_rate: %d (must be between 8000 and 48000)", c.Audio.SampleRate)
	}

	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("invalid channels: %d (must be 1 or 2)", c.Audio.Channels)
	}

	if c.Audio.ChunkSize < 64 || c.Audio.ChunkSize > 8192 {
		return fmt.Errorf("invalid chunk_size: %d (must be between 64 and 8192 samples)", c.Audio.ChunkSize)
	}

	if c.Recording.MinDurationMs < 0 || c.Recording.MinDurationMs > 5000 {
		return fmt.Errorf("invalid min_duration_ms: %d (must be between 0 and 5000)", c.Recording.MinDurationMs)
	}

	if c.Recording.MaxDurationS <= 0 || c.Recording.MaxDurationS > 300 {
		return fmt.Errorf("invalid max_duration_s: %d (must be between 1 and 300)", c.Recording.MaxDurationS)
	}

	if c.Injection.Method != "type" && c.Injection.Method != "paste" {
		return fmt.Errorf("invalid injection method: %s (must be 'type' or 'paste')", c.Injection.Method)
	}

	if c.Injection.FocusDelayMs < 0 || c.Injection.FocusDelayMs > 5000 {
		return fmt.Errorf("invalid focus_delay_ms: %d (must be between 0 and 5000)", c.Injection.FocusDelayMs)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.Logging.Level)
	}

	return nil
}

// Combo returns the parsed hotkey combination. Valid after Validate.
func (c *Config) Combo() (hotkey.Combo, error) {
	return hotkey.ParseCombo(c.Hotkey)
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

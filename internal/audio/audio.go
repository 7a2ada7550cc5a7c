package audio

import "fmt"

// Device represents an audio input device
type Device struct {
	ID        int
	Name      string
	IsDefault bool
}

// LatencyMode defines the latency priority
type LatencyMode int

const (
	// LowLatency prioritizes low latency (real-time)
	LowLatency LatencyMode = iota
	// HighStability prioritizes stability (larger buffer)
	HighStability
)

// Config holds audio configuration
type Config struct {
	DeviceID   int
	SampleRate int
	Channels   int
	ChunkSize  int // samples per ReadChunk call
	Latency    LatencyMode
}

// DefaultConfig returns the default audio configuration
// Sample rate: 16kHz (Whisper recommended)
// Channels: 1 (mono)
// Chunk size: 1024 samples
func DefaultConfig() Config {
	return Config{
		DeviceID:   -1, // -1 means use default device
		SampleRate: 16000,
		Channels:   1,
		ChunkSize:  1024,
		Latency:    HighStability,
	}
}

// DeviceError reports a capture device failure. It ends the current
// recording cycle; the next hotkey press opens the device fresh.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Driver is the interface for pull-based audio capture.
// This abstraction allows for future replacement of PortAudio with other
// libraries (e.g., miniaudio), and lets tests script the capture side.
type Driver interface {
	// ListDevices returns a list of available audio input devices
	ListDevices() ([]Device, error)

	// Initialize resolves the input device and stores stream parameters
	Initialize(config Config) error

	// Open opens and starts the input stream for one recording session
	Open() error

	// ReadChunk blocks until one chunk of PCM samples is available.
	// After CloseStream it returns io.EOF. Transient buffer overruns are
	// logged and the chunk is returned anyway.
	ReadChunk() ([]int16, error)

	// CloseStream stops and closes the stream; idempotent. Unblocks a
	// concurrent ReadChunk.
	CloseStream() error

	// Close releases all resources; idempotent
	Close() error
}

package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/yok-tottii/speaktome-client/internal/logger"
)

// PortAudioDriver implements Driver using PortAudio blocking reads
type PortAudioDriver struct {
	config      Config
	device      *portaudio.DeviceInfo
	stream      *portaudio.Stream
	buffer      []int16
	logger      *logger.Logger
	mu          sync.Mutex
	streamOpen  bool
	initialized bool
}

// NewPortAudioDriver creates a new PortAudio driver
func NewPortAudioDriver(log *logger.Logger) (*PortAudioDriver, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &DeviceError{Op: "initialize", Err: err}
	}

	return &PortAudioDriver{
		logger:      log,
		initialized: true,
	}, nil
}

// ListDevices returns a list of available audio input devices
func (d *PortAudioDriver) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, &DeviceError{Op: "list", Err: err}
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		// If we can't get the default device, continue without marking any as default
		defaultInput = nil
	}

	var result []Device
	for i, dev := range devices {
		// Only include devices with input channels
		if dev.MaxInputChannels > 0 {
			isDefault := false
			if defaultInput != nil && dev.Name == defaultInput.Name {
				isDefault = true
			}

			result = append(result, Device{
				ID:        i,
				Name:      dev.Name,
				IsDefault: isDefault,
			})
		}
	}

	return result, nil
}

// Initialize resolves the input device and stores stream parameters
func (d *PortAudioDriver) Initialize(config Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamOpen {
		return &DeviceError{Op: "initialize", Err: fmt.Errorf("cannot initialize while a stream is open")}
	}

	var device *portaudio.DeviceInfo
	var err error

	if config.DeviceID == -1 {
		// Use default input device
		device, err = portaudio.DefaultInputDevice()
		if err != nil {
			return &DeviceError{Op: "initialize", Err: fmt.Errorf("failed to get default input device: %w", err)}
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return &DeviceError{Op: "initialize", Err: fmt.Errorf("failed to list devices: %w", err)}
		}

		if config.DeviceID < 0 || config.DeviceID >= len(devices) {
			return &DeviceError{Op: "initialize", Err: fmt.Errorf("invalid device ID: %d", config.DeviceID)}
		}

		device = devices[config.DeviceID]
	}

	if device.MaxInputChannels <= 0 {
		return &DeviceError{Op: "initialize", Err: fmt.Errorf("selected device '%s' (ID: %d) has no input channels (output-only device)",
			device.Name, config.DeviceID)}
	}

	d.device = device
	d.config = config

	return nil
}

// Open opens and starts the input stream for one recording session
func (d *PortAudioDriver) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return &DeviceError{Op: "open", Err: fmt.Errorf("driver not initialized")}
	}

	if d.streamOpen {
		return &DeviceError{Op: "open", Err: fmt.Errorf("stream is already open")}
	}

	var latency time.Duration
	switch d.config.Latency {
	case LowLatency:
		latency = d.device.DefaultLowInputLatency
	default:
		latency = d.device.DefaultHighInputLatency
	}

	streamParams := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   d.device,
			Channels: d.config.Channels,
			Latency:  latency,
		},
		SampleRate:      float64(d.config.SampleRate),
		FramesPerBuffer: d.config.ChunkSize,
	}

	// Blocking-read stream: PortAudio fills d.buffer on each stream.Read()
	d.buffer = make([]int16, d.config.ChunkSize*d.config.Channels)

	stream, err := portaudio.OpenStream(streamParams, d.buffer)
	if err != nil {
		return &DeviceError{Op: "open", Err: err}
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return &DeviceError{Op: "open", Err: fmt.Errorf("failed to start stream: %w", err)}
	}

	d.stream = stream
	d.streamOpen = true

	return nil
}

// ReadChunk blocks until one chunk of PCM samples is available and returns a
// copy of it. Input overruns are lossy but never fatal; after CloseStream the
// result is io.EOF.
func (d *PortAudioDriver) ReadChunk() ([]int16, error) {
	d.mu.Lock()
	if !d.streamOpen {
		d.mu.Unlock()
		return nil, io.EOF
	}
	stream := d.stream
	d.mu.Unlock()

	// The blocking read happens outside the lock so CloseStream can
	// interrupt it from another goroutine.
	err := stream.Read()

	if err != nil {
		if errors.Is(err, portaudio.InputOverflowed) {
			if d.logger != nil {
				d.logger.Warn("Audio input overflowed, some samples were dropped")
			}
		} else {
			d.mu.Lock()
			open := d.streamOpen
			d.mu.Unlock()
			if !open {
				return nil, io.EOF
			}
			return nil, &DeviceError{Op: "read", Err: err}
		}
	}

	chunk := make([]int16, len(d.buffer))
	copy(chunk, d.buffer)
	return chunk, nil
}

// CloseStream stops and closes the stream. Idempotent; unblocks a pending
// ReadChunk, which then reports io.EOF.
func (d *PortAudioDriver) CloseStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.streamOpen {
		return nil
	}

	d.streamOpen = false

	// Abort discards pending buffers so a blocked Read returns promptly
	if err := d.stream.Abort(); err != nil {
		if d.logger != nil {
			d.logger.Warn("Failed to abort audio stream: %v", err)
		}
	}

	if err := d.stream.Close(); err != nil {
		d.stream = nil
		return &DeviceError{Op: "close", Err: err}
	}

	d.stream = nil
	return nil
}

// Close releases all resources. Idempotent.
func (d *PortAudioDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamOpen {
		d.streamOpen = false
		_ = d.stream.Abort()
		_ = d.stream.Close()
		d.stream = nil
	}

	if !d.initialized {
		return nil
	}
	d.initialized = false

	if err := portaudio.Terminate(); err != nil {
		return &DeviceError{Op: "terminate", Err: err}
	}

	return nil
}

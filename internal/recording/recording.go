// Package recording implements the state machine that ties hotkey events,
// audio capture, transcription and text injection into one sequential
// recording cycle. All state transitions happen on the reactor goroutine;
// foreign threads only submit tasks through the bridge.
package recording

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yok-tottii/speaktome-client/internal/audio"
	"github.com/yok-tottii/speaktome-client/internal/logger"
	"github.com/yok-tottii/speaktome-client/internal/reactor"
	"github.com/yok-tottii/speaktome-client/internal/transcriber"
)

// State represents the current orchestrator state
type State int32

const (
	// Idle means no recording cycle is in flight
	Idle State = iota
	// Capturing means the pump is reading audio chunks
	Capturing
	// Finalizing means the pump is being joined and the WAV assembled
	Finalizing
	// Transcribing means the request is on the wire
	Transcribing
	// Injecting means the transcribed text is being typed
	Injecting
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Capturing:
		return "Capturing"
	case Finalizing:
		return "Finalizing"
	case Transcribing:
		return "Transcribing"
	case Injecting:
		return "Injecting"
	default:
		return "Unknown"
	}
}

// Outcome classifies how a recording cycle ended
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeTooShort        Outcome = "too_short"
	OutcomeDeviceError     Outcome = "device_error"
	OutcomeConnectionError Outcome = "connection_error"
	OutcomeProtocolError   Outcome = "protocol_error"
	OutcomeInjectionError  Outcome = "injection_error"
	OutcomeAborted         Outcome = "aborted"
)

// Result describes one finished recording cycle. Exactly one Result is
// reported per cycle, whatever the outcome.
type Result struct {
	SessionID   uuid.UUID
	Outcome     Outcome
	Text        string
	Err         error
	Duration    time.Duration
	Bytes       int
	AutoStopped bool
}

// Session holds the accumulated chunks and metadata for one in-progress
// recording. The pump goroutine owns the chunk buffer exclusively while
// capturing; ownership returns to the reactor once done is closed.
type Session struct {
	ID      uuid.UUID
	Started time.Time

	chunks  [][]int16
	readErr error
	done    chan struct{}
}

func newSession() *Session {
	return &Session{
		ID:      uuid.New(),
		Started: time.Now(),
		done:    make(chan struct{}),
	}
}

// CaptureDevice is the capture side of one recording session
type CaptureDevice interface {
	Open() error
	ReadChunk() ([]int16, error)
	CloseStream() error
}

// Transcriber is the remote transcription service client
type Transcriber interface {
	Connected() bool
	Connect() error
	Transcribe(wavData []byte) (string, error)
}

// Injector delivers text to the focused window
type Injector interface {
	Inject(text string) error
}

// Reporter receives exactly one Result per finished cycle
type Reporter interface {
	Report(result Result)
}

// Bridge hands tasks to the reactor goroutine from any thread
type Bridge interface {
	Submit(task reactor.Task) bool
}

// Config holds orchestrator configuration
type Config struct {
	SampleRate  int
	Channels    int
	MinDuration time.Duration // recordings below this are discarded as too short
	MaxDuration time.Duration // auto-stop cap
}

// DefaultConfig returns the default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		Channels:    1,
		MinDuration: 100 * time.Millisecond,
		MaxDuration: 300 * time.Second,
	}
}

// Orchestrator drives the recording state machine. Only the reactor
// goroutine mutates its state; the hotkey listener and the pump interact
// with it exclusively through the bridge.
type Orchestrator struct {
	config   Config
	device   CaptureDevice
	client   Transcriber
	injector Injector
	reporter Reporter
	bridge   Bridge
	logger   *logger.Logger

	// state and seq are atomics only so foreign threads can read them;
	// writes happen on the reactor goroutine alone
	state atomic.Int32
	seq   atomic.Uint64

	onStateChange func(State)

	// reactor-owned, no locking needed
	session   *Session
	stopTimer *time.Timer
}

// New creates a new orchestrator
func New(config Config, device CaptureDevice, client Transcriber, injector Injector,
	reporter Reporter, bridge Bridge, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		config:   config,
		device:   device,
		client:   client,
		injector: injector,
		reporter: reporter,
		bridge:   bridge,
		logger:   log,
	}
}

// SetStateChangeListener registers a callback invoked on the reactor
// goroutine after every state transition. Set before the first hotkey event.
func (o *Orchestrator) SetStateChangeListener(fn func(State)) {
	o.onStateChange = fn
}

// State returns the current orchestrator state. Safe from any thread.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// HandleHotkey is called from the hotkey listener thread on every combo
// trigger. It only enqueues; the decision happens on the reactor. The
// sequence number captured here marks events that arrive mid-pipeline as
// stale so they are ignored instead of queueing another cycle.
func (o *Orchestrator) HandleHotkey() {
	seq := o.seq.Load()

	submitted := o.bridge.Submit(func() {
		o.handleToggle(seq)
	})
	if !submitted && o.logger != nil {
		o.logger.Warn("Hotkey event dropped, reactor unavailable")
	}
}

// handleToggle runs on the reactor goroutine
func (o *Orchestrator) handleToggle(seq uint64) {
	if seq != o.seq.Load() {
		if o.logger != nil {
			o.logger.Debug("Ignoring stale hotkey event (cycle already advanced)")
		}
		return
	}

	switch o.State() {
	case Idle:
		o.startCapture()
	case Capturing:
		o.finishCycle(false)
	default:
		// Unreachable while the seq guard holds; kept as a backstop
		if o.logger != nil {
			o.logger.Debug("Hotkey ignored in state %s", o.State())
		}
	}
}

// startCapture opens the device and spawns the pump. On failure the
// orchestrator stays Idle; the next press retries fresh.
func (o *Orchestrator) startCapture() {
	if err := o.device.Open(); err != nil {
		if o.logger != nil {
			o.logger.Error("Failed to open capture device: %v", err)
		}
		o.report(Result{Outcome: OutcomeDeviceError, Err: err})
		return
	}

	session := newSession()
	o.session = session
	o.transition(Capturing)

	go o.pump(session)

	// The auto-stop fires through the bridge like any other trigger and
	// carries the same staleness guard.
	autoSeq := o.seq.Load()
	o.stopTimer = time.AfterFunc(o.config.MaxDuration, func() {
		o.bridge.Submit(func() {
			if autoSeq != o.seq.Load() {
				return
			}
			if o.logger != nil {
				o.logger.Warn("Recording hit the %v cap, stopping automatically", o.config.MaxDuration)
			}
			o.finishCycle(true)
		})
	})

	if o.logger != nil {
		o.logger.Info("Recording started (session %s)", session.ID)
	}
}

// pump runs on its own goroutine and performs the only blocking reads of
// the capture device. It owns session.chunks until done is closed.
func (o *Orchestrator) pump(session *Session) {
	defer close(session.done)

	for {
		chunk, err := o.device.ReadChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Stream closed by the reactor; clean stop
				return
			}

			session.readErr = err

			// Fatal read failure: ask the reactor to terminate the
			// cycle instead of leaving it stuck in Capturing.
			seq := o.seq.Load()
			o.bridge.Submit(func() {
				if seq == o.seq.Load() {
					o.finishCycle(false)
				}
			})
			return
		}

		session.chunks = append(session.chunks, chunk)
	}
}

// finishCycle drives one cycle from Capturing all the way back to Idle on
// the reactor goroutine, so a cycle is sequential end-to-end.
func (o *Orchestrator) finishCycle(autoStopped bool) {
	if o.State() != Capturing {
		return
	}

	session := o.session
	o.session = nil

	if o.stopTimer != nil {
		o.stopTimer.Stop()
		o.stopTimer = nil
	}

	o.transition(Finalizing)

	// Closing the stream unblocks the pump's pending read; joining it
	// transfers chunk buffer ownership back to this goroutine.
	if err := o.device.CloseStream(); err != nil && o.logger != nil {
		o.logger.Warn("Failed to close capture stream: %v", err)
	}
	<-session.done

	result := o.process(session, autoStopped)

	o.transition(Idle)
	o.report(result)
}

// process assembles, transcribes and injects one joined session
func (o *Orchestrator) process(session *Session, autoStopped bool) Result {
	result := Result{
		SessionID:   session.ID,
		AutoStopped: autoStopped,
	}

	if session.readErr != nil {
		result.Outcome = OutcomeDeviceError
		result.Err = session.readErr
		return result
	}

	var samples []int16
	for _, chunk := range session.chunks {
		samples = append(samples, chunk...)
	}

	result.Duration = audio.Duration(len(samples), o.config.SampleRate, o.config.Channels)

	if result.Duration < o.config.MinDuration {
		if o.logger != nil {
			o.logger.Info("Recording too short (%v < %v), discarding", result.Duration, o.config.MinDuration)
		}
		result.Outcome = OutcomeTooShort
		return result
	}

	wavData, err := audio.EncodeWAV(samples, o.config.SampleRate, o.config.Channels)
	if err != nil {
		result.Outcome = OutcomeDeviceError
		result.Err = fmt.Errorf("failed to assemble audio container: %w", err)
		return result
	}
	result.Bytes = len(wavData)

	o.transition(Transcribing)

	// A previous transport failure leaves the client demoted; this
	// user-triggered cycle gets one explicit reconnect attempt.
	if !o.client.Connected() {
		if o.logger != nil {
			o.logger.Info("Transcription server disconnected, attempting reconnect")
		}
		if err := o.client.Connect(); err != nil {
			result.Outcome = OutcomeConnectionError
			result.Err = err
			return result
		}
	}

	text, err := o.client.Transcribe(wavData)
	if err != nil {
		result.Outcome = classifyTranscribeError(err)
		result.Err = err
		return result
	}

	if text == "" {
		if o.logger != nil {
			o.logger.Info("Transcription came back empty, nothing to inject")
		}
		result.Outcome = OutcomeSuccess
		return result
	}
	result.Text = text

	o.transition(Injecting)

	if err := o.injector.Inject(text); err != nil {
		result.Outcome = OutcomeInjectionError
		result.Err = err
		return result
	}

	result.Outcome = OutcomeSuccess
	return result
}

// classifyTranscribeError maps client failures to cycle outcomes. Protocol
// errors are request-scoped; everything else means the connection is gone.
func classifyTranscribeError(err error) Outcome {
	var protoErr *transcriber.ProtocolError
	if errors.As(err, &protoErr) {
		return OutcomeProtocolError
	}
	return OutcomeConnectionError
}

// Shutdown aborts any in-flight capture and waits for the reactor to
// acknowledge within the grace period. An expired grace means a cycle is
// stuck mid-pipeline; the caller unblocks it by force-disconnecting the
// transcription client.
func (o *Orchestrator) Shutdown(grace time.Duration) error {
	done := make(chan struct{})

	submitted := o.bridge.Submit(func() {
		o.abort()
		close(done)
	})
	if !submitted {
		// Reactor already torn down; nothing left to abort
		return nil
	}

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return fmt.Errorf("orchestrator shutdown timed out after %v", grace)
	}
}

// abort terminates an active capture without transcribing it
func (o *Orchestrator) abort() {
	if o.State() != Capturing {
		return
	}

	session := o.session
	o.session = nil

	if o.stopTimer != nil {
		o.stopTimer.Stop()
		o.stopTimer = nil
	}

	if err := o.device.CloseStream(); err != nil && o.logger != nil {
		o.logger.Warn("Failed to close capture stream: %v", err)
	}
	<-session.done

	o.transition(Idle)
	o.report(Result{
		SessionID: session.ID,
		Outcome:   OutcomeAborted,
		Duration:  time.Since(session.Started),
	})
}

// transition moves to a new state and bumps the cycle sequence so queued
// stale events can recognize themselves. Reactor goroutine only.
func (o *Orchestrator) transition(s State) {
	o.state.Store(int32(s))
	o.seq.Add(1)

	if o.onStateChange != nil {
		o.onStateChange(s)
	}
}

func (o *Orchestrator) report(result Result) {
	if o.reporter != nil {
		o.reporter.Report(result)
	}
}

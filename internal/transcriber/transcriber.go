// Package transcriber implements the WebSocket client for the SpeakToMe
// transcription service: one persistent connection, one request in flight,
// exactly one correlated reply per request.
package transcriber

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yok-tottii/speaktome-client/internal/logger"
)

// State represents the connection state
type State int

const (
	// Disconnected means no usable connection exists
	Disconnected State = iota
	// Connected means the persistent connection is established
	Connected
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// ErrNotConnected is returned by Transcribe when no connection exists
var ErrNotConnected = fmt.Errorf("not connected to transcription server")

// ConnectError reports a failed connection attempt. The client stays
// Disconnected; reconnecting is the caller's decision.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TransportError reports a connection-level failure during a request. The
// connection is demoted to Disconnected and must be re-established before
// the next request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or unexpected server reply. It fails the
// request only; the connection remains usable.
type ProtocolError struct {
	Reason        string
	ServerMessage string
}

func (e *ProtocolError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("protocol error: %s: %s", e.Reason, e.ServerMessage)
	}
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// Config holds transcription client configuration
type Config struct {
	ServerURL      string
	Model          string
	Language       string
	ConnectTimeout time.Duration
	ReceiveTimeout time.Duration // absolute deadline for one transcribe round-trip
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:      "ws://localhost:8000/ws/transcribe",
		Model:          "base",
		Language:       "auto",
		ConnectTimeout: 10 * time.Second,
		ReceiveTimeout: 30 * time.Second,
	}
}

// request is the single message sent per transcription cycle
type request struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	Format   string `json:"format"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

// response covers every reply shape the server produces
type response struct {
	Type           string  `json:"type"`
	Text           string  `json:"text"`
	Message        string  `json:"message"`
	Language       string  `json:"language"`
	ProcessingTime float64 `json:"processing_time"`
}

// Client owns the persistent connection to the transcription server. All
// request/response activity happens on the reactor goroutine; State is safe
// to read from anywhere.
type Client struct {
	config Config
	logger *logger.Logger
	mu     sync.Mutex // serializes Connect/Transcribe/Disconnect
	state  State

	// The conn pointer has its own lock so ForceClose can reach it while a
	// round-trip holds c.mu.
	connMu sync.Mutex
	conn   *websocket.Conn
}

// New creates a new transcription client. It does not connect.
func New(config Config, log *logger.Logger) *Client {
	return &Client{
		config: config,
		logger: log,
		state:  Disconnected,
	}
}

// Connect establishes the persistent connection. On failure the client
// stays Disconnected and the attempt is not retried internally.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Connected {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.ConnectTimeout,
	}

	conn, _, err := dialer.Dial(c.config.ServerURL, nil)
	if err != nil {
		return &ConnectError{URL: c.config.ServerURL, Err: err}
	}

	c.setConn(conn)
	c.state = Connected

	if c.logger != nil {
		c.logger.Info("Connected to transcription server: %s", c.config.ServerURL)
	}

	return nil
}

// Transcribe sends one audio payload and blocks until the correlated reply
// arrives. The payload must be a complete WAV container. Transport failures
// demote the connection to Disconnected; protocol failures leave it usable.
func (c *Client) Transcribe(wavData []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn := c.currentConn()
	if conn == nil {
		// A force-close can detach the conn while state still says Connected
		c.state = Disconnected
		return "", ErrNotConnected
	}
	if c.state != Connected {
		return "", ErrNotConnected
	}

	req := request{
		Type:     "audio",
		Data:     base64.StdEncoding.EncodeToString(wavData),
		Format:   "wav",
		Model:    c.config.Model,
		Language: c.config.Language,
	}

	deadline := time.Now().Add(c.config.ReceiveTimeout)

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return "", c.demote("send", err)
	}
	if err := conn.WriteJSON(req); err != nil {
		return "", c.demote("send", err)
	}

	if c.logger != nil {
		c.logger.Debug("Sent %d bytes of audio for transcription", len(wavData))
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", c.demote("receive", err)
	}

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			return "", c.demote("receive", err)
		}

		if messageType != websocket.TextMessage {
			return "", &ProtocolError{Reason: "non-text reply message"}
		}

		var resp response
		if err := json.Unmarshal(payload, &resp); err != nil {
			return "", &ProtocolError{Reason: fmt.Sprintf("unparseable reply: %v", err)}
		}

		switch resp.Type {
		case "connection":
			// Informational greeting sent after accept; not a reply
			if c.logger != nil {
				c.logger.Debug("Server connection notice: %s", resp.Message)
			}
			continue
		case "transcription":
			if c.logger != nil {
				c.logger.Debug("Transcription received (language=%s, processing=%.2fs)",
					resp.Language, resp.ProcessingTime)
			}
			return strings.TrimSpace(resp.Text), nil
		case "error":
			return "", &ProtocolError{Reason: "server reported an error", ServerMessage: resp.Message}
		default:
			return "", &ProtocolError{Reason: fmt.Sprintf("unexpected reply type %q", resp.Type)}
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) currentConn() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

// takeConn detaches the conn pointer so exactly one caller closes it
func (c *Client) takeConn() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	conn := c.conn
	c.conn = nil
	return conn
}

// demote invalidates the connection after a transport-level failure.
// Caller must hold c.mu.
func (c *Client) demote(op string, err error) error {
	if conn := c.takeConn(); conn != nil {
		_ = conn.Close()
	}
	c.state = Disconnected

	if c.logger != nil {
		c.logger.Warn("Connection to transcription server lost during %s: %v", op, err)
	}

	return &TransportError{Op: op, Err: err}
}

// Disconnect closes the connection gracefully. Idempotent.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Connected {
		return nil
	}

	var err error
	if conn := c.takeConn(); conn != nil {
		// Best effort close handshake; the connection is going away either way
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = conn.Close()
	}
	c.state = Disconnected

	if c.logger != nil {
		c.logger.Info("Disconnected from transcription server")
	}

	if err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// ForceClose tears the connection down without waiting for an in-flight
// round-trip: closing the conn makes a pending ReadMessage return an error,
// which the blocked Transcribe maps to a TransportError and a Disconnected
// state. Deliberately does not take c.mu.
func (c *Client) ForceClose() error {
	conn := c.takeConn()
	if conn == nil {
		return nil
	}

	if c.logger != nil {
		c.logger.Warn("Force-closing connection to transcription server")
	}
	return conn.Close()
}

// State returns the current connection state. Safe from any thread.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the persistent connection is established
func (c *Client) Connected() bool {
	return c.State() == Connected
}

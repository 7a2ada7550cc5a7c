package notification

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	// TypeInfo is an informational notification
	TypeInfo NotificationType = "info"
	// TypeWarning is a warning notification
	TypeWarning NotificationType = "warning"
	// TypeError is an error notification
	TypeError NotificationType = "error"
	// TypeSuccess is a success notification
	TypeSuccess NotificationType = "success"
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
}

// NotificationManager handles sending notifications to the user
type NotificationManager struct {
	appName string
	enabled bool
}

// NewNotificationManager creates a new notification manager. A disabled
// manager turns every Send into a no-op, so callers never need to check.
func NewNotificationManager(appName string, enabled bool) *NotificationManager {
	return &NotificationManager{
		appName: appName,
		enabled: enabled,
	}
}

// Send sends a notification through the platform notification center
func (nm *NotificationManager) Send(notification *Notification) error {
	if notification == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	if !nm.enabled {
		return nil
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf(
			`display notification "%s" with title "%s"`,
			escapeAppleScript(notification.Message),
			escapeAppleScript(notification.Title),
		)
		cmd = exec.Command("osascript", "-e", script)
	} else {
		cmd = exec.Command("notify-send", notification.Title, notification.Message)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

// SendInfo sends an informational notification
func (nm *NotificationManager) SendInfo(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeInfo,
	})
}

// SendWarning sends a warning notification
func (nm *NotificationManager) SendWarning(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeWarning,
	})
}

// SendError sends an error notification
func (nm *NotificationManager) SendError(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeError,
	})
}

// SendSuccess sends a success notification
func (nm *NotificationManager) SendSuccess(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeSuccess,
	})
}

// RecordingStarted sends a notification that recording has started
func (nm *NotificationManager) RecordingStarted() error {
	return nm.SendInfo(nm.appName, "Recording started")
}

// RecordingStopped sends a notification that recording has stopped
func (nm *NotificationManager) RecordingStopped() error {
	return nm.SendInfo(nm.appName, "Recording stopped, transcribing...")
}

// RecordingTooShort sends a notification that the recording was discarded
func (nm *NotificationManager) RecordingTooShort() error {
	return nm.SendInfo(nm.appName, "Recording too short, nothing sent")
}

// TranscriptionInjected sends a notification that text was delivered
func (nm *NotificationManager) TranscriptionInjected(text string) error {
	return nm.SendSuccess(nm.appName, fmt.Sprintf("Inserted: %s", truncate(text, 60)))
}

// DeviceFailed sends a notification about a capture device failure
func (nm *NotificationManager) DeviceFailed(reason string) error {
	return nm.SendError(nm.appName, withReason("Audio device error", reason))
}

// ConnectionFailed sends a notification about a server connection failure
func (nm *NotificationManager) ConnectionFailed(reason string) error {
	return nm.SendError(nm.appName, withReason("Cannot reach transcription server", reason))
}

// TranscriptionFailed sends a notification about a failed transcription
func (nm *NotificationManager) TranscriptionFailed(reason string) error {
	return nm.SendError(nm.appName, withReason("Transcription failed", reason))
}

// InjectionFailed reports a failed injection along with the text that was
// transcribed, so the user can still read it in the notification.
func (nm *NotificationManager) InjectionFailed(text string) error {
	return nm.SendError(nm.appName,
		fmt.Sprintf("Could not insert text. Transcription was: %s", truncate(text, 120)))
}

// RecordingTimeExceeded sends a notification that the auto-stop cap was hit
func (nm *NotificationManager) RecordingTimeExceeded() error {
	return nm.SendWarning(nm.appName, "Recording reached the maximum duration and was stopped")
}

// RecordingAborted sends a notification that a cycle was cut off by shutdown
func (nm *NotificationManager) RecordingAborted() error {
	return nm.SendWarning(nm.appName, "Recording aborted")
}

// escapeAppleScript quotes text for interpolation into an AppleScript string
// literal. Transcribed text can contain both quote and backslash characters.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func withReason(message, reason string) string {
	if reason == "" {
		return message
	}
	return message + ": " + reason
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

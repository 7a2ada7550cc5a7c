// Package inject types transcribed text into whatever window currently has
// input focus.
package inject

import (
	"fmt"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/go-vgo/robotgo"

	"github.com/yok-tottii/speaktome-client/internal/logger"
)

// Error reports a failed injection. The text itself is not persisted; the
// caller surfaces it to the operator instead.
type Error struct {
	Method string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("text injection via %s failed: %v", e.Method, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds injector configuration
type Config struct {
	Method          string // "type" synthesizes keystrokes, "paste" goes through the clipboard
	FocusDelay      time.Duration
	AddSpaceAfter   bool
	CapitalizeFirst bool
}

// DefaultConfig returns the default injector configuration
func DefaultConfig() Config {
	return Config{
		Method:          "type",
		FocusDelay:      100 * time.Millisecond,
		AddSpaceAfter:   false,
		CapitalizeFirst: false,
	}
}

// Injector performs the text injection side effect
type Injector struct {
	config Config
	logger *logger.Logger
}

// New creates a new injector
func New(config Config, log *logger.Logger) *Injector {
	return &Injector{
		config: config,
		logger: log,
	}
}

// Inject applies post-processing and delivers the text to the focused
// window. Empty text (after trimming) is rejected.
func (i *Injector) Inject(text string) error {
	if strings.TrimSpace(text) == "" {
		return &Error{Method: i.config.Method, Err: fmt.Errorf("nothing to inject")}
	}

	text = Format(text, i.config.CapitalizeFirst, i.config.AddSpaceAfter)

	// Give the user's target window a moment to settle before keystrokes
	if i.config.FocusDelay > 0 {
		time.Sleep(i.config.FocusDelay)
	}

	switch i.config.Method {
	case "paste":
		return i.paste(text)
	default:
		return i.typeText(text)
	}
}

// typeText synthesizes keystrokes for the text
func (i *Injector) typeText(text string) error {
	robotgo.TypeStr(text)

	if i.logger != nil {
		i.logger.Debug("Typed %d characters into the focused window", len([]rune(text)))
	}

	return nil
}

// paste writes the text to the clipboard, sends the platform paste
// shortcut, then restores the previous clipboard content.
func (i *Injector) paste(text string) error {
	saved, err := robotgo.ReadAll()
	if err != nil {
		// An unreadable clipboard (e.g. image content) is not worth
		// failing the cycle over; just skip the restore.
		if i.logger != nil {
			i.logger.Warn("Could not save clipboard before paste: %v", err)
		}
		saved = ""
	}

	if err := robotgo.WriteAll(text); err != nil {
		return &Error{Method: "paste", Err: fmt.Errorf("failed to write clipboard: %w", err)}
	}

	// Let the clipboard settle before the paste keystroke
	time.Sleep(10 * time.Millisecond)

	if err := robotgo.KeyTap("v", pasteModifier()); err != nil {
		return &Error{Method: "paste", Err: fmt.Errorf("failed to send paste shortcut: %w", err)}
	}

	if saved != "" {
		time.Sleep(100 * time.Millisecond)
		if err := robotgo.WriteAll(saved); err != nil && i.logger != nil {
			i.logger.Warn("Could not restore clipboard after paste: %v", err)
		}
	}

	if i.logger != nil {
		i.logger.Debug("Pasted %d characters into the focused window", len([]rune(text)))
	}

	return nil
}

// pasteModifier returns the platform paste shortcut modifier
func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

// Format applies the configured text post-processing: capitalizing the
// first rune and appending a trailing space.
func Format(text string, capitalizeFirst, addSpaceAfter bool) string {
	if capitalizeFirst && text != "" {
		runes := []rune(text)
		runes[0] = unicode.ToUpper(runes[0])
		text = string(runes)
	}

	if addSpaceAfter {
		text += " "
	}

	return text
}

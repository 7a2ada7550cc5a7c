package hotkey

import (
	"testing"

	"golang.design/x/hotkey"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}

	combo := m.Combo()
	if len(combo.Modifiers) != 2 {
		t.Errorf("Expected 2 modifiers, got %d", len(combo.Modifiers))
	}

	if combo.Key != hotkey.KeyW {
		t.Errorf("Expected KeyW, got %v", combo.Key)
	}

	if m.IsRunning() {
		t.Error("Expected manager to not be running before Register")
	}
}

func TestParseCombo(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantMods  []hotkey.Modifier
		wantKey   hotkey.Key
		expectErr bool
	}{
		{
			name:     "default combo",
			input:    "ctrl+shift+w",
			wantMods: []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift},
			wantKey:  hotkey.KeyW,
		},
		{
			name:     "case insensitive",
			input:    "Ctrl+Shift+W",
			wantMods: []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift},
			wantKey:  hotkey.KeyW,
		},
		{
			name:     "whitespace around tokens",
			input:    " ctrl + shift + w ",
			wantMods: []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift},
			wantKey:  hotkey.KeyW,
		},
		{
			name:     "alt is an alias for option",
			input:    "alt+space",
			wantMods: []hotkey.Modifier{hotkey.ModOption},
			wantKey:  hotkey.KeySpace,
		},
		{
			name:     "super is an alias for cmd",
			input:    "super+enter",
			wantMods: []hotkey.Modifier{hotkey.ModCmd},
			wantKey:  hotkey.KeyReturn,
		},
		{
			name:     "escape alias",
			input:    "ctrl+escape",
			wantMods: []hotkey.Modifier{hotkey.ModCtrl},
			wantKey:  hotkey.KeyEscape,
		},
		{
			name:     "function key",
			input:    "cmd+f5",
			wantMods: []hotkey.Modifier{hotkey.ModCmd},
			wantKey:  hotkey.KeyF5,
		},
		{
			name:     "digit key",
			input:    "ctrl+alt+3",
			wantMods: []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModOption},
			wantKey:  hotkey.Key3,
		},
		{
			name:      "empty string",
			input:     "",
			expectErr: true,
		},
		{
			name:      "unknown token",
			input:     "ctrl+shift+volumeup",
			expectErr: true,
		},
		{
			name:      "no modifier",
			input:     "w",
			expectErr: true,
		},
		{
			name:      "modifiers only",
			input:     "ctrl+shift",
			expectErr: true,
		},
		{
			name:      "two keys",
			input:     "ctrl+w+a",
			expectErr: true,
		},
		{
			name:      "dangling separator",
			input:     "ctrl+",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			combo, err := ParseCombo(tt.input)

			if tt.expectErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got combo %v", tt.input, combo)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseCombo(%q) failed: %v", tt.input, err)
			}

			if len(combo.Modifiers) != len(tt.wantMods) {
				t.Fatalf("Expected %d modifiers, got %d", len(tt.wantMods), len(combo.Modifiers))
			}
			for i, mod := range tt.wantMods {
				if combo.Modifiers[i] != mod {
					t.Errorf("Modifier %d: expected %v, got %v", i, mod, combo.Modifiers[i])
				}
			}

			if combo.Key != tt.wantKey {
				t.Errorf("Expected key %v, got %v", tt.wantKey, combo.Key)
			}
		})
	}
}

func TestParseCombo_DuplicateModifierCollapses(t *testing.T) {
	combo, err := ParseCombo("ctrl+ctrl+w")
	if err != nil {
		t.Fatalf("ParseCombo failed: %v", err)
	}

	if len(combo.Modifiers) != 1 {
		t.Errorf("Expected duplicate modifier to collapse to 1, got %d", len(combo.Modifiers))
	}
}

func TestCombo_String(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ctrl+shift+w", "ctrl+shift+w"},
		{"Ctrl+Shift+W", "ctrl+shift+w"},
		{"option+space", "alt+space"},
		{"super+return", "cmd+enter"},
		{"ctrl+escape", "ctrl+esc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			combo, err := ParseCombo(tt.input)
			if err != nil {
				t.Fatalf("ParseCombo(%q) failed: %v", tt.input, err)
			}

			if combo.String() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, combo.String())
			}
		})
	}
}

func TestCheckConflicts(t *testing.T) {
	tests := []struct {
		name           string
		combo          string
		expectConflict bool
	}{
		{
			name:           "Spotlight conflict (Cmd+Space)",
			combo:          "cmd+space",
			expectConflict: true,
		},
		{
			name:           "No conflict (Ctrl+Shift+W)",
			combo:          "ctrl+shift+w",
			expectConflict: false,
		},
		{
			name:           "Force Quit conflict (Cmd+Option+Esc)",
			combo:          "cmd+option+esc",
			expectConflict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			combo, err := ParseCombo(tt.combo)
			if err != nil {
				t.Fatalf("ParseCombo(%q) failed: %v", tt.combo, err)
			}

			conflicts := CheckConflicts(combo)
			hasConflict := len(conflicts) > 0

			if hasConflict != tt.expectConflict {
				t.Errorf("Expected conflict=%v, got %v (conflicts: %v)",
					tt.expectConflict, hasConflict, conflicts)
			}
		})
	}
}

func TestFormatCombo(t *testing.T) {
	combo, err := ParseCombo("ctrl+shift+w")
	if err != nil {
		t.Fatalf("ParseCombo failed: %v", err)
	}

	formatted := FormatCombo(combo)
	if formatted != "⌃⇧W" {
		t.Errorf("Expected ⌃⇧W, got %s", formatted)
	}
}

func TestClose_Idempotent(t *testing.T) {
	m := New()

	// Close before Register is a no-op
	if err := m.Close(); err != nil {
		t.Errorf("Expected nil from Close on non-running manager, got %v", err)
	}

	if err := m.Close(); err != nil {
		t.Errorf("Expected second Close to also return nil, got %v", err)
	}
}

// Note: Register/Close with a real OS hook requires accessibility permissions
// and a display; those paths are exercised manually.

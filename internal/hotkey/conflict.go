package hotkey

import (
	"strings"

	"golang.design/x/hotkey"
)

// ConflictInfo represents information about a known shortcut conflict
type ConflictInfo struct {
	Name        string
	Description string
	Combo       Combo
}

// knownConflicts contains a list of known macOS shortcuts that might conflict
var knownConflicts = []ConflictInfo{
	{
		Name:        "Spotlight",
		Description: "macOS Spotlight search",
		Combo: Combo{
			Modifiers: []hotkey.Modifier{hotkey.ModCmd},
			Key:       hotkey.KeySpace,
		},
	},
	{
		Name:        "Alfred",
		Description: "Alfred launcher (common default)",
		Combo: Combo{
			Modifiers: []hotkey.Modifier{hotkey.ModCmd},
			Key:       hotkey.KeySpace,
		},
	},
	{
		Name:        "Raycast",
		Description: "Raycast launcher (common default)",
		Combo: Combo{
			Modifiers: []hotkey.Modifier{hotkey.ModCmd},
			Key:       hotkey.KeySpace,
		},
	},
	{
		Name:        "IME Switch",
		Description: "Input method editor switch",
		Combo: Combo{
			Modifiers: []hotkey.Modifier{hotkey.ModCmd},
			Key:       hotkey.KeySpace,
		},
	},
	{
		Name:        "Force Quit",
		Description: "macOS Force Quit",
		Combo: Combo{
			Modifiers: []hotkey.Modifier{hotkey.ModCmd, hotkey.ModOption},
			Key:       hotkey.KeyEscape,
		},
	},
}

// CheckConflicts checks if the given combo collides with known system
// shortcuts. Matches are reported, not rejected; the caller decides whether
// a warning is enough.
func CheckConflicts(combo Combo) []ConflictInfo {
	var conflicts []ConflictInfo

	for _, known := range knownConflicts {
		if comboMatches(combo, known.Combo) {
			conflicts = append(conflicts, known)
		}
	}

	return conflicts
}

// comboMatches checks if two hotkey combinations are identical
func comboMatches(a, b Combo) bool {
	if a.Key != b.Key {
		return false
	}

	if len(a.Modifiers) != len(b.Modifiers) {
		return false
	}

	modSet := make(map[hotkey.Modifier]bool)
	for _, mod := range b.Modifiers {
		modSet[mod] = true
	}

	for _, mod := range a.Modifiers {
		if !modSet[mod] {
			return false
		}
	}

	return true
}

// FormatCombo returns a display string using macOS modifier symbols,
// e.g. "⌃⇧W".
func FormatCombo(combo Combo) string {
	result := ""

	for _, mod := range combo.Modifiers {
		switch mod {
		case hotkey.ModCtrl:
			result += "⌃"
		case hotkey.ModShift:
			result += "⇧"
		case hotkey.ModOption:
			result += "⌥"
		case hotkey.ModCmd:
			result += "⌘"
		}
	}

	result += keyDisplayName(combo.Key)
	return result
}

// keyDisplayName converts a hotkey.Key to a display string
func keyDisplayName(key hotkey.Key) string {
	keyMap := map[hotkey.Key]string{
		hotkey.KeySpace:  "Space",
		hotkey.KeyEscape: "Esc",
		hotkey.KeyReturn: "Return",
		hotkey.KeyTab:    "Tab",
	}

	if name, ok := keyMap[key]; ok {
		return name
	}

	return strings.ToUpper(keyName(key))
}

package hotkey

import (
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

// Combo is a parsed hotkey combination: one or more modifiers plus exactly
// one key.
type Combo struct {
	Modifiers []hotkey.Modifier
	Key       hotkey.Key
}

// modifierTokens maps config tokens to platform modifiers. The token set is
// closed: anything not in this table is rejected at parse time.
var modifierTokens = map[string]hotkey.Modifier{
	"ctrl":   hotkey.ModCtrl,
	"shift":  hotkey.ModShift,
	"alt":    hotkey.ModOption,
	"option": hotkey.ModOption,
	"cmd":    hotkey.ModCmd,
	"super":  hotkey.ModCmd,
}

// keyTokens maps config tokens to platform key codes. Closed set, same as
// modifierTokens.
var keyTokens = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,

	"space":  hotkey.KeySpace,
	"enter":  hotkey.KeyReturn,
	"return": hotkey.KeyReturn,
	"tab":    hotkey.KeyTab,
	"esc":    hotkey.KeyEscape,
	"escape": hotkey.KeyEscape,

	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3,
	"f4": hotkey.KeyF4, "f5": hotkey.KeyF5, "f6": hotkey.KeyF6,
	"f7": hotkey.KeyF7, "f8": hotkey.KeyF8, "f9": hotkey.KeyF9,
	"f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

// ParseCombo parses a combo string like "ctrl+shift+w" into a Combo.
// Tokens are case-insensitive and separated by '+'. The combo must contain at
// least one modifier and exactly one non-modifier key; unrecognized tokens
// are an error, so bad combos fail at config load, not at first use.
func ParseCombo(s string) (Combo, error) {
	var combo Combo

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return combo, fmt.Errorf("hotkey combo is empty")
	}

	seen := make(map[hotkey.Modifier]bool)
	haveKey := false

	for _, token := range strings.Split(trimmed, "+") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			return Combo{}, fmt.Errorf("hotkey combo %q has an empty token", s)
		}

		if mod, ok := modifierTokens[token]; ok {
			if !seen[mod] {
				seen[mod] = true
				combo.Modifiers = append(combo.Modifiers, mod)
			}
			continue
		}

		if key, ok := keyTokens[token]; ok {
			if haveKey {
				return Combo{}, fmt.Errorf("hotkey combo %q has more than one key", s)
			}
			combo.Key = key
			haveKey = true
			continue
		}

		return Combo{}, fmt.Errorf("hotkey combo %q has unknown token %q", s, token)
	}

	if len(combo.Modifiers) == 0 {
		return Combo{}, fmt.Errorf("hotkey combo %q needs at least one modifier", s)
	}
	if !haveKey {
		return Combo{}, fmt.Errorf("hotkey combo %q needs exactly one key", s)
	}

	return combo, nil
}

// String returns the canonical lowercase form, e.g. "ctrl+shift+w".
func (c Combo) String() string {
	var parts []string
	for _, mod := range c.Modifiers {
		parts = append(parts, modifierName(mod))
	}
	parts = append(parts, keyName(c.Key))
	return strings.Join(parts, "+")
}

func modifierName(mod hotkey.Modifier) string {
	switch mod {
	case hotkey.ModCtrl:
		return "ctrl"
	case hotkey.ModShift:
		return "shift"
	case hotkey.ModOption:
		return "alt"
	case hotkey.ModCmd:
		return "cmd"
	default:
		return "unknown"
	}
}

func keyName(key hotkey.Key) string {
	for token, k := range keyTokens {
		if k != key {
			continue
		}
		// Prefer the canonical alias for keys with several tokens
		switch token {
		case "return", "escape":
			continue
		}
		return token
	}
	return "unknown"
}

package models

import (
	"fmt"
	"strings"
)

// Preset names a canonical countdown length.
type Preset string

const (
	PresetFocus      Preset = "Focus"
	PresetShortBreak Preset = "ShortBreak"
	PresetLongBreak  Preset = "LongBreak"
)

// Canonical preset durations in seconds.
const (
	FocusSeconds      = 25 * 60
	ShortBreakSeconds = 5 * 60
	LongBreakSeconds  = 15 * 60
)

// DefaultPreset is the preset a freshly created room starts on.
const DefaultPreset = PresetFocus

// Seconds returns the canonical duration of the preset, or 0 for an unknown preset.
func (p Preset) Seconds() int {
	switch p {
	case PresetFocus:
		return FocusSeconds
	case PresetShortBreak:
		return ShortBreakSeconds
	case PresetLongBreak:
		return LongBreakSeconds
	default:
		return 0
	}
}

// Valid reports whether p is one of the known presets.
func (p Preset) Valid() bool {
	return p.Seconds() > 0
}

// Presence returns the member status implied by the preset.
func (p Preset) Presence() PresenceStatus {
	if p == PresetFocus {
		return PresenceFocusing
	}
	return PresenceBreak
}

// ParsePreset accepts the canonical names and the spaced labels older web clients send
// ("Short Break", "Long Break").
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "focus":
		return PresetFocus, nil
	case "shortbreak":
		return PresetShortBreak, nil
	case "longbreak":
		return PresetLongBreak, nil
	default:
		return "", fmt.Errorf("unknown preset %q", s)
	}
}

package wiggle

import (
	"fmt"
	"strings"
)

// Mode selects how the three sections are merged into one frame.
type Mode int

const (
	// ModeAlphaBlend layers all sections, the lower ones at half alpha,
	// under a fully opaque top section.
	ModeAlphaBlend Mode = iota
	// ModeOffsetPlacement paints only the top section, opaque, anchored
	// right, center or left depending on which section is on top.
	ModeOffsetPlacement
)

func (m Mode) String() string {
	switch m {
	case ModeAlphaBlend:
		return "alpha_blend"
	case ModeOffsetPlacement:
		return "offset_placement"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alpha_blend", "alpha-blend", "blend", "rgba":
		return ModeAlphaBlend, nil
	case "offset_placement", "offset-placement", "offset", "no_rgba":
		return ModeOffsetPlacement, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

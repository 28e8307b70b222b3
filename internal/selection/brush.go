package selection

import "fmt"

// Mode selects whether a brush stamp adds to or removes from the selection.
type Mode int

const (
	// ModeAdd selects every pixel under the brush.
	ModeAdd Mode = iota
	// ModeErase deselects every pixel under the brush.
	ModeErase
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeErase:
		return "erase"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "add" or "erase" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "add":
		return ModeAdd, nil
	case "erase":
		return ModeErase, nil
	default:
		return 0, fmt.Errorf("unknown brush mode %q", s)
	}
}

// Stamp applies one filled disk of the given radius centred on (cx, cy).
// Every offset with dx²+dy² <= radius² is set (ModeAdd) or cleared (ModeErase).
// Offsets outside the mask are clipped; a radius <= 0 does nothing.
func Stamp(mask *Mask, cx, cy, radius int, mode Mode) {
	if radius <= 0 {
		return
	}

	value := mode == ModeAdd
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				mask.Set(cx+dx, cy+dy, value)
			}
		}
	}
}

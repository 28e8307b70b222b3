package colorspace

import (
	"errors"
	"math"
	"testing"
)

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestRGBToHSLKnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   RGB
		want HSL
	}{
		{"black", RGB{0, 0, 0}, HSL{0, 0, 0}},
		{"white", RGB{255, 255, 255}, HSL{0, 0, 1}},
		{"red", RGB{255, 0, 0}, HSL{0, 1, 0.5}},
		{"green", RGB{0, 255, 0}, HSL{1.0 / 3, 1, 0.5}},
		{"blue", RGB{0, 0, 255}, HSL{2.0 / 3, 1, 0.5}},
		{"magenta wraps past six", RGB{255, 0, 128}, HSL{1 - 128.0/255/6, 1, 0.5}},
		{"gray", RGB{128, 128, 128}, HSL{0, 0, 128.0 / 255}},
	}

	const eps = 1e-9
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToHSL(tt.in)
			if math.Abs(got.H-tt.want.H) > eps || math.Abs(got.S-tt.want.S) > eps || math.Abs(got.L-tt.want.L) > eps {
				t.Errorf("RGBToHSL(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHSLToRGBKnownValues(t *testing.T) {
	tests := []struct {
		in   HSL
		want RGB
	}{
		{HSL{0, 0, 0.5}, RGB{128, 128, 128}},
		{HSL{0, 1, 0.5}, RGB{255, 0, 0}},
		{HSL{1.0 / 3, 1, 0.5}, RGB{0, 255, 0}},
		{HSL{2.0 / 3, 1, 0.25}, RGB{0, 0, 128}},
		{HSL{0.5, 1, 1}, RGB{255, 255, 255}},
	}

	for _, tt := range tests {
		if got := HSLToRGB(tt.in); got != tt.want {
			t.Errorf("HSLToRGB(%+v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHSLToRGBClampsOutOfRange(t *testing.T) {
	got := HSLToRGB(HSL{H: 0, S: 0, L: 1.5})
	if got != (RGB{255, 255, 255}) {
		t.Errorf("expected clamp to white, got %v", got)
	}
	got = HSLToRGB(HSL{H: 0, S: 0, L: -0.2})
	if got != (RGB{}) {
		t.Errorf("expected clamp to black, got %v", got)
	}
}

func TestRoundTripAllColors(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive round trip skipped in short mode")
	}

	for r := 0; r < 256; r++ {
		for g := 0; g < 256; g++ {
			for b := 0; b < 256; b++ {
				in := RGB{uint8(r), uint8(g), uint8(b)}
				out := HSLToRGB(RGBToHSL(in))
				if absDiff(in.R, out.R) > 1 || absDiff(in.G, out.G) > 1 || absDiff(in.B, out.B) > 1 {
					t.Fatalf("round trip %v -> %v exceeds tolerance", in, out)
				}
			}
		}
	}
}

func TestRoundTripSampled(t *testing.T) {
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 15 {
			for b := 0; b < 256; b += 5 {
				in := RGB{uint8(r), uint8(g), uint8(b)}
				out := HSLToRGB(RGBToHSL(in))
				if absDiff(in.R, out.R) > 1 || absDiff(in.G, out.G) > 1 || absDiff(in.B, out.B) > 1 {
					t.Fatalf("round trip %v -> %v exceeds tolerance", in, out)
				}
			}
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#667EEA", RGB{0x66, 0x7E, 0xEA}, false},
		{"#667eea", RGB{0x66, 0x7E, 0xEA}, false},
		{"#000000", RGB{}, false},
		{"#FFFFFF", RGB{255, 255, 255}, false},
		{"667EEA", RGB{}, true},
		{"#667EE", RGB{}, true},
		{"#667EEAA", RGB{}, true},
		{"#66GEEA", RGB{}, true},
		{"#fff", RGB{}, true},
		{"", RGB{}, true},
	}

	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidColorFormat) {
				t.Errorf("ParseHex(%q) expected ErrInvalidColorFormat, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHex(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHexFormatsUpperCase(t *testing.T) {
	if got := (RGB{0x66, 0x7e, 0xea}).Hex(); got != "#667EEA" {
		t.Errorf("Hex() = %q", got)
	}
}

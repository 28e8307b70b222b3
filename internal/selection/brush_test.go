package selection

import "testing"

func TestStampShape(t *testing.T) {
	m, err := NewMask(12, 12)
	if err != nil {
		t.Fatalf("NewMask: %v", err)
	}

	Stamp(m, 5, 5, 2, ModeAdd)

	want := 0
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			dx, dy := x-5, y-5
			inDisk := dx*dx+dy*dy <= 4
			if inDisk {
				want++
			}
			if got := m.IsSet(x, y); got != inDisk {
				t.Errorf("(%d,%d): got %v, want %v", x, y, got, inDisk)
			}
		}
	}
	if want != 13 {
		t.Fatalf("radius-2 disk should cover 13 cells, computed %d", want)
	}

	Stamp(m, 5, 5, 2, ModeErase)
	if !m.Empty() {
		t.Fatalf("erase stamp should clear the same cells, %d left", m.Count())
	}
}

func TestStampClipsAtEdges(t *testing.T) {
	m, err := NewMask(5, 5)
	if err != nil {
		t.Fatalf("NewMask: %v", err)
	}

	Stamp(m, 0, 0, 3, ModeAdd)

	// Only the quarter disk inside the grid is painted, nothing wraps to the far side.
	if m.IsSet(4, 0) || m.IsSet(0, 4) || m.IsSet(4, 4) {
		t.Error("stamp wrapped around the grid edge")
	}
	if !m.IsSet(3, 0) || !m.IsSet(0, 3) || !m.IsSet(2, 2) {
		t.Error("expected quarter disk to be painted")
	}
	if got := m.Count(); got != 11 {
		t.Errorf("expected 11 cells in the clipped quarter disk, got %d", got)
	}
}

func TestStampNonPositiveRadius(t *testing.T) {
	m, err := NewMask(5, 5)
	if err != nil {
		t.Fatalf("NewMask: %v", err)
	}

	Stamp(m, 2, 2, 0, ModeAdd)
	Stamp(m, 2, 2, -4, ModeAdd)
	if !m.Empty() {
		t.Fatal("non-positive radius must be a no-op")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"add", ModeAdd, false},
		{"erase", ModeErase, false},
		{"paint", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if got.String() != tt.in {
			t.Errorf("Mode.String() = %q, want %q", got.String(), tt.in)
		}
	}
}

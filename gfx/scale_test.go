package gfx

import "testing"

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{10, 10, 1},
		{11, 10, 2},
		{0, 10, 0},
		{20, 10, 2},
	}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Errorf("ceilDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

// Scenario: a 20x10 image with cell 10x10, put with only cols=4 given
// should infer rows=2 and use contain scaling.
func TestInferDimensionsPutDefaults(t *testing.T) {
	p := &Placement{Cols: 4, ScaleMode: ScaleContain}
	rows, cols := inferDimensions(p, 20, 10, 10, 10)
	if rows != 2 {
		t.Fatalf("rows = %d, want 2", rows)
	}
	if cols != 4 {
		t.Fatalf("cols = %d, want 4", cols)
	}
}

func TestInferDimensionsBothUnset(t *testing.T) {
	p := &Placement{}
	rows, cols := inferDimensions(p, 25, 15, 10, 10)
	if cols != 3 { // ceil(25/10)
		t.Fatalf("cols = %d, want 3", cols)
	}
	if rows != 2 { // ceil(15/10)
		t.Fatalf("rows = %d, want 2", rows)
	}
}

func TestPremultiplyOpaqueUnchanged(t *testing.T) {
	buf := []byte{10, 20, 30, 0xFF}
	premultiply(buf)
	if buf[0] != 10 || buf[1] != 20 || buf[2] != 30 || buf[3] != 0xFF {
		t.Fatalf("opaque pixel should be unchanged, got %v", buf)
	}
}

func TestPremultiplyTransparentZeroed(t *testing.T) {
	buf := []byte{200, 150, 100, 0}
	premultiply(buf)
	if buf[0] != 0 || buf[1] != 0 || buf[2] != 0 {
		t.Fatalf("fully transparent pixel should zero color channels, got %v", buf)
	}
}

func TestPremultiplyHalfAlpha(t *testing.T) {
	buf := []byte{200, 200, 200, 128}
	premultiply(buf)
	// floor(200 * 128/255) = 100
	if buf[0] != 100 {
		t.Fatalf("half-alpha premultiply: got %d, want ~100", buf[0])
	}
}

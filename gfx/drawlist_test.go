package gfx

import "testing"

// Scenario: two vertically-adjacent rects for the same placement coalesce
// into a single flushed rect spanning both.
func TestDrawRowsCoalescesAdjacentRects(t *testing.T) {
	var d drawRows
	d.init()

	flushed := 0
	flush := func(r ImageRect) { flushed++ }

	r1 := ImageRect{ImageID: 1, PlacementID: 1, ImgStartRow: 0, ImgEndRow: 1, ScreenYPix: 0, CW: 8, CH: 16}
	r2 := ImageRect{ImageID: 1, PlacementID: 1, ImgStartRow: 1, ImgEndRow: 2, ScreenYPix: 16, CW: 8, CH: 16}

	d.appendRect(r1, flush)
	d.appendRect(r2, flush)

	var merged *ImageRect
	for i := range d.pending {
		if d.pending[i].live {
			merged = &d.pending[i]
			break
		}
	}
	if merged == nil {
		t.Fatalf("expected one live pending rect")
	}
	if merged.ImgStartRow != 0 || merged.ImgEndRow != 2 {
		t.Fatalf("expected merged rect rows [0,2), got [%d,%d)", merged.ImgStartRow, merged.ImgEndRow)
	}
	if flushed != 0 {
		t.Fatalf("coalescing shouldn't flush anything, got %d flushes", flushed)
	}
}

func TestDrawRowsFlushesWhenRingFull(t *testing.T) {
	var d drawRows
	d.init()

	flushed := 0
	flush := func(r ImageRect) { flushed++ }

	for i := 0; i < maxPendingRects; i++ {
		d.appendRect(ImageRect{ImageID: uint32(i + 1), ScreenYPix: i}, flush)
	}
	if flushed != 0 {
		t.Fatalf("ring should not be full yet, got %d flushes", flushed)
	}

	d.appendRect(ImageRect{ImageID: 999, ScreenYPix: 1000}, flush)
	if flushed != 1 {
		t.Fatalf("expected exactly one forced flush when the ring is full, got %d", flushed)
	}
}

func TestMarkDirtyAnimations(t *testing.T) {
	var d drawRows
	d.init()
	d.mergeRowDeadline(3, 100)
	d.mergeRowDeadline(5, 50)

	dirty := d.markDirtyAnimations(60)
	if len(dirty) != 1 || dirty[0] != 5 {
		t.Fatalf("expected only row 5 dirty at t=60, got %v", dirty)
	}
	if _, ok := d.nextRedraw[5]; ok {
		t.Fatalf("row 5's deadline should be cleared after reporting dirty")
	}
	if _, ok := d.nextRedraw[3]; !ok {
		t.Fatalf("row 3's deadline should remain")
	}
}

package gfx

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

// DebugLevel is the tri-state debug verbosity: off, log-only, or
// log-plus-overlay.
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	DebugLog
	DebugOverlay
)

// OverlayBox is one bounding-box annotation the caller should draw for a
// rendered placement rectangle.
type OverlayBox struct {
	Col0, Col1 int
	Row0, Row1 int
	Label      string
	LabelWidth int // on-screen column width of Label, for centering/clipping
}

// overlayLabel formats the "i[/p] [c0:c1)x[r0:r1)" label for a placement
// rectangle.
func overlayLabel(imageID, placementID uint32, col0, col1, row0, row1 int) string {
	if placementID != 0 {
		return fmt.Sprintf("%d/%d [%d:%d)x[%d:%d)", imageID, placementID, col0, col1, row0, row1)
	}
	return fmt.Sprintf("%d [%d:%d)x[%d:%d)", imageID, col0, col1, row0, row1)
}

// labelWidth measures a label's on-screen column width, accounting for
// wide/multi-byte runes in ids or embedded text.
func labelWidth(label string) int {
	return runewidth.StringWidth(label)
}

// StatusLine is the one-line render summary shown under DebugOverlay.
type StatusLine struct {
	RenderMS    float64
	RAMBytes    int64
	DiskBytes   int64
	ImageCount  int
	CellW, CellH int
	RedrawDelayMS int64
}

func (sl StatusLine) String() string {
	return fmt.Sprintf("render=%.2fms ram=%dB disk=%dB images=%d cell=%dx%d redraw=%dms",
		sl.RenderMS, sl.RAMBytes, sl.DiskBytes, sl.ImageCount, sl.CellW, sl.CellH, sl.RedrawDelayMS)
}

// Status returns the current store-wide status line. Callers on the
// DebugOverlay path render it and the per-rect OverlayBox labels alongside
// the normal composited output; RenderMS is supplied by the caller, who
// alone knows how long its own draw pass took.
func (s *Store) Status(renderMS float64, cw, ch int, redrawDelay int64) StatusLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatusLine{
		RenderMS:      renderMS,
		RAMBytes:      s.ramSize,
		DiskBytes:     s.diskSize,
		ImageCount:    len(s.images),
		CellW:         cw,
		CellH:         ch,
		RedrawDelayMS: redrawDelay,
	}
}

// OverlayFor builds the bounding-box annotation for a flushed ImageRect;
// col/row bounds are in image cell units, matching the "[c0:c1)x[r0:r1)"
// convention used by the label itself.
func OverlayFor(r ImageRect) OverlayBox {
	label := overlayLabel(r.ImageID, r.PlacementID, r.ImgStartCol, r.ImgEndCol, r.ImgStartRow, r.ImgEndRow)
	return OverlayBox{
		Col0: r.ImgStartCol, Col1: r.ImgEndCol,
		Row0: r.ImgStartRow, Row1: r.ImgEndRow,
		Label: label, LabelWidth: labelWidth(label),
	}
}

package gfx

// ScaleMode controls how a placement's source rect is fit to its
// destination cell box.
type ScaleMode int

const (
	ScaleFill ScaleMode = iota
	ScaleContain
	ScaleNone
	ScaleNoneOrContain
)

// Placement is a request to render a (possibly cropped, scaled) view of an
// image at a terminal location. Pixmaps are built lazily, one per frame
// index, and invalidated in bulk whenever the cell metrics they were built
// for change.
type Placement struct {
	ID uint32

	Virtual          bool // anchors Unicode placeholders only; never rendered directly
	ScaleMode        ScaleMode
	Rows, Cols       int // 0 = unset, inferred on first scale
	SrcX, SrcY       int
	SrcW, SrcH       int // 0 = "to edge of image"
	DoNotMoveCursor  bool

	AtimeMS int64

	// Pixmaps holds one slot per frame index (1-based; index 0 unused).
	Pixmaps []Pixmap
	// PixmapSizes mirrors Pixmaps with each handle's RAM footprint in bytes,
	// for aggregate accounting.
	PixmapSizes []int64

	ScaledCW, ScaledCH int // cell metrics the current pixmaps were built for

	// ProtectedFrame is the 1-based frame index pinned against eviction for
	// the duration of the render in flight; 0 means nothing is pinned.
	ProtectedFrame int
}

func (p *Placement) pixmapAt(frame int) Pixmap {
	if frame <= 0 || frame >= len(p.Pixmaps) {
		return nil
	}
	return p.Pixmaps[frame]
}

func (p *Placement) setPixmap(frame int, pm Pixmap, size int64) {
	p.ensureSlots(frame)
	p.Pixmaps[frame] = pm
	p.PixmapSizes[frame] = size
}

func (p *Placement) ensureSlots(frame int) {
	for len(p.Pixmaps) <= frame {
		p.Pixmaps = append(p.Pixmaps, nil)
		p.PixmapSizes = append(p.PixmapSizes, 0)
	}
}

// ramSize sums the RAM footprint of every live pixmap the placement owns.
func (p *Placement) ramSize() int64 {
	var total int64
	for _, s := range p.PixmapSizes {
		total += s
	}
	return total
}

// clearPixmaps clears every pixmap slot, returning the bytes released.
// Callers must free the handles through the Surface themselves; this only
// updates bookkeeping.
func (p *Placement) clearPixmaps() int64 {
	n := p.ramSize()
	p.Pixmaps = nil
	p.PixmapSizes = nil
	return n
}

package gfx

import "image"

// Pixmap is an opaque handle to a compositor-side ARGB32 surface. The core
// never inspects it; it is whatever the Surface implementation returns from
// AllocPixmap.
type Pixmap interface{}

// Surface is the external pixel compositor the core hands scaled bitmaps to.
// It is the module's only rendering dependency, matching the spec's framing
// of "the pixel compositor" as an external collaborator (§1, §6).
type Surface interface {
	// AllocPixmap reserves a w x h, 32bpp destination and returns a handle
	// to it.
	AllocPixmap(w, h int) (Pixmap, error)
	// UploadPixmap copies a premultiplied ARGB32 buffer into pm. buf must be
	// exactly w*h*4 bytes, row-major, matching the size AllocPixmap was
	// called with.
	UploadPixmap(pm Pixmap, buf []byte, w, h int) error
	// Composite blits srcRect of pm onto the destination surface at
	// (dstX, dstY). If reverse is set, the source-only blend inverts the
	// premultiplied pixels (bitwise NOT, spec §9) instead of compositing
	// normally.
	Composite(pm Pixmap, srcRect image.Rectangle, dstX, dstY int, reverse bool) error
	// FreePixmap releases a pixmap allocated by AllocPixmap. Implementations
	// must tolerate being called with a handle that was already freed.
	FreePixmap(pm Pixmap) error
}

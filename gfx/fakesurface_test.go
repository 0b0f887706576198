package gfx

import "image"

// fakeSurface is a minimal in-memory Surface for tests: it just records
// uploaded buffers and never actually composites anywhere.
type fakeSurface struct {
	next    uintptr
	buffers map[uintptr][]byte
	freed   []uintptr
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{buffers: make(map[uintptr][]byte)}
}

func (f *fakeSurface) AllocPixmap(w, h int) (Pixmap, error) {
	f.next++
	return f.next, nil
}

func (f *fakeSurface) UploadPixmap(pm Pixmap, buf []byte, w, h int) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.buffers[pm.(uintptr)] = cp
	return nil
}

func (f *fakeSurface) Composite(pm Pixmap, srcRect image.Rectangle, dstX, dstY int, reverse bool) error {
	return nil
}

func (f *fakeSurface) FreePixmap(pm Pixmap) error {
	f.freed = append(f.freed, pm.(uintptr))
	delete(f.buffers, pm.(uintptr))
	return nil
}

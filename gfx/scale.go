package gfx

import (
	"image"
	"image/draw"

	ximgdraw "golang.org/x/image/draw"
)

// ceilDiv is integer ceiling division for positive operands.
func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// inferDimensions fills in p.Rows/p.Cols from the source rect and cell
// metrics when either or both are unset, per the reference's ceil-div and
// aspect-ratio rules.
func inferDimensions(p *Placement, srcW, srcH, cw, ch int) (rows, cols int) {
	rows, cols = p.Rows, p.Cols
	if rows == 0 && cols == 0 {
		cols = ceilDiv(srcW, cw)
		rows = ceilDiv(srcH, ch)
		return
	}
	if cols == 0 && p.ScaleMode == ScaleContain {
		cols = ceilDiv(srcW*rows*ch, srcH*cw)
		if cols == 0 {
			cols = 1
		}
		return
	}
	if rows == 0 && p.ScaleMode == ScaleContain {
		rows = ceilDiv(srcH*cols*cw, srcW*ch)
		if rows == 0 {
			rows = 1
		}
		return
	}
	if cols == 0 {
		cols = ceilDiv(srcW, cw)
	}
	if rows == 0 {
		rows = ceilDiv(srcH, ch)
	}
	return
}

// buildPixmap scales frame's decoded bitmap for placement p at cell metrics
// (cw,ch), premultiplies alpha, and hands the buffer to the surface,
// returning the new pixmap handle and its RAM footprint.
func (s *Store) buildPixmap(img *Image, p *Placement, f *Frame, cw, ch int) (Pixmap, int64, error) {
	obj, err := s.decodeFrame(img, f)
	if err != nil {
		return nil, 0, err
	}

	srcX, srcY, srcW, srcH := clampSourceRect(p, obj.Width, obj.Height)

	rows, cols := inferDimensions(p, srcW, srcH, cw, ch)
	p.Rows, p.Cols = rows, cols

	destW, destH := cols*cw, rows*ch
	destBytes := int64(destW) * int64(destH) * 4
	if s.limits != nil && destBytes > s.limits.MaxSingleImageRAMSize {
		return nil, 0, ErrOversizedBuffer
	}

	buf := make([]byte, destW*destH*4)
	dst := &image.RGBA{Pix: buf, Stride: destW * 4, Rect: image.Rect(0, 0, destW, destH)}
	src := &image.RGBA{Pix: obj.Pix, Stride: obj.Width * 4, Rect: image.Rect(0, 0, obj.Width, obj.Height)}
	srcRect := image.Rect(srcX, srcY, srcX+srcW, srcY+srcH)

	blitScaled(dst, src, srcRect, p.ScaleMode)
	premultiply(buf)

	pm, err := s.surface.AllocPixmap(destW, destH)
	if err != nil {
		return nil, 0, err
	}
	if err := s.surface.UploadPixmap(pm, buf, destW, destH); err != nil {
		return nil, 0, err
	}
	return pm, destBytes, nil
}

func clampSourceRect(p *Placement, imgW, imgH int) (x, y, w, h int) {
	x, y = p.SrcX, p.SrcY
	w, h = p.SrcW, p.SrcH
	if w <= 0 {
		w = imgW - x
	}
	if h <= 0 {
		h = imgH - y
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+w > imgW {
		w = imgW - x
	}
	if y+h > imgH {
		h = imgH - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return
}

// blitScaled paints src's srcRect into dst according to mode.
func blitScaled(dst *image.RGBA, src *image.RGBA, srcRect image.Rectangle, mode ScaleMode) {
	destW, destH := dst.Rect.Dx(), dst.Rect.Dy()
	switch mode {
	case ScaleFill:
		ximgdraw.BiLinear.Scale(dst, dst.Bounds(), src, srcRect, ximgdraw.Src, nil)
	case ScaleNone:
		blitNone(dst, src, srcRect)
	case ScaleNoneOrContain:
		if srcRect.Dx() <= destW && srcRect.Dy() <= destH {
			blitNone(dst, src, srcRect)
		} else {
			blitContain(dst, src, srcRect)
		}
	default: // ScaleContain
		blitContain(dst, src, srcRect)
	}
}

func blitNone(dst *image.RGBA, src *image.RGBA, srcRect image.Rectangle) {
	draw.Draw(dst, image.Rect(0, 0, srcRect.Dx(), srcRect.Dy()), src, srcRect.Min, draw.Src)
}

// blitContain letterboxes srcRect into dst, preserving aspect ratio; the
// axis to shrink is chosen by comparing the two possible scaled-dimension
// cross products, matching the reference's dimension-preservation rule.
func blitContain(dst *image.RGBA, src *image.RGBA, srcRect image.Rectangle) {
	destW, destH := dst.Rect.Dx(), dst.Rect.Dy()
	srcW, srcH := srcRect.Dx(), srcRect.Dy()
	if srcW == 0 || srcH == 0 {
		return
	}
	var scaledW, scaledH int
	if destW*srcH <= destH*srcW {
		scaledW = destW
		scaledH = ceilDiv(srcH*destW, srcW)
	} else {
		scaledH = destH
		scaledW = ceilDiv(srcW*destH, srcH)
	}
	if scaledW > destW {
		scaledW = destW
	}
	if scaledH > destH {
		scaledH = destH
	}
	offX := (destW - scaledW) / 2
	offY := (destH - scaledH) / 2
	target := image.Rect(offX, offY, offX+scaledW, offY+scaledH)
	ximgdraw.BiLinear.Scale(dst, target, src, srcRect, ximgdraw.Src, nil)
}

// premultiply converts straight-alpha ARGB-ordered (stored B,G,R,A) pixels
// in place to premultiplied form.
func premultiply(buf []byte) {
	for i := 0; i < len(buf); i += 4 {
		a := buf[i+3]
		if a == 0xFF || a == 0 {
			if a == 0 {
				buf[i], buf[i+1], buf[i+2] = 0, 0, 0
			}
			continue
		}
		af := float64(a) / 255.0
		buf[i+0] = byte(float64(buf[i+0]) * af)
		buf[i+1] = byte(float64(buf[i+1]) * af)
		buf[i+2] = byte(float64(buf[i+2]) * af)
	}
}

// invertPremultiplied performs the bitwise-NOT approximation of a
// colorimetric inverse used for reverse-video rects; kept for visual parity
// with the reference rather than exactness.
func invertPremultiplied(buf []byte) {
	for i := range buf {
		buf[i] = ^buf[i]
	}
}

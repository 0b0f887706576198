package gfx

import "fmt"

// decodeFrame produces f's decoded object, composing over a background
// color or background frame when one is set, and recursing into
// background-frame dependencies with a cycle guard. Frame 1's dimensions
// seed the image's nominal PixWidth/PixHeight the first time they're zero.
func (s *Store) decodeFrame(img *Image, f *Frame) (*DecodedObject, error) {
	if f.Decoded != nil {
		return f.Decoded, nil
	}
	if f.Status < StatusUploadingSuccess {
		return nil, ErrFrameNotUploaded
	}
	if f.inProgress {
		return nil, ErrRecursiveBackground
	}
	f.inProgress = true
	f.Status = StatusRAMLoadingInProgress
	defer func() { f.inProgress = false }()

	path := s.framePath(img.ID, f.Index)
	own, err := loadFrameBitmap(path, f)
	if err != nil {
		f.Status = StatusRAMLoadingError
		return nil, fmt.Errorf("gfx: decode frame %d of image %d: %w", f.Index, img.ID, err)
	}

	sameAsCanvas := (img.canvasWidth() == 0 || own.Width == img.canvasWidth()) &&
		(img.canvasHeight() == 0 || own.Height == img.canvasHeight())

	var obj *DecodedObject
	if !f.hasBackground() && sameAsCanvas && f.OffsetX == 0 && f.OffsetY == 0 {
		obj = own
	} else {
		obj, err = s.composeOverBackground(img, f, own)
		if err != nil {
			f.Status = StatusRAMLoadingError
			return nil, err
		}
	}

	f.Decoded = obj
	f.Status = StatusRAMLoadingSuccess
	s.ramSize += obj.size()

	if f.Index == 1 && img.PixWidth == 0 && img.PixHeight == 0 {
		img.PixWidth, img.PixHeight = obj.Width, obj.Height
	}
	return obj, nil
}

// canvasWidth/canvasHeight are the image's nominal dimensions if already
// known, else 0 (meaning "whatever frame 1 turns out to be").
func (img *Image) canvasWidth() int  { return img.PixWidth }
func (img *Image) canvasHeight() int { return img.PixHeight }

// composeOverBackground allocates an image-sized canvas, paints the
// background (solid color or a recursively decoded background frame), then
// blends or copies own at (f.OffsetX, f.OffsetY).
func (s *Store) composeOverBackground(img *Image, f *Frame, own *DecodedObject) (*DecodedObject, error) {
	cw, ch := img.canvasWidth(), img.canvasHeight()
	if cw == 0 || ch == 0 {
		cw, ch = own.Width, own.Height
	}
	if f.OffsetX+own.Width > cw {
		cw = f.OffsetX + own.Width
	}
	if f.OffsetY+own.Height > ch {
		ch = f.OffsetY + own.Height
	}

	canvas := &DecodedObject{Width: cw, Height: ch, Pix: make([]byte, cw*ch*4)}

	if f.BackgroundFrameIndex != 0 {
		bg := img.frameAt(f.BackgroundFrameIndex)
		if bg == nil {
			return nil, errNoEnt(fmt.Sprintf("background frame %d not found", f.BackgroundFrameIndex))
		}
		bgObj, err := s.decodeFrame(img, bg)
		if err != nil {
			return nil, fmt.Errorf("gfx: decode background frame %d: %w", f.BackgroundFrameIndex, err)
		}
		blitCopy(canvas, bgObj, 0, 0)
	} else if f.BackgroundColor != 0 {
		paintSolid(canvas, f.BackgroundColor)
	}

	// the composition step always blends, whether or not a background is
	// set; f.Blend (X=) is recorded on the frame but not consulted here or
	// anywhere else.
	blendOver(canvas, own, f.OffsetX, f.OffsetY)
	return canvas, nil
}

func paintSolid(dst *DecodedObject, rgba uint32) {
	r := byte(rgba >> 24)
	g := byte(rgba >> 16)
	b := byte(rgba >> 8)
	a := byte(rgba)
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i+0] = b
		dst.Pix[i+1] = g
		dst.Pix[i+2] = r
		dst.Pix[i+3] = a
	}
}

func blitCopy(dst, src *DecodedObject, x, y int) {
	for row := 0; row < src.Height; row++ {
		dy := y + row
		if dy < 0 || dy >= dst.Height {
			continue
		}
		srcOff := row * src.Width * 4
		dstOff := (dy*dst.Width + x) * 4
		n := src.Width * 4
		if x < 0 || x+src.Width > dst.Width {
			// clip column-wise
			for col := 0; col < src.Width; col++ {
				dx := x + col
				if dx < 0 || dx >= dst.Width {
					continue
				}
				copy(dst.Pix[(dy*dst.Width+dx)*4:], src.Pix[srcOff+col*4:srcOff+col*4+4])
			}
			continue
		}
		copy(dst.Pix[dstOff:dstOff+n], src.Pix[srcOff:srcOff+n])
	}
}

// blendOver alpha-composites src onto dst at (x,y), straight (non-premultiplied)
// alpha blend per channel; decoded objects are not yet premultiplied (that
// only happens once a placement scales them, per the scaling step).
func blendOver(dst, src *DecodedObject, x, y int) {
	for row := 0; row < src.Height; row++ {
		dy := y + row
		if dy < 0 || dy >= dst.Height {
			continue
		}
		for col := 0; col < src.Width; col++ {
			dx := x + col
			if dx < 0 || dx >= dst.Width {
				continue
			}
			so := (row*src.Width + col) * 4
			do := (dy*dst.Width + dx) * 4
			sa := src.Pix[so+3]
			if sa == 0xFF {
				copy(dst.Pix[do:do+4], src.Pix[so:so+4])
				continue
			}
			if sa == 0 {
				continue
			}
			af := float64(sa) / 255.0
			for c := 0; c < 3; c++ {
				dst.Pix[do+c] = byte(float64(src.Pix[so+c])*af + float64(dst.Pix[do+c])*(1-af))
			}
			dst.Pix[do+3] = byte(float64(sa) + float64(dst.Pix[do+3])*(1-af))
		}
	}
}

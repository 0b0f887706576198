package gfx

// StartDraw begins one redraw cycle: it runs the animation scheduler once
// per live image and returns the rows whose redraw deadline has already
// passed, so the terminal knows which on-screen rows to consider dirty
// before it starts enumerating cells.
func (s *Store) StartDraw() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowMS()
	for _, img := range s.images {
		img.updateFrame(now)
		if img.NextRedrawMS != noRedraw {
			img.LastRedrawMS = now
		}
	}
	return s.rows.markDirtyAnimations(now)
}

// AppendRect offers one image rectangle to the draw-list coalescer for
// placement r.PlacementID of image r.ImageID, at the given cell metrics. It
// makes sure the pixmap for the rect's current frame exists, building it as
// needed; pixmaps reach the caller only through flush, which receives each
// pending rect with its pixmap, here when an unrelated rect is evicted from
// the full pending ring and otherwise at FinishDraw.
func (s *Store) AppendRect(r ImageRect, flush func(ImageRect, Pixmap)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := s.getImage(r.ImageID)
	if img == nil {
		return ErrNotFound
	}
	p, ok := img.Placements[r.PlacementID]
	if !ok {
		return ErrNotFound
	}
	s.touchImage(img)
	p.AtimeMS = s.nowMS()

	frame := img.CurrentFrame
	if frame == 0 {
		frame = 1
	}
	p.ProtectedFrame = frame

	if p.ScaledCW != r.CW || p.ScaledCH != r.CH {
		s.invalidatePlacementPixmaps(img, p)
		p.ScaledCW, p.ScaledCH = r.CW, r.CH
	}

	pm := p.pixmapAt(frame)
	if pm == nil {
		f := img.frameAt(frame)
		if f == nil {
			return ErrNotFound
		}
		built, size, err := s.buildPixmap(img, p, f, r.CW, r.CH)
		if err != nil {
			return err
		}
		p.setPixmap(frame, built, size)
		s.ramSize += size
		pm = built
	}

	s.rows.mergeRowDeadline(r.ScreenYRow, img.NextRedrawMS)
	s.rows.appendRect(r, func(flushed ImageRect) {
		fimg := s.getImage(flushed.ImageID)
		if fimg == nil {
			return
		}
		if fp, ok := fimg.Placements[flushed.PlacementID]; ok {
			fframe := fimg.CurrentFrame
			if fframe == 0 {
				fframe = 1
			}
			flush(flushed, fp.pixmapAt(fframe))
		}
	})
	return nil
}

// FinishDraw flushes every pending rectangle to the compositor, computes
// the global next-redraw delay, clears protected-frame pins, and runs an
// eviction pass. The returned delay is noDelayPending when nothing is
// animating; callers must not treat that as "redraw immediately".
func (s *Store) FinishDraw(flush func(ImageRect, Pixmap)) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows.flushAll(func(r ImageRect) {
		img := s.getImage(r.ImageID)
		if img == nil {
			return
		}
		p, ok := img.Placements[r.PlacementID]
		if !ok {
			return
		}
		frame := img.CurrentFrame
		if frame == 0 {
			frame = 1
		}
		flush(r, p.pixmapAt(frame))
	})

	for _, img := range s.images {
		for _, p := range img.Placements {
			p.ProtectedFrame = 0
		}
	}

	minDelay := 50
	if s.limits != nil {
		minDelay = s.limits.AnimationMinDelay
	}
	delay := s.rows.nextGlobalDelay(s.nowMS(), minDelay)

	s.checkLimits()
	return delay
}

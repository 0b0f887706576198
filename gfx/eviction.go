package gfx

import "sort"

// unloadCandidate is one entry in the heterogeneous RAM-eviction queue: a
// tagged union over a decoded frame and a placement pixmap, sharing a
// single numeric score so the two tiers can be ranked together.
type unloadCandidate struct {
	score int64

	img   *Image
	frame *Frame // set when this candidate is a decoded frame

	placement  *Placement // set when this candidate is a pixmap
	frameIndex int
}

// checkLimits enforces the four bounded-resource limits in order:
// image count, placement count, disk bytes, RAM bytes. Each is checked
// against a tolerance-inflated ceiling so eviction only runs when
// meaningfully over budget.
func (s *Store) checkLimits() {
	s.evictImages()
	s.evictPlacements()
	s.evictDisk()
	s.evictRAM()
}

func (s *Store) evictImages() {
	limit := s.limits.ToleratedCount(s.limits.MaxTotalImages)
	if len(s.images) <= limit {
		return
	}
	all := make([]*Image, 0, len(s.images))
	for _, img := range s.images {
		all = append(all, img)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].AtimeMS != all[j].AtimeMS {
			return all[i].AtimeMS < all[j].AtimeMS
		}
		return all[i].GlobalCmdIndex < all[j].GlobalCmdIndex
	})
	for _, img := range all {
		if len(s.images) <= limit {
			break
		}
		s.deleteImage(img)
	}
}

func (s *Store) evictPlacements() {
	total := 0
	for _, img := range s.images {
		total += len(img.Placements)
	}
	limit := s.limits.ToleratedCount(s.limits.MaxTotalPlacements)
	if total <= limit {
		return
	}
	type owned struct {
		img *Image
		p   *Placement
	}
	var all []owned
	for _, img := range s.images {
		for _, p := range img.Placements {
			all = append(all, owned{img, p})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].p.AtimeMS != all[j].p.AtimeMS {
			return all[i].p.AtimeMS < all[j].p.AtimeMS
		}
		return all[i].img.GlobalCmdIndex < all[j].img.GlobalCmdIndex
	})
	for _, o := range all {
		if total <= limit {
			break
		}
		if o.p.ProtectedFrame != 0 {
			break
		}
		s.deletePlacement(o.img, o.p)
		total--
	}
}

func (s *Store) evictDisk() {
	limit := s.limits.ToleratedBytes(s.limits.TotalFileCacheSize)
	if s.diskSize <= limit {
		return
	}
	type owned struct {
		img *Image
		f   *Frame
	}
	var all []owned
	for _, img := range s.images {
		for i, f := range img.Frames {
			if i == 0 || f == nil || f.DiskSize == 0 {
				continue
			}
			all = append(all, owned{img, f})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].f.AtimeMS != all[j].f.AtimeMS {
			return all[i].f.AtimeMS < all[j].f.AtimeMS
		}
		return all[i].img.GlobalCmdIndex < all[j].img.GlobalCmdIndex
	})
	for _, o := range all {
		if s.diskSize <= limit {
			break
		}
		s.freeFrameDisk(o.img, o.f)
	}
}

func (s *Store) evictRAM() {
	limit := s.limits.ToleratedBytes(s.limits.MaxTotalRAMSize)
	if s.ramSize <= limit {
		return
	}
	now := s.nowMS()
	var candidates []unloadCandidate
	for _, img := range s.images {
		for i, f := range img.Frames {
			if i == 0 || f == nil || f.Decoded == nil {
				continue
			}
			candidates = append(candidates, unloadCandidate{
				score: frameScore(img, f, now),
				img:   img,
				frame: f,
			})
		}
		for _, p := range img.Placements {
			for frameIdx, pm := range p.Pixmaps {
				if pm == nil || frameIdx == p.ProtectedFrame {
					continue
				}
				f := img.frameAt(frameIdx)
				if f == nil {
					continue
				}
				candidates = append(candidates, unloadCandidate{
					score:      pixmapScore(img, f, p, frameIdx, now),
					img:        img,
					placement:  p,
					frameIndex: frameIdx,
				})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })

	for _, c := range candidates {
		if s.ramSize <= limit {
			break
		}
		if c.frame != nil {
			s.ramSize -= c.frame.dropDecoded()
			continue
		}
		pm := c.placement.Pixmaps[c.frameIndex]
		if pm == nil {
			continue
		}
		if s.surface != nil {
			_ = s.surface.FreePixmap(pm)
		}
		s.ramSize -= c.placement.PixmapSizes[c.frameIndex]
		c.placement.Pixmaps[c.frameIndex] = nil
		c.placement.PixmapSizes[c.frameIndex] = 0
	}
}

// frameScore is a decoded frame's base eviction score: its atime, boosted
// within the image's animation recency window.
func frameScore(img *Image, f *Frame, now int64) int64 {
	if img.withinRecencyWindow(now) {
		return now + scoreJitter()
	}
	return f.AtimeMS
}

// pixmapScore is a placement pixmap's base eviction score: min(frame.atime,
// placement.atime), boosted within the recency window by a term favoring
// proximity to the current animation head, and nudged by the relative size
// of the decoded frame versus the pixmap so the larger representation is
// preferred for eviction.
func pixmapScore(img *Image, f *Frame, p *Placement, frameIndex int, now int64) int64 {
	base := f.AtimeMS
	if p.AtimeMS < base {
		base = p.AtimeMS
	}
	if !img.withinRecencyWindow(now) {
		return base
	}

	numFrames := img.lastUploadedFrameIndex()
	if numFrames < 1 {
		numFrames = 1
	}
	dist := frameIndex - img.CurrentFrame // forward distance from the head
	if dist < 0 {
		dist += numFrames
	}
	proximity := int64((numFrames - dist) * 1000 / numFrames)
	score := now + 1000 + proximity

	decodedSize := f.decodedSize()
	pixmapSize := p.PixmapSizes[frameIndex]
	if decodedSize+pixmapSize > 0 {
		ratio := float64(decodedSize) / float64(decodedSize+pixmapSize)
		score += int64(2000 * (ratio - 0.5))
	}
	return score
}

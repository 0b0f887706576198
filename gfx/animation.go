package gfx

import "math/rand"

// noRedraw is the sentinel "nothing pending" value for NextRedrawMS.
const noRedraw int64 = 0

// updateFrame advances img's current frame given the current wall-clock
// time, matching the reference scheduler: looping/loading/stopped states,
// gapless-frame skipping, and a forced-progress guard so an image whose
// every frame is gapless still advances instead of spinning forever.
func (img *Image) updateFrame(now int64) {
	last := img.lastUploadedFrameIndex()
	if last < 1 {
		return
	}

	if img.CurrentFrame == 0 {
		img.CurrentFrame = 1
		img.CurrentFrameTime = now
		gap := img.frameAt(1).GapMS
		if gap < 1 {
			gap = 1
		}
		img.NextRedrawMS = now + int64(gap)
		return
	}

	switch img.Anim {
	case AnimationStopped, AnimationUnset:
		img.NextRedrawMS = noRedraw
		return
	case AnimationLoading:
		if img.CurrentFrame >= last {
			img.NextRedrawMS = noRedraw
			return
		}
	}

	passed := now - img.CurrentFrameTime
	if passed <= 0 {
		return
	}

	if img.Anim == AnimationLooping && img.TotalDurationMS > 0 {
		passed = passed % img.TotalDurationMS
	}

	frame := img.CurrentFrame
	origFrame := frame
	advanced := false
	for {
		gap := int64(img.frameAt(frame).GapMS)
		if gap <= 0 {
			// gapless: cross instantly
			frame = img.nextFrameIndex(frame, last)
			advanced = true
			if frame == origFrame {
				break
			}
			continue
		}
		if passed < gap {
			break
		}
		passed -= gap
		frame = img.nextFrameIndex(frame, last)
		advanced = true
		if frame == 0 { // stalled at loading end
			break
		}
		if frame == origFrame {
			break
		}
	}

	if frame == 0 {
		// loading state reached the end mid-walk
		img.CurrentFrame = last
		img.NextRedrawMS = noRedraw
		return
	}

	if advanced && frame == origFrame {
		// walked all the way around without consuming any time: every
		// frame from here is gapless. Force one step of progress so the
		// scheduler never spins with the same frame forever.
		frame = img.nextFrameIndex(frame, last)
		img.CurrentFrameTime = now
	} else {
		img.CurrentFrameTime = now - passed
	}

	if frame == 0 {
		img.CurrentFrame = last
		img.NextRedrawMS = noRedraw
		return
	}

	if frame < origFrame && img.Anim == AnimationLooping {
		img.completeLoop()
	}

	img.CurrentFrame = frame
	gap := img.frameAt(frame).GapMS
	if gap < 1 {
		gap = 1
	}
	img.NextRedrawMS = img.CurrentFrameTime + int64(gap)
}

// nextFrameIndex returns frame+1, wrapping to 1 if looping (the loop budget
// is checked afterwards, by completeLoop), stalling at last (returned as 0, meaning "stop here")
// if loading, or simply wrapping if stopped/unset (shouldn't be reached,
// updateFrame returns early for those states).
func (img *Image) nextFrameIndex(frame, last int) int {
	next := frame + 1
	if next <= last {
		return next
	}
	switch img.Anim {
	case AnimationLooping:
		return 1
	case AnimationLoading:
		return 0
	default:
		return 1
	}
}

// completeLoop is called whenever the scheduler wraps from last back to 1
// on a looping image; it honors a finite loop count by stopping playback
// once the budget is exhausted.
func (img *Image) completeLoop() {
	if img.LoopCount <= 0 {
		return // infinite
	}
	img.LoopsDone++
	if img.LoopsDone >= img.LoopCount {
		img.Anim = AnimationStopped
	}
}

// recencyWindowMS is the span, relative to total animation duration, within
// which a decoded frame or pixmap is treated as part of an active animation
// for eviction-scoring purposes.
func (img *Image) recencyWindowMS() int64 {
	return img.TotalDurationMS*2 + 1000
}

func (img *Image) withinRecencyWindow(now int64) bool {
	return now-img.LastRedrawMS <= img.recencyWindowMS()
}

// scoreJitter supplies the small random term the reference adds to a
// recently-active decoded frame's eviction score, keeping ties among
// equally-recent frames from always resolving the same way.
func scoreJitter() int64 {
	return 1000 + rand.Int63n(1000)
}

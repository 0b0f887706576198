package gfx

// AnimationState is the playback state of an Image's frame sequence.
type AnimationState int

const (
	AnimationUnset AnimationState = iota
	AnimationStopped
	AnimationLoading
	AnimationLooping
)

// Image is a logical image: an ordered sequence of Frames plus the
// placements that render views of it.
type Image struct {
	ID     uint32
	Number uint32 // 0 = unset; not unique, most recent wins by GlobalCmdIndex

	Frames     []*Frame // 1-based; index 0 unused
	Placements map[uint32]*Placement

	PixWidth, PixHeight int // inherited from frame 1 once decoded

	Anim             AnimationState
	CurrentFrame     int
	CurrentFrameTime int64 // ms, wall-clock timestamp frame playback started counting from
	NextRedrawMS     int64 // 0 = no pending redraw
	LastRedrawMS     int64
	TotalDurationMS  int64

	LoopCount     int // 0 = infinite (per-wire convention), >0 = finite, honored
	LoopsDone     int

	TotalDiskSize int64

	AtimeMS         int64
	GlobalCmdIndex  uint64 // tie-breaker among images sharing Number
}

// frameAt returns the 1-based frame, or nil if index is out of range.
func (img *Image) frameAt(index int) *Frame {
	if index <= 0 || index >= len(img.Frames) {
		return nil
	}
	return img.Frames[index]
}

// appendFrame grows the frame slice (allocating index 0 as a dummy on first
// use) and returns the new frame's 1-based index.
func (img *Image) appendFrame(f *Frame) int {
	if len(img.Frames) == 0 {
		img.Frames = append(img.Frames, nil) // index 0 unused
	}
	img.Frames = append(img.Frames, f)
	f.Index = len(img.Frames) - 1
	return f.Index
}

// lastUploadedFrameIndex is the last frame index whose upload succeeded,
// hiding a half-uploaded trailing frame from the animation scheduler.
func (img *Image) lastUploadedFrameIndex() int {
	last := len(img.Frames) - 1
	if last < 1 {
		return 0
	}
	if img.Frames[last].Status < StatusUploadingSuccess {
		last--
	}
	if last < 1 {
		return 0
	}
	return last
}

// recomputeTotalDuration sums max(0, gap) across all frames, per the
// gapless-contributes-zero rule.
func (img *Image) recomputeTotalDuration() {
	var total int64
	for i, f := range img.Frames {
		if i == 0 || f == nil {
			continue
		}
		if f.GapMS > 0 {
			total += int64(f.GapMS)
		}
	}
	img.TotalDurationMS = total
}

// ramSize sums decoded-frame bytes plus placement pixmap bytes for this image.
func (img *Image) ramSize() int64 {
	var total int64
	for i, f := range img.Frames {
		if i == 0 || f == nil {
			continue
		}
		total += f.decodedSize()
	}
	for _, p := range img.Placements {
		total += p.ramSize()
	}
	return total
}

package gfx

import "testing"

func newTestImage(gaps ...int) *Image {
	img := &Image{Anim: AnimationLooping}
	img.Frames = append(img.Frames, nil) // index 0 unused
	for _, g := range gaps {
		img.Frames = append(img.Frames, &Frame{GapMS: g, Status: StatusUploadingSuccess})
	}
	img.recomputeTotalDuration()
	return img
}

// Scenario: two 1x1 frames with z=100 and z=200, looping. current_frame
// after 50ms = 1 (next_redraw 100ms); at 150ms = 2 (next_redraw 300ms);
// at 350ms = 1 (loop wrap).
func TestUpdateFrameLoopingTiming(t *testing.T) {
	img := newTestImage(100, 200)

	img.updateFrame(0)
	if img.CurrentFrame != 1 {
		t.Fatalf("after first touch, frame = %d, want 1", img.CurrentFrame)
	}
	if img.NextRedrawMS != 100 {
		t.Fatalf("next redraw = %d, want 100", img.NextRedrawMS)
	}

	img.updateFrame(50)
	if img.CurrentFrame != 1 {
		t.Fatalf("at 50ms, frame = %d, want 1", img.CurrentFrame)
	}

	img.updateFrame(150)
	if img.CurrentFrame != 2 {
		t.Fatalf("at 150ms, frame = %d, want 2", img.CurrentFrame)
	}
	if img.NextRedrawMS != 300 {
		t.Fatalf("next redraw at frame 2 = %d, want 300", img.NextRedrawMS)
	}

	img.updateFrame(350)
	if img.CurrentFrame != 1 {
		t.Fatalf("at 350ms, frame = %d, want 1 (loop wrap)", img.CurrentFrame)
	}
}

func TestUpdateFrameStoppedNeverRedraws(t *testing.T) {
	img := newTestImage(100, 200)
	img.Anim = AnimationStopped
	img.updateFrame(0)
	img.updateFrame(500)
	if img.NextRedrawMS != noRedraw {
		t.Fatalf("stopped image should never schedule a redraw, got %d", img.NextRedrawMS)
	}
}

func TestUpdateFrameFiniteLoopCountStops(t *testing.T) {
	img := newTestImage(10, 10)
	img.LoopCount = 1
	img.updateFrame(0) // frame 1

	now := int64(0)
	for i := 0; i < 10 && img.Anim == AnimationLooping; i++ {
		now += 10
		img.updateFrame(now)
	}
	if img.Anim != AnimationStopped {
		t.Fatalf("expected animation to stop after its single loop completed, got state %v", img.Anim)
	}
}

func TestGaplessFramesForceProgress(t *testing.T) {
	img := newTestImage(0, 0, 0)
	img.updateFrame(0)
	// every frame is gapless; repeated touches at the same/advancing time
	// must never get stuck.
	img.updateFrame(1)
	if img.CurrentFrame != 2 {
		t.Fatalf("expected scheduler to make progress from frame 1 to 2 with all-gapless frames, got %d", img.CurrentFrame)
	}
}

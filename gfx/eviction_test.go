package gfx

import (
	"testing"

	"github.com/framegrace/kittygfx/gfx/config"
)

func newTestStore(t *testing.T, lim *config.Limits) (*Store, *fakeSurface) {
	t.Helper()
	surf := newFakeSurface()
	s, err := NewStore(t.TempDir()+"/cache", lim, surf)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, surf
}

// Scenario: under RAM pressure, the decoded frame with the older atime is
// dropped first and the newer one survives.
func TestEvictRAMDropsOldestFirst(t *testing.T) {
	lim := config.Default()
	// 300 resident bytes; a 250-byte ceiling is crossed by dropping exactly
	// one 100-byte frame (300 -> 200), so the test exercises atime ordering
	// rather than forcing every asset out.
	lim.MaxTotalRAMSize = 250
	lim.ExcessToleranceRatio = 0
	s, _ := newTestStore(t, lim)

	img := &Image{ID: 1, Anim: AnimationUnset}
	s.registerImage(img)
	// Push both frames well outside the recency window (2*0+1000ms here)
	// so frameScore falls back to plain atime ordering instead of the
	// now-plus-jitter boost an active animation would get.
	img.LastRedrawMS = -1_000_000

	f1 := &Frame{Status: StatusUploadingSuccess, AtimeMS: 10, Decoded: &DecodedObject{Pix: make([]byte, 100)}}
	img.appendFrame(f1)
	f2 := &Frame{Status: StatusUploadingSuccess, AtimeMS: 20, Decoded: &DecodedObject{Pix: make([]byte, 200)}}
	img.appendFrame(f2)
	s.ramSize = int64(len(f1.Decoded.Pix) + len(f2.Decoded.Pix))

	s.evictRAM()

	if f1.Decoded != nil {
		t.Fatalf("expected older decoded frame (atime=10) to be dropped first")
	}
	if f2.Decoded == nil {
		t.Fatalf("expected newer decoded frame (atime=20) to survive")
	}
}

func TestEvictPlacementsStopsAtProtected(t *testing.T) {
	lim := config.Default()
	lim.MaxTotalPlacements = 0
	lim.ExcessToleranceRatio = 0
	s, _ := newTestStore(t, lim)

	img := &Image{ID: 1}
	s.registerImage(img)

	p1 := &Placement{ID: 1, AtimeMS: 5}
	img.registerPlacement(p1, 5)
	p2 := &Placement{ID: 2, AtimeMS: 10, ProtectedFrame: 1}
	img.registerPlacement(p2, 10)

	s.evictPlacements()

	if _, ok := img.Placements[1]; ok {
		t.Fatalf("expected unprotected older placement to be evicted")
	}
	if _, ok := img.Placements[2]; !ok {
		t.Fatalf("protected placement must survive eviction")
	}
}

package gfx

import "testing"

func TestHandlePutCreatesPlaceholder(t *testing.T) {
	s, _ := newTestStore(t, nil)

	img := &Image{ID: 42, PixWidth: 20, PixHeight: 10}
	s.registerImage(img)

	res := s.HandleCommand([]byte("Ga=p,i=42,c=4"))
	if res.Error {
		t.Fatalf("put failed: %q", res.Response)
	}
	if res.CreatePlaceholder == nil {
		t.Fatalf("expected a placeholder request for a non-virtual placement")
	}
	if res.CreatePlaceholder.Cols != 4 {
		t.Fatalf("placeholder cols = %d, want 4", res.CreatePlaceholder.Cols)
	}
	if len(img.Placements) != 1 {
		t.Fatalf("expected one placement registered, got %d", len(img.Placements))
	}
}

func TestHandlePutUnknownImage(t *testing.T) {
	s, _ := newTestStore(t, nil)
	res := s.HandleCommand([]byte("Ga=p,i=999,c=4"))
	if !res.Error {
		t.Fatalf("expected ENOENT for unknown image")
	}
}

func TestHandleAnimateRejectsOutOfRangeFrame(t *testing.T) {
	s, _ := newTestStore(t, nil)
	img := &Image{ID: 7}
	img.appendFrame(&Frame{Status: StatusUploadingSuccess})
	s.registerImage(img)

	res := s.HandleCommand([]byte("Ga=a,i=7,c=5"))
	if !res.Error {
		t.Fatalf("expected an error for an out-of-range current-frame request")
	}
}

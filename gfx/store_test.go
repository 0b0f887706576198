package gfx

import (
	"strings"
	"testing"
)

// Scenario: direct upload happy path across two chunks.
func TestHandleCommandDirectUploadHappyPath(t *testing.T) {
	s, _ := newTestStore(t, nil)

	res1 := s.HandleCommand([]byte("Ga=t,f=32,s=2,v=1,S=8,m=1;AAAAAA=="))
	if res1.Response != "" {
		t.Fatalf("intermediate chunk should produce no reply, got %q", res1.Response)
	}

	res2 := s.HandleCommand([]byte("Gm=0;/wD/AA=="))
	if res2.Error {
		t.Fatalf("final chunk reported an error: %q", res2.Response)
	}
	if !strings.Contains(res2.Response, "OK") {
		t.Fatalf("expected an OK reply, got %q", res2.Response)
	}

	if len(s.images) != 1 {
		t.Fatalf("expected exactly one image, got %d", len(s.images))
	}
	for _, img := range s.images {
		f := img.frameAt(1)
		if f == nil || f.Status != StatusRAMLoadingSuccess {
			t.Fatalf("frame 1 should have uploaded and been decoded eagerly, got %+v", f)
		}
	}
}

// Scenario: size mismatch on the final chunk latches UNEXPECTED_SIZE and
// reports an EINVAL reply.
func TestHandleCommandDirectUploadSizeMismatch(t *testing.T) {
	s, _ := newTestStore(t, nil)

	res := s.HandleCommand([]byte("Ga=T,f=24,s=1,v=1,S=10,i=5,m=0;AAAAAA=="))
	if !res.Error {
		t.Fatalf("expected a size-mismatch error, got %q", res.Response)
	}
	if !strings.Contains(res.Response, "EINVAL") {
		t.Fatalf("expected EINVAL in reply, got %q", res.Response)
	}

	img := s.getImage(5)
	if img == nil {
		t.Fatalf("image 5 should have been created even though upload failed")
	}
	f := img.frameAt(1)
	if f == nil || f.Status != StatusUploadingError {
		t.Fatalf("expected frame status uploading_error, got %+v", f)
	}
	if f.UploadingFailure != FailureUnexpectedSize {
		t.Fatalf("expected UNEXPECTED_SIZE failure, got %v", f.UploadingFailure)
	}
}

func TestHandleCommandDeleteIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t, nil)
	s.HandleCommand([]byte("Ga=t,f=32,s=1,v=1,S=4,i=9,m=0;AAAAAA=="))

	res1 := s.HandleCommand([]byte("Ga=d,d=I,i=9"))
	if res1.Error {
		t.Fatalf("first delete should succeed, got %q", res1.Response)
	}
	res2 := s.HandleCommand([]byte("Ga=d,d=I,i=9"))
	if res2.Error {
		t.Fatalf("second delete of an already-deleted image should be a no-op, not an error: %q", res2.Response)
	}
}

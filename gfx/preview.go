package gfx

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os/exec"

	"github.com/creack/pty"
)

// RunPreview shells out to an external image-info/preview viewer through a
// real pseudo-terminal, so TUI tools invoked for debugging see a terminal
// rather than a pipe. A spawn failure is logged and reported as an empty
// string; the debug `info`/`preview` subcommands are never allowed to make
// the dispatcher itself fail.
func RunPreview(name string, args ...string) string {
	cmd := exec.Command(name, args...)
	f, err := pty.Start(cmd)
	if err != nil {
		log.Printf("gfx: preview subprocess %s failed to start: %v", name, err)
		return ""
	}
	defer f.Close()

	var buf bytes.Buffer
	_, copyErr := io.Copy(&buf, f)
	if waitErr := cmd.Wait(); waitErr != nil && copyErr == nil {
		// pty read races with process exit; an EIO here is expected and
		// not itself a failure worth reporting.
		log.Printf("gfx: preview subprocess %s exited: %v", name, waitErr)
	}
	return buf.String()
}

// InfoString formats a one-line per-image summary (dimensions, frame and
// placement counts, disk size), for use by an `info`-style debug action that
// doesn't need a real subprocess.
func (s *Store) InfoString(imageID uint32) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := s.getImage(imageID)
	if img == nil {
		return fmt.Sprintf("image %d: not found", imageID)
	}
	return fmt.Sprintf("image %d: %dx%d, %d frame(s), %d placement(s), disk=%dB",
		img.ID, img.PixWidth, img.PixHeight, len(img.Frames)-1, len(img.Placements), img.TotalDiskSize)
}

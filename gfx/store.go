// Package gfx implements the image/frame/placement store, protocol front
// end, animation scheduler, and eviction engine for a terminal graphics
// protocol in the style of the kitty graphics escape sequences.
package gfx

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/framegrace/kittygfx/gfx/config"
)

// CellCallback is invoked once per placement torn down (not once per cell:
// the core has no grid model and does not know which screen cells a
// placement's glyphs landed on — that bookkeeping belongs to the outer
// terminal, an external collaborator per the protocol's scope). col and row
// are always reported as (0,0); integrators that track a grid should use
// imageID/placementID to look up and clear every cell they previously
// painted for that placement themselves. is_classic reports whether the
// placement used a legacy (non-Unicode-placeholder) image glyph.
type CellCallback func(imageID, placementID uint32, col, row int, isClassic bool) (keep bool)

// Store owns every Image, its Frames and Placements, the on-disk cache
// directory, and the aggregate counters the eviction engine checks. All
// mutating operations take the store's mutex; the documented operating mode
// is single-threaded cooperative, but the lock defends against accidental
// concurrent use the way texel/screen.go guards its own state.
type Store struct {
	mu sync.Mutex

	limits *config.Limits
	start  time.Time

	cacheDir string

	images        map[uint32]*Image
	imagesByNum   map[uint32][]*Image // all images sharing a number, most recent last

	cmdCounter uint64

	diskSize int64
	ramSize  int64

	surface Surface

	onCellClear CellCallback
	onRedraw    func(imageID uint32)

	rows drawRows // per-row redraw deadlines and pending rect ring (see drawlist.go)

	upload *uploadState // in-progress direct-medium upload, if any

	debugLevel DebugLevel
}

// NewStore creates a process-private cache directory under the given
// template (e.g. "/tmp/kittygfx-XXXXXX" semantics via os.MkdirTemp) and
// returns a ready Store. Cache-directory creation is the one step this
// package treats as fatal to the caller's own startup path; callers follow
// the teacher's own log.Fatalf-on-unrecoverable-setup convention themselves
// rather than this constructor calling it for them.
func NewStore(cacheDirPattern string, lim *config.Limits, surface Surface) (*Store, error) {
	if lim == nil {
		lim = config.Default()
	}
	dir, err := os.MkdirTemp(filepath.Dir(cacheDirPattern), filepath.Base(cacheDirPattern)+"-")
	if err != nil {
		return nil, fmt.Errorf("gfx: create cache dir: %w", err)
	}
	s := &Store{
		limits:      lim,
		start:       time.Now(),
		cacheDir:    dir,
		images:      make(map[uint32]*Image),
		imagesByNum: make(map[uint32][]*Image),
		surface:     surface,
	}
	s.rows.init()
	log.Printf("gfx: store ready, cache dir %s", dir)
	return s, nil
}

// Close removes the cache directory and everything in it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheDir == "" {
		return nil
	}
	err := os.RemoveAll(s.cacheDir)
	if err != nil {
		return fmt.Errorf("gfx: remove cache dir: %w", err)
	}
	log.Printf("gfx: store closed, cache dir %s removed", s.cacheDir)
	s.cacheDir = ""
	return nil
}

// SetCellCallback installs the terminal's per-cell clear hook.
func (s *Store) SetCellCallback(cb CellCallback) { s.onCellClear = cb }

// SetRedrawHook installs the callback invoked when an upload completes and
// existing placements of that image need a redraw scheduled.
func (s *Store) SetRedrawHook(hook func(imageID uint32)) { s.onRedraw = hook }

// SetDebugLevel adjusts the debug tri-state (see debug.go).
func (s *Store) SetDebugLevel(lvl DebugLevel) { s.debugLevel = lvl }

// nowMS is monotonic-ish milliseconds since store construction.
func (s *Store) nowMS() int64 {
	return time.Since(s.start).Milliseconds()
}

func (s *Store) nextCmdIndex() uint64 {
	s.cmdCounter++
	return s.cmdCounter
}

// framePath returns the on-disk path for a given image id and frame index.
func (s *Store) framePath(imageID uint32, frameIndex int) string {
	return filepath.Join(s.cacheDir, fmt.Sprintf("img-%03d-%03d", imageID, frameIndex))
}

// --- lookups -----------------------------------------------------------

func (s *Store) getImage(id uint32) *Image {
	return s.images[id]
}

// findImageByNumber returns the most-recently-created image with the given
// non-zero number, broken by GlobalCmdIndex, or nil.
func (s *Store) findImageByNumber(number uint32) *Image {
	list := s.imagesByNum[number]
	if len(list) == 0 {
		return nil
	}
	best := list[0]
	for _, img := range list[1:] {
		if img.GlobalCmdIndex > best.GlobalCmdIndex {
			best = img
		}
	}
	return best
}

// --- creation / registration --------------------------------------------

// registerImage assigns a fresh id if img.ID is 0, links it into the
// lookup maps, and stamps its GlobalCmdIndex.
func (s *Store) registerImage(img *Image) {
	if img.ID == 0 {
		for {
			id := generateImageID()
			if _, exists := s.images[id]; !exists {
				img.ID = id
				break
			}
		}
	}
	img.GlobalCmdIndex = s.nextCmdIndex()
	img.AtimeMS = s.nowMS()
	if img.Placements == nil {
		img.Placements = make(map[uint32]*Placement)
	}
	s.images[img.ID] = img
	if img.Number != 0 {
		s.imagesByNum[img.Number] = append(s.imagesByNum[img.Number], img)
	}
}

// registerPlacement assigns a fresh id if needed and links the placement
// under its owning image.
func (img *Image) registerPlacement(p *Placement, now int64) {
	if p.ID == 0 {
		for {
			id := generatePlacementID()
			if _, exists := img.Placements[id]; !exists {
				p.ID = id
				break
			}
		}
	}
	p.AtimeMS = now
	img.Placements[p.ID] = p
}

// --- deletion ------------------------------------------------------------

// deleteImage tears down every frame (file + decoded bitmap) and placement
// (pixmaps + cell clearing) belonging to img, then removes it from the id
// and number maps.
func (s *Store) deleteImage(img *Image) {
	for pid, p := range img.Placements {
		s.teardownPlacement(img, p)
		delete(img.Placements, pid)
	}
	for i, f := range img.Frames {
		if i == 0 || f == nil {
			continue
		}
		s.freeFrameDisk(img, f)
		s.ramSize -= f.dropDecoded()
	}
	delete(s.images, img.ID)
	if img.Number != 0 {
		list := s.imagesByNum[img.Number]
		for i, cand := range list {
			if cand == img {
				s.imagesByNum[img.Number] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(s.imagesByNum[img.Number]) == 0 {
			delete(s.imagesByNum, img.Number)
		}
	}
}

// deletePlacement removes p from img without touching the image itself.
func (s *Store) deletePlacement(img *Image, p *Placement) {
	s.teardownPlacement(img, p)
	delete(img.Placements, p.ID)
}

func (s *Store) teardownPlacement(img *Image, p *Placement) {
	s.invalidatePlacementPixmaps(img, p)
	if s.onCellClear != nil {
		s.clearPlacementCells(img, p)
	}
}

// invalidatePlacementPixmaps frees every pixmap handle p currently holds
// through the surface and updates the aggregate RAM counter, without
// touching the placement's own registration. Called both when a placement
// is torn down entirely and when a reuploaded frame invalidates its
// existing pixmaps.
func (s *Store) invalidatePlacementPixmaps(img *Image, p *Placement) {
	for frame, pm := range p.Pixmaps {
		if pm == nil {
			continue
		}
		if s.surface != nil {
			if err := s.surface.FreePixmap(pm); err != nil {
				log.Printf("gfx: free pixmap image=%d placement=%d frame=%d: %v", img.ID, p.ID, frame, err)
			}
		}
	}
	s.ramSize -= p.clearPixmaps()
}

// clearPlacementCells fires onCellClear exactly once for p, per the
// CellCallback contract: the core reports the placement's identity and
// leaves any actual per-cell grid walk to the integrator.
func (s *Store) clearPlacementCells(img *Image, p *Placement) {
	s.onCellClear(img.ID, p.ID, 0, 0, !p.Virtual)
}

func (s *Store) freeFrameDisk(img *Image, f *Frame) {
	if f.DiskSize == 0 {
		return
	}
	path := s.framePath(img.ID, f.Index)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("gfx: remove cache file %s: %v", path, err)
	}
	s.diskSize -= f.DiskSize
	img.TotalDiskSize -= f.DiskSize
	f.DiskSize = 0
}

// touchImage stamps atime on an image; nothing else is updated.
func (s *Store) touchImage(img *Image) {
	img.AtimeMS = s.nowMS()
}

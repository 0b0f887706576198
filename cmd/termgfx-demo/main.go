// Command termgfx-demo drives the graphics store end to end against a real
// tcell screen, without a real terminal emulator's grid model behind it. It
// exists to exercise the whole upload -> decode -> scale -> composite
// pipeline from a script of canned protocol commands.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/framegrace/kittygfx/gfx"
	"github.com/framegrace/kittygfx/gfx/config"
)

var limitsPath = flag.String("limits", "", "path to a JSON limits override file")

func main() {
	flag.Parse()

	lim, err := config.Load(*limitsPath)
	if err != nil {
		log.Fatalf("termgfx-demo: loading limits: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("termgfx-demo: new screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("termgfx-demo: init screen: %v", err)
	}
	defer screen.Fini()

	cols, rows := screen.Size()
	cw, ch := cellPixelGuess()

	surface := newHalfBlockSurface(screen, cw, ch)

	store, err := gfx.NewStore("/tmp/termgfx-demo", lim, surface)
	if err != nil {
		log.Fatalf("termgfx-demo: new store: %v", err)
	}
	defer store.Close()
	store.SetDebugLevel(gfx.DebugLog)

	var placed *gfx.Placeholder
	for _, wire := range scriptedCommands() {
		res := store.HandleCommand([]byte(wire))
		if res.Response != "" {
			log.Printf("termgfx-demo: reply %q", res.Response)
		}
		if res.CreatePlaceholder != nil {
			placed = res.CreatePlaceholder
		}
	}

	if placed != nil {
		runDrawCycle(store, surface, placed, cw, ch)
	}

	drawFrame(screen, surface, cols, rows)
	time.Sleep(300 * time.Millisecond)
}

// runDrawCycle exercises the coalescer/animation/compositor pipeline for a
// single placement, the way a real terminal's redraw pass would for every
// cell spanned by it.
func runDrawCycle(store *gfx.Store, surface *halfBlockSurface, ph *gfx.Placeholder, cw, ch int) {
	store.StartDraw()

	flush := func(r gfx.ImageRect, pm gfx.Pixmap) {
		if pm == nil {
			return
		}
		srcRect := image.Rect(0, 0, (r.ImgEndCol-r.ImgStartCol)*cw, (r.ImgEndRow-r.ImgStartRow)*ch)
		_ = surface.Composite(pm, srcRect, r.ScreenXPix, r.ScreenYPix, r.Reverse)
	}

	err := store.AppendRect(gfx.ImageRect{
		ImageID: ph.ImageID, PlacementID: ph.PlacementID,
		ImgStartCol: 0, ImgEndCol: ph.Cols,
		ImgStartRow: 0, ImgEndRow: ph.Rows,
		ScreenXPix: 0, ScreenYPix: 0, ScreenYRow: 0,
		CW: cw, CH: ch,
	}, flush)
	if err != nil {
		log.Printf("termgfx-demo: append rect: %v", err)
	}

	delay := store.FinishDraw(flush)
	log.Printf("termgfx-demo: next redraw delay %dms", delay)
}

var cellSizeReplyPattern = regexp.MustCompile(`\x1b\[6;(\d+);(\d+)t`)

// cellPixelGuess queries the real terminal for its cell size in pixels via
// XTWINOPS (CSI 16 t, replied to as CSI 6 ; height ; width t), the same
// raw-mode-query-then-restore pattern texel/desktop.go uses to read back an
// OSC color response: open /dev/tty, flip it into raw mode with
// golang.org/x/term so the reply isn't line-buffered or echoed, write the
// query, and read with a short deadline. Falls back to a conservative guess
// if the terminal doesn't answer (not a real tty, no XTWINOPS support, or a
// timeout).
func cellPixelGuess() (int, int) {
	const fallbackCW, fallbackCH = 8, 16

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return fallbackCW, fallbackCH
	}
	defer tty.Close()

	if !term.IsTerminal(int(tty.Fd())) {
		return fallbackCW, fallbackCH
	}

	state, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return fallbackCW, fallbackCH
	}
	defer term.Restore(int(tty.Fd()), state)

	if _, err := tty.WriteString("\x1b[16t"); err != nil {
		return fallbackCW, fallbackCH
	}

	resp := make([]byte, 0, 32)
	buf := make([]byte, 1)
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		tty.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
		n, readErr := tty.Read(buf)
		if readErr != nil {
			if os.IsTimeout(readErr) {
				continue
			}
			return fallbackCW, fallbackCH
		}
		resp = append(resp, buf[:n]...)
		if buf[0] == 't' {
			break
		}
	}

	m := cellSizeReplyPattern.FindSubmatch(resp)
	if len(m) != 3 {
		return fallbackCW, fallbackCH
	}
	ch, errH := strconv.Atoi(string(m[1]))
	cw, errW := strconv.Atoi(string(m[2]))
	if errH != nil || errW != nil || ch <= 0 || cw <= 0 {
		return fallbackCW, fallbackCH
	}
	return cw, ch
}

func scriptedCommands() []string {
	// A tiny 2x1 RGBA32 image (a transparent black pixel and a transparent
	// magenta pixel) uploaded directly, then a put at natural size.
	return []string{
		"Ga=T,f=32,s=2,v=1,i=1,S=8,m=1;AAAAAA==",
		"Gm=0;/wD/AA==",
	}
}

func drawFrame(screen tcell.Screen, surface *halfBlockSurface, cols, rows int) {
	style := tcell.StyleDefault
	for y := 0; y < rows && y < surface.h; y++ {
		for x := 0; x < cols && x < surface.w; x++ {
			r, g, b, _ := surface.at(x, y)
			if r == 0 && g == 0 && b == 0 {
				continue
			}
			screen.SetContent(x, y, '▀', nil, style.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b))))
		}
	}
	screen.Show()
}

// halfBlockSurface is the reference gfx.Surface: an in-memory ARGB
// framebuffer rendered to the tcell screen as colored half-block cells, a
// text-terminal stand-in for a real pixel compositor.
type halfBlockSurface struct {
	screen tcell.Screen
	cw, ch int
	w, h   int
	fb     *image.RGBA
	next   uintptr
	pixmaps map[uintptr]*image.RGBA
}

func newHalfBlockSurface(screen tcell.Screen, cw, ch int) *halfBlockSurface {
	cols, rows := screen.Size()
	w, h := cols*cw, rows*ch
	return &halfBlockSurface{
		screen: screen, cw: cw, ch: ch, w: w, h: h,
		fb:      image.NewRGBA(image.Rect(0, 0, w, h)),
		pixmaps: make(map[uintptr]*image.RGBA),
	}
}

func (s *halfBlockSurface) AllocPixmap(w, h int) (gfx.Pixmap, error) {
	s.next++
	id := s.next
	s.pixmaps[id] = image.NewRGBA(image.Rect(0, 0, w, h))
	return id, nil
}

func (s *halfBlockSurface) UploadPixmap(pm gfx.Pixmap, buf []byte, w, h int) error {
	id := pm.(uintptr)
	img, ok := s.pixmaps[id]
	if !ok {
		return fmt.Errorf("termgfx-demo: unknown pixmap %v", pm)
	}
	if len(buf) != w*h*4 {
		return fmt.Errorf("termgfx-demo: buffer size %d != %dx%dx4", len(buf), w, h)
	}
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = buf[i*4+2] // R
		img.Pix[i*4+1] = buf[i*4+1] // G
		img.Pix[i*4+2] = buf[i*4+0] // B
		img.Pix[i*4+3] = buf[i*4+3] // A
	}
	return nil
}

func (s *halfBlockSurface) Composite(pm gfx.Pixmap, srcRect image.Rectangle, dstX, dstY int, reverse bool) error {
	id := pm.(uintptr)
	img, ok := s.pixmaps[id]
	if !ok {
		return fmt.Errorf("termgfx-demo: unknown pixmap %v", pm)
	}
	for y := 0; y < srcRect.Dy(); y++ {
		for x := 0; x < srcRect.Dx(); x++ {
			sx, sy := srcRect.Min.X+x, srcRect.Min.Y+y
			dx, dy := dstX+x, dstY+y
			if dx < 0 || dy < 0 || dx >= s.w || dy >= s.h {
				continue
			}
			c := img.RGBAAt(sx, sy)
			if reverse {
				c.R, c.G, c.B, c.A = ^c.R, ^c.G, ^c.B, ^c.A
			}
			s.fb.SetRGBA(dx, dy, c)
		}
	}
	return nil
}

func (s *halfBlockSurface) FreePixmap(pm gfx.Pixmap) error {
	id, ok := pm.(uintptr)
	if !ok {
		return nil
	}
	delete(s.pixmaps, id)
	return nil
}

func (s *halfBlockSurface) at(col, row int) (r, g, b, a uint8) {
	x, y := col*s.cw, row*s.ch
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return 0, 0, 0, 0
	}
	c := s.fb.RGBAAt(x, y)
	return c.R, c.G, c.B, c.A
}

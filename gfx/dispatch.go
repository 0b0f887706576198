package gfx

import (
	"bytes"
	"log"
)

// HandleCommand parses and dispatches one protocol invocation. wire is the
// already-unwrapped "G<keys>[;payload]" form (the ESC _ ... ESC \ framing
// is the caller's concern, not the core's).
func (s *Store) HandleCommand(wire []byte) *Result {
	body := bytes.TrimPrefix(wire, []byte("G"))

	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := parseCommand(body)
	res := s.dispatch(cmd)

	if s.debugLevel >= DebugLog {
		log.Printf("gfx: cmd a=%c i=%d I=%d p=%d -> redraw=%v error=%v resp=%q",
			cmd.Action, cmd.ImageID, cmd.ImageNumber, cmd.PlacementID, res.Redraw, res.Error, res.Response)
	}
	return res
}

func (s *Store) dispatch(cmd *Command) *Result {
	if s.isContinuation(cmd) {
		return s.continueDirectUpload(cmd)
	}

	if len(cmd.Diagnostics) > 0 && cmd.Action == ActionNone {
		return errResult(cmd, errInvalf("%s", cmd.Diagnostics[0]))
	}

	switch cmd.Action {
	case ActionTransmit, ActionTransmitPut, ActionQuery, ActionFrame:
		return s.handleTransmit(cmd)
	case ActionPut:
		return s.handlePut(cmd)
	case ActionDelete:
		return s.handleDelete(cmd)
	case ActionAnimate:
		return s.handleAnimate(cmd)
	default:
		return errResult(cmd, errInvalf("unknown or missing action"))
	}
}

func (s *Store) handlePut(cmd *Command) *Result {
	img := s.lookupImage(cmd)
	if img == nil {
		return errResult(cmd, errNoEnt("no such image"))
	}
	s.touchImage(img)

	p := &Placement{
		ID:              cmd.PlacementID,
		Virtual:         cmd.Virtual,
		ScaleMode:       cmd.ScaleMode,
		Rows:            cmd.Rows,
		Cols:            cmd.Cols,
		SrcX:            cmd.SrcX,
		SrcY:            cmd.SrcY,
		SrcW:            cmd.SrcW,
		SrcH:            cmd.SrcH,
		DoNotMoveCursor: cmd.DoNotMoveCursor,
	}
	img.registerPlacement(p, s.nowMS())

	res := okResult(cmd, true)
	if !p.Virtual {
		res.CreatePlaceholder = &Placeholder{
			ImageID: img.ID, PlacementID: p.ID, Rows: p.Rows, Cols: p.Cols,
			DoNotMoveCursor: p.DoNotMoveCursor,
		}
	}
	s.checkLimits()
	return res
}

func (s *Store) handleDelete(cmd *Command) *Result {
	spec := cmd.DeleteSpec
	lower := spec | 0x20
	if spec == 0 {
		lower = 0
	}
	deleteImageToo := spec != 0 && spec == (spec&^0x20) && spec >= 'A' && spec <= 'Z'

	switch lower {
	case 0, 'a':
		for _, img := range s.images {
			s.deleteAllVisiblePlacements(img, deleteImageToo)
		}
	case 'i':
		img := s.getImage(cmd.ImageID)
		if img == nil {
			return okResult(cmd, false)
		}
		if cmd.PlacementID != 0 {
			if p, ok := img.Placements[cmd.PlacementID]; ok {
				s.deletePlacement(img, p)
			}
		} else {
			s.deleteAllVisiblePlacements(img, false)
		}
		if deleteImageToo && len(img.Placements) == 0 {
			s.deleteImage(img)
		}
	case 'n':
		img := s.findImageByNumber(cmd.ImageNumber)
		if img == nil {
			return okResult(cmd, false)
		}
		s.deleteAllVisiblePlacements(img, deleteImageToo)
	default:
		return errResult(cmd, errInvalf("unknown delete specifier '%c'", spec))
	}

	res := okResult(cmd, true)
	s.checkLimits()
	return res
}

func (s *Store) deleteAllVisiblePlacements(img *Image, deleteImageToo bool) {
	for pid, p := range img.Placements {
		if p.Virtual {
			continue
		}
		s.deletePlacement(img, p)
		_ = pid
	}
	if deleteImageToo && len(img.Placements) == 0 {
		s.deleteImage(img)
	}
}

func (s *Store) handleAnimate(cmd *Command) *Result {
	img := s.lookupImage(cmd)
	if img == nil {
		return errResult(cmd, errNoEnt("no such image"))
	}
	s.touchImage(img)

	switch img.Anim {
	case AnimationUnset:
		img.Anim = AnimationLoading
	}

	if cmd.AnimState != 0 {
		switch cmd.AnimState {
		case 1:
			img.Anim = AnimationStopped
		case 2:
			img.Anim = AnimationLoading
		case 3:
			img.Anim = AnimationLooping
		default:
			return errResult(cmd, errInvalf("bad animation state %d", cmd.AnimState))
		}
	}
	if cmd.LoopCount != 0 {
		img.LoopCount = cmd.LoopCount
		img.LoopsDone = 0
	}
	if cmd.AnimCurrentFrame != 0 {
		last := img.lastUploadedFrameIndex()
		if cmd.AnimCurrentFrame < 1 || cmd.AnimCurrentFrame > last {
			return errResult(cmd, errInvalf("frame %d out of range", cmd.AnimCurrentFrame))
		}
		img.CurrentFrame = cmd.AnimCurrentFrame
		img.CurrentFrameTime = s.nowMS()
	}
	if cmd.AnimEditFrame != 0 {
		f := img.frameAt(cmd.AnimEditFrame)
		if f == nil {
			return errResult(cmd, errNoEnt("no such frame"))
		}
		if cmd.GapMS != 0 {
			f.GapMS = cmd.GapMS
			img.recomputeTotalDuration()
		}
	}

	res := okResult(cmd, true)
	s.checkLimits()
	return res
}

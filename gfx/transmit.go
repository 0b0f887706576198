package gfx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// uploadState tracks an in-progress direct-medium upload across chunks, so
// a later command with no id/number can be recognized as its continuation.
type uploadState struct {
	imageID    uint32
	frameIndex int
	file       *os.File
	bw         *base64Writer
	written    int64
	expected   int64
	failed     bool
}

// isContinuation reports whether cmd, carrying no action, no image id, and
// no image number, should be treated as the next chunk of s's active
// direct-medium upload.
func (s *Store) isContinuation(cmd *Command) bool {
	return cmd.Action == ActionNone && cmd.ImageID == 0 && cmd.ImageNumber == 0 && s.upload != nil
}

// handleTransmit implements actions t, T, q, f.
func (s *Store) handleTransmit(cmd *Command) *Result {
	if cmd.Action == ActionFrame {
		return s.handleFrameAppend(cmd)
	}

	isQuery := cmd.Action == ActionQuery
	img, isNew := s.resolveOrCreateImage(cmd, isQuery)

	f := &Frame{
		Format:       cmd.Format,
		Compression:  cmd.Compression,
		ExpectedSize: cmd.ExpectedSize,
		DataWidth:    cmd.DataWidth,
		DataHeight:   cmd.DataHeight,
		GapMS:        cmd.GapMS,
		Blend:        cmd.Blend,
		Status:       StatusUploading,
		AtimeMS:      s.nowMS(),
	}
	img.appendFrame(f)
	img.recomputeTotalDuration()

	res := s.beginTransmission(cmd, img, f)
	if res != nil {
		if isQuery {
			s.deleteImage(img)
		}
		return res
	}

	if cmd.Medium == MediumDirect && cmd.More {
		// first chunk of a multi-chunk direct upload; no reply yet.
		return &Result{}
	}

	return s.finishUpload(cmd, img, f, isNew, isQuery)
}

// resolveOrCreateImage creates a new Image (or, for 'q', an anonymous one
// discarded after decoding) and registers it in the store.
func (s *Store) resolveOrCreateImage(cmd *Command, isQuery bool) (*Image, bool) {
	img := &Image{ID: cmd.ImageID, Number: cmd.ImageNumber, Anim: AnimationUnset}
	if isQuery {
		img.ID = 0 // always freshly generated for queries
		img.Number = 0
	}
	s.registerImage(img)
	return img, true
}

// beginTransmission stages the frame's cache file according to the medium
// and, for file/temp-file media, copies the whole payload synchronously
// (those media are never chunked). Returns a non-nil *Result only when the
// transmission is already finished and should short-circuit the rest of
// handleTransmit (file/temp-file media, or a direct upload that failed on
// its first chunk).
func (s *Store) beginTransmission(cmd *Command, img *Image, f *Frame) *Result {
	switch cmd.Medium {
	case MediumFile, MediumTempFile:
		return s.transmitFromPath(cmd, img, f)
	default: // direct
		return s.transmitDirectChunk(cmd, img, f)
	}
}

func (s *Store) transmitFromPath(cmd *Command, img *Image, f *Frame) *Result {
	pathBytes, err := decodeBase64Payload(cmd.Payload)
	if err != nil {
		f.Status = StatusUploadingError
		f.UploadingFailure = FailureCannotOpenCachedFile
		return errResult(cmd, errInvalf("bad path payload: %v", err))
	}
	srcPath := string(pathBytes)

	info, err := os.Stat(srcPath)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		f.Status = StatusUploadingError
		f.UploadingFailure = FailureCannotOpenCachedFile
		return errResult(cmd, errBadFile(fmt.Sprintf("cannot read source file %s", srcPath)))
	}
	if s.limits != nil && info.Size() > s.limits.MaxSingleImageFileSize {
		f.Status = StatusUploadingError
		f.UploadingFailure = FailureOverSizeLimit
		return errResult(cmd, errTooBig(fmt.Sprintf("file %s exceeds the single image size limit", srcPath)))
	}

	dstPath := s.framePath(img.ID, f.Index)
	if err := copyFile(srcPath, dstPath); err != nil {
		f.Status = StatusUploadingError
		f.UploadingFailure = FailureCannotCopyFile
		return errResult(cmd, errIO(fmt.Sprintf("cannot copy %s: %v", srcPath, err)))
	}

	if cmd.Medium == MediumTempFile && looksLikeTempFile(srcPath) {
		_ = os.Remove(srcPath)
	}

	f.DiskSize = info.Size()
	f.Status = StatusUploadingSuccess
	s.diskSize += f.DiskSize
	img.TotalDiskSize += f.DiskSize
	return nil
}

// looksLikeTempFile mirrors the reference's conservative rule for deciding
// whether a temp-file-medium source path is safe to unlink: it must
// reference the protocol's own sentinel name and live under a temp
// directory, so an ordinary file the client still wants isn't deleted.
func looksLikeTempFile(path string) bool {
	if !strings.Contains(path, "tty-graphics-protocol") {
		return false
	}
	tmp := os.TempDir()
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(abs, tmp)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// transmitDirectChunk handles one chunk of t=d (the default medium). On the
// first chunk it opens the cache file and stashes upload state; on
// subsequent (continuation) chunks the caller has already matched cmd back
// to this upload via isContinuation.
func (s *Store) transmitDirectChunk(cmd *Command, img *Image, f *Frame) *Result {
	path := s.framePath(img.ID, f.Index)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		f.Status = StatusUploadingError
		f.UploadingFailure = FailureCannotOpenCachedFile
		return errResult(cmd, errIO(fmt.Sprintf("cannot open cache file: %v", err)))
	}
	s.upload = &uploadState{
		imageID:    img.ID,
		frameIndex: f.Index,
		file:       file,
		bw:         newBase64Writer(file),
		expected:   cmd.ExpectedSize,
	}
	return s.writeDirectChunk(cmd, img, f)
}

// continueDirectUpload routes a continuation chunk (no action, no ids) to
// the frame the active upload belongs to.
func (s *Store) continueDirectUpload(cmd *Command) *Result {
	img := s.getImage(s.upload.imageID)
	if img == nil {
		s.abandonUpload()
		return errResult(cmd, errNoEnt("upload's image disappeared"))
	}
	f := img.frameAt(s.upload.frameIndex)
	if f == nil {
		s.abandonUpload()
		return errResult(cmd, errNoEnt("upload's frame disappeared"))
	}
	return s.writeDirectChunk(cmd, img, f)
}

func (s *Store) writeDirectChunk(cmd *Command, img *Image, f *Frame) *Result {
	up := s.upload
	if up.failed {
		if !cmd.More {
			s.abandonUpload()
			return s.latchedUploadResult(cmd, f)
		}
		return &Result{}
	}

	_, err := up.bw.Write(cmd.Payload)
	if err == nil {
		// count decoded bytes on disk, not base64 characters received
		if pos, serr := up.file.Seek(0, io.SeekCurrent); serr == nil {
			up.written = pos
		}
	}
	if err == nil && (s.limits == nil || up.written <= s.limits.MaxSingleImageFileSize) &&
		(up.expected == 0 || up.written <= up.expected) {
		if !cmd.More {
			return s.finalizeDirectUpload(cmd, img, f)
		}
		return &Result{}
	}

	// oversize or decode failure: latch and clean up.
	up.failed = true
	f.Status = StatusUploadingError
	if err != nil {
		f.UploadingFailure = FailureUnexpectedSize
	} else {
		f.UploadingFailure = FailureOverSizeLimit
	}
	up.file.Close()
	_ = os.Remove(s.framePath(img.ID, f.Index))

	if !cmd.More {
		s.abandonUpload()
		return s.latchedUploadResult(cmd, f)
	}
	return &Result{}
}

func (s *Store) finalizeDirectUpload(cmd *Command, img *Image, f *Frame) *Result {
	up := s.upload
	if err := up.bw.Flush(); err != nil {
		up.file.Close()
		f.Status = StatusUploadingError
		f.UploadingFailure = FailureUnexpectedSize
		s.abandonUpload()
		return errResult(cmd, errInvalf("payload decode failed: %v", err))
	}
	up.file.Close()
	s.abandonUpload()

	info, err := os.Stat(s.framePath(img.ID, f.Index))
	if err != nil {
		f.Status = StatusUploadingError
		f.UploadingFailure = FailureCannotOpenCachedFile
		return errResult(cmd, errIO("cannot stat finished upload"))
	}
	f.DiskSize = info.Size()

	if up.expected != 0 && f.DiskSize != up.expected {
		f.Status = StatusUploadingError
		f.UploadingFailure = FailureUnexpectedSize
		_ = os.Remove(s.framePath(img.ID, f.Index))
		f.DiskSize = 0
		return errResult(cmd, errInvalf("uploaded size %d doesn't match the expected size %d", info.Size(), up.expected))
	}

	f.Status = StatusUploadingSuccess
	s.diskSize += f.DiskSize
	img.TotalDiskSize += f.DiskSize
	return s.finishUpload(cmd, img, f, false, false)
}

func (s *Store) latchedUploadResult(cmd *Command, f *Frame) *Result {
	switch f.UploadingFailure {
	case FailureOverSizeLimit:
		return errResult(cmd, errTooBig("upload exceeds the single image size limit"))
	case FailureUnexpectedSize:
		return errResult(cmd, errInvalf("uploaded size doesn't match the expected size"))
	default:
		return errResult(cmd, errIO("upload failed"))
	}
}

func (s *Store) abandonUpload() { s.upload = nil }

// finishUpload runs after a transmission completes successfully: eager
// decode (to surface decode errors promptly), T's implicit put, q's
// query-id echo, existing-placement redraw scheduling, and eviction.
func (s *Store) finishUpload(cmd *Command, img *Image, f *Frame, isNewImage, isQuery bool) *Result {
	if _, err := s.decodeFrame(img, f); err != nil {
		res := errResult(cmd, errBadFile(err.Error()))
		s.checkLimits()
		return res
	}

	for _, p := range img.Placements {
		s.invalidatePlacementPixmaps(img, p)
	}
	if s.onRedraw != nil {
		s.onRedraw(img.ID)
	}

	redraw := false
	var placeholder *Placeholder

	if cmd.Action == ActionTransmitPut {
		p := &Placement{ScaleMode: cmd.ScaleMode, Rows: cmd.Rows, Cols: cmd.Cols,
			SrcX: cmd.SrcX, SrcY: cmd.SrcY, SrcW: cmd.SrcW, SrcH: cmd.SrcH,
			DoNotMoveCursor: cmd.DoNotMoveCursor, Virtual: cmd.Virtual}
		img.registerPlacement(p, s.nowMS())
		redraw = true
		if !p.Virtual {
			placeholder = &Placeholder{ImageID: img.ID, PlacementID: p.ID, Rows: p.Rows, Cols: p.Cols, DoNotMoveCursor: p.DoNotMoveCursor}
		}
	}

	s.checkLimits()

	res := okResult(cmd, redraw)
	res.CreatePlaceholder = placeholder
	if isQuery {
		// query id is echoed via the same i= field formatReply already uses;
		// the image itself was already torn down by the caller.
	}
	return res
}

// handleFrameAppend implements action 'f': append a new frame to an
// existing image (or edit one in place when EditFrameIndex is set).
func (s *Store) handleFrameAppend(cmd *Command) *Result {
	img := s.lookupImage(cmd)
	if img == nil {
		return errResult(cmd, errNoEnt("no such image"))
	}

	f := &Frame{
		Format:               cmd.Format,
		Compression:          cmd.Compression,
		ExpectedSize:         cmd.ExpectedSize,
		DataWidth:            cmd.DataWidth,
		DataHeight:           cmd.DataHeight,
		OffsetX:              cmd.OffsetX,
		OffsetY:              cmd.OffsetY,
		BackgroundColor:      cmd.BackgroundColor,
		BackgroundFrameIndex: cmd.BackgroundFrameIndex,
		Blend:                cmd.Blend,
		GapMS:                cmd.GapMS,
		Status:               StatusUploading,
		AtimeMS:              s.nowMS(),
	}
	if cmd.EditFrameIndex > 0 && cmd.EditFrameIndex < len(img.Frames) {
		f.Index = cmd.EditFrameIndex
		img.Frames[cmd.EditFrameIndex] = f
	} else {
		img.appendFrame(f)
	}
	img.recomputeTotalDuration()

	if res := s.beginTransmission(cmd, img, f); res != nil {
		return res
	}
	if cmd.Medium == MediumDirect && cmd.More {
		return &Result{}
	}
	return s.finishUpload(cmd, img, f, false, false)
}

// lookupImage resolves a command's target image by id first, then number.
func (s *Store) lookupImage(cmd *Command) *Image {
	if cmd.ImageID != 0 {
		return s.getImage(cmd.ImageID)
	}
	if cmd.ImageNumber != 0 {
		return s.findImageByNumber(cmd.ImageNumber)
	}
	return nil
}

package gfx

import (
	"errors"
	"fmt"
)

// ErrKind mirrors the POSIX-like error prefixes the protocol surfaces in
// replies (spec §7).
type ErrKind string

const (
	KindEINVAL ErrKind = "EINVAL"
	KindENOENT ErrKind = "ENOENT"
	KindEBADF  ErrKind = "EBADF"
	KindEIO    ErrKind = "EIO"
	KindEFBIG  ErrKind = "EFBIG"
)

// ProtoError is a typed error carrying the POSIX-like kind reported to the
// client, plus a human message.
type ProtoError struct {
	Kind ErrKind
	Msg  string
}

func (e *ProtoError) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

func errInvalf(format string, args ...any) error {
	return &ProtoError{Kind: KindEINVAL, Msg: fmt.Sprintf(format, args...)}
}

func errNoEnt(msg string) error  { return &ProtoError{Kind: KindENOENT, Msg: msg} }
func errBadFile(msg string) error { return &ProtoError{Kind: KindEBADF, Msg: msg} }
func errIO(msg string) error     { return &ProtoError{Kind: KindEIO, Msg: msg} }
func errTooBig(msg string) error { return &ProtoError{Kind: KindEFBIG, Msg: msg} }

// UploadFailure is the latched reason a frame's upload failed, so that
// continuation chunks after a failure don't re-report noisy errors.
type UploadFailure int

const (
	FailureNone UploadFailure = iota
	FailureOverSizeLimit
	FailureCannotOpenCachedFile
	FailureUnexpectedSize
	FailureCannotCopyFile
)

func (f UploadFailure) String() string {
	switch f {
	case FailureOverSizeLimit:
		return "OVER_SIZE_LIMIT"
	case FailureCannotOpenCachedFile:
		return "CANNOT_OPEN_CACHED_FILE"
	case FailureUnexpectedSize:
		return "UNEXPECTED_SIZE"
	case FailureCannotCopyFile:
		return "CANNOT_COPY_FILE"
	default:
		return "NONE"
	}
}

// Sentinel errors for internal Go APIs (as opposed to protocol replies),
// comparable with errors.Is.
var (
	ErrNotFound             = errors.New("gfx: not found")
	ErrRecursiveBackground  = errors.New("gfx: recursive frame background reference")
	ErrFrameNotUploaded     = errors.New("gfx: frame not uploaded successfully")
	ErrImageInUse           = errors.New("gfx: image has protected frame in flight")
	ErrOversizedBuffer      = errors.New("gfx: scaled buffer exceeds single-image RAM limit")
)

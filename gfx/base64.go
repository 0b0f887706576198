package gfx

import (
	"bytes"
	"encoding/base64"
)

// decodeBase64Payload decodes src, a base64 chunk that may contain embedded
// whitespace (real clients wrap long lines) and may be missing its trailing
// padding (the protocol allows clients to omit it on the final chunk).
// Non-printable and whitespace bytes are stripped before decoding; if the
// stripped length isn't a multiple of 4, '=' padding is appended.
func decodeBase64Payload(src []byte) ([]byte, error) {
	clean := make([]byte, 0, len(src))
	for _, b := range src {
		if b <= ' ' || b == 0x7f {
			continue
		}
		clean = append(clean, b)
	}
	if rem := len(clean) % 4; rem != 0 {
		clean = append(clean, bytes.Repeat([]byte{'='}, 4-rem)...)
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(clean)))
	n, err := base64.StdEncoding.Decode(out, clean)
	if err != nil {
		// Fall back to raw encoding (no padding expected at all) before
		// giving up; some clients send unpadded final chunks that the
		// stripped-and-padded attempt above can still mis-pad.
		out2 := make([]byte, base64.RawStdEncoding.DecodedLen(len(bytes.TrimRight(clean, "="))))
		n2, err2 := base64.RawStdEncoding.Decode(out2, bytes.TrimRight(clean, "="))
		if err2 != nil {
			return nil, err
		}
		return out2[:n2], nil
	}
	return out[:n], nil
}

// base64Writer accumulates base64 text across multiple direct-upload chunks
// and decodes it incrementally, writing raw bytes to an underlying io.Writer
// as soon as full 4-byte groups are available. This keeps memory bounded by
// the chunk size rather than the whole upload.
type base64Writer struct {
	dst     writer
	pending []byte // leftover, not-yet-a-multiple-of-4 base64 text
}

type writer interface {
	Write(p []byte) (int, error)
}

func newBase64Writer(dst writer) *base64Writer {
	return &base64Writer{dst: dst}
}

// Write feeds another chunk of base64 text (possibly containing whitespace).
func (w *base64Writer) Write(p []byte) (int, error) {
	clean := make([]byte, 0, len(w.pending)+len(p))
	clean = append(clean, w.pending...)
	for _, b := range p {
		if b <= ' ' || b == 0x7f {
			continue
		}
		clean = append(clean, b)
	}
	usable := len(clean) - (len(clean) % 4)
	if usable > 0 {
		decoded, err := decodeBase64Payload(clean[:usable])
		if err != nil {
			return 0, err
		}
		if _, err := w.dst.Write(decoded); err != nil {
			return 0, err
		}
	}
	w.pending = append(w.pending[:0], clean[usable:]...)
	return len(p), nil
}

// Flush decodes any remaining partial group, padding as needed, and writes
// it out. Call once after the final chunk (m=0).
func (w *base64Writer) Flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	decoded, err := decodeBase64Payload(w.pending)
	w.pending = nil
	if err != nil {
		return err
	}
	if len(decoded) == 0 {
		return nil
	}
	_, err = w.dst.Write(decoded)
	return err
}

package gfx

import (
	"crypto/rand"
	"crypto/sha1"
	"fmt"
)

// generateImageID produces a 32-bit id for an image that omitted one on the
// wire. The top byte is forced nonzero and at least one middle byte is
// forced nonzero, keeping generated ids well clear of the small-integer
// range the Unicode-placeholder encoding reserves.
func generateImageID() uint32 {
	var b [4]byte
	randomBytes(b[:])
	b[3] |= 0x80 // top byte (big-endian-ish high byte of the uint32) nonzero
	if b[1] == 0 && b[2] == 0 {
		b[1] = 0x01
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// generatePlacementID produces a 24-bit nonzero id for a placement that
// omitted one on the wire.
func generatePlacementID() uint32 {
	var b [4]byte
	randomBytes(b[:3])
	id := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	if id == 0 {
		id = 1
	}
	return id
}

// randomBytes fills b from the system CSPRNG, falling back to a SHA-1 digest
// of an address-derived string if the read fails. The fallback is not
// cryptographically meaningful, only a last-resort source of entropy so the
// store never blocks forever on a starved RNG.
func randomBytes(b []byte) {
	if _, err := rand.Read(b); err == nil {
		return
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%p-%d", b, len(b))))
	copy(b, sum[:])
}

// Package idgen provides cryptographically random ID generation.
package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"io"
	mrand "math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// RequestID generates a version-4 UUID used as a per-request nonce.
// Format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
//
// degraded is true when crypto/rand could not be read and the ID was drawn
// from a time-seeded pseudo-random source instead.
func RequestID() (id string, degraded bool) {
	return RequestIDFrom(rand.Reader)
}

// RequestIDFrom is RequestID with an explicit entropy source.
func RequestIDFrom(r io.Reader) (id string, degraded bool) {
	if r != nil {
		if u, err := uuid.NewRandomFromReader(r); err == nil {
			return u.String(), false
		}
	}
	u, err := uuid.NewRandomFromReader(fallbackReader())
	if err != nil {
		// ChaCha8 never fails to read.
		panic("idgen: fallback source failed: " + err.Error())
	}
	return u.String(), true
}

func fallbackReader() io.Reader {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], uint64(time.Now().UnixNano()))
	return mrand.NewChaCha8(seed)
}

// Hex generates a random hex string of the given byte length.
func Hex(numBytes int) string {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

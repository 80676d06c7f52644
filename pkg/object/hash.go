package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// refHexLen is the hex length of a SHA-1 digest.
const refHexLen = 2 * sha1.Size

// HashBytes computes the SHA-1 of data and returns it as a lowercase
// hex-encoded Ref.
func HashBytes(data []byte) Ref {
	sum := sha1.Sum(data)
	return Ref(hex.EncodeToString(sum[:]))
}

// Hash computes a record's Ref from its canonical ID. Records with equal
// IDs always hash to the same Ref, independent of the compressed form.
func Hash(r Record) (Ref, error) {
	id, err := r.ID()
	if err != nil {
		return "", err
	}
	return HashBytes(id), nil
}

// ParseRef validates a hex ref string.
func ParseRef(s string) (Ref, error) {
	if len(s) != refHexLen {
		return "", fmt.Errorf("invalid ref %q: want %d hex characters", s, refHexLen)
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", fmt.Errorf("invalid ref %q: non-hex character %q", s, c)
		}
	}
	return Ref(s), nil
}

package securestore

import (
	"encoding/base32"
	"strings"
)

// Logical keys are arbitrary caller strings and may contain characters that
// are illegal in file names, or collide on case-insensitive filesystems.
// Keys are therefore mapped to file names through a pure, reversible
// encoding rather than used directly.
//
// The encoding is unpadded base32 of the raw key bytes plus a fixed
// extension. Base32 is chosen over base64url deliberately: its alphabet is
// case-insensitive-safe, so two keys differing only in case can never meet
// in the same directory entry on a case-folding filesystem.

const (
	// keyNameExt marks directory entries that belong to the store. Entries
	// without it (bookkeeping files, temp files) are skipped during
	// enumeration.
	keyNameExt = ".sec"
)

var keyNameEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeKeyName maps a logical key to its file name. The mapping is
// deterministic and collision-free: distinct keys never encode to the same
// name.
func EncodeKeyName(key string) string {
	return keyNameEncoding.EncodeToString([]byte(key)) + keyNameExt
}

// DecodeKeyName maps a file name back to its logical key. Names that were
// not produced by EncodeKeyName return ErrInvalidKeyName.
func DecodeKeyName(name string) (string, error) {
	encoded, ok := strings.CutSuffix(name, keyNameExt)
	if !ok {
		return "", ErrInvalidKeyName
	}
	raw, err := keyNameEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidKeyName
	}
	// Reject aliases of the canonical encoding (e.g. lowercase variants on
	// a case-preserving lookup) so the mapping stays 1:1.
	if keyNameEncoding.EncodeToString(raw) != encoded {
		return "", ErrInvalidKeyName
	}
	return string(raw), nil
}

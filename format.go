package securestore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// On-disk layout of a manually encrypted value:
//
// ┌─────────────────────────────────────┐
// │ Format tag (8 bytes)                │
// ├─────────────────────────────────────┤
// │ Chunk record 0                      │
// │ ├─ Ciphertext length (uint32, BE)   │
// │ ├─ Nonce (12 bytes for GCM)         │
// │ └─ Ciphertext + Auth Tag            │
// ├─────────────────────────────────────┤
// │ Chunk record 1                      │
// │ └─ ...                              │
// └─────────────────────────────────────┘
//
// There is no chunk index: order is structural, given by sequential layout.
// Reordering, corruption, or truncation surfaces as a per-chunk
// authentication failure, never as silently reassembled plaintext.

// FormatTag marks a file as manually encrypted by this store. The value is
// fixed forever: old files must keep decoding, and files written by the
// platform's transparent encryption must never begin with it by accident.
// The non-ASCII lead byte and embedded line-ending bytes make the sequence
// implausible in text and catch most transfer mangling, the same trick the
// PNG signature uses.
var FormatTag = []byte{0x89, 'S', 'S', 'T', '\r', '\n', 0x1a, '\n'}

const (
	// DefaultChunkSize is the default plaintext chunk size (1 MiB). This
	// is the boundary below which the buggy hardware cipher
	// implementations that motivated chunking behave correctly; it is not
	// a tuning knob.
	DefaultChunkSize = 1 << 20

	// MinChunkSize is the minimum allowed chunk size (64 bytes, for
	// testing)
	MinChunkSize = 64
)

// validateChunkSize validates that a chunk size is within acceptable bounds.
func validateChunkSize(size int) error {
	if size < MinChunkSize {
		return fmt.Errorf("chunk size %d below minimum %d", size, MinChunkSize)
	}
	if size > DefaultChunkSize {
		return fmt.Errorf("chunk size %d above maximum %d", size, DefaultChunkSize)
	}
	return nil
}

// hasFormatTag reports whether b begins with the format tag.
func hasFormatTag(b []byte) bool {
	return len(b) >= len(FormatTag) && bytes.Equal(b[:len(FormatTag)], FormatTag)
}

// writeChunkRecord encrypts one plaintext chunk under a fresh nonce and
// appends its record to w.
func writeChunkRecord(w io.Writer, key KeyHandle, chunk []byte) error {
	nonce, err := generateNonce(key)
	if err != nil {
		return err
	}
	ciphertext, err := key.Seal(nonce, chunk)
	if err != nil {
		return err
	}

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(ciphertext)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	if _, err := w.Write(nonce); err != nil {
		return err
	}
	if _, err := w.Write(ciphertext); err != nil {
		return err
	}
	return nil
}

// readChunkRecord reads and authenticates the next chunk record from r.
// A clean end of stream returns io.EOF; a stream that ends inside a record
// returns ErrInvalidRecord.
func readChunkRecord(r io.Reader, key KeyHandle) ([]byte, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: truncated length prefix", ErrInvalidRecord)
	}
	ciphertextLen := binary.BigEndian.Uint32(length[:])

	// An honest record never exceeds one chunk plus AEAD overhead. Reject
	// anything larger before allocating.
	if ciphertextLen > uint32(DefaultChunkSize+key.Overhead()) {
		return nil, fmt.Errorf("%w: ciphertext length %d exceeds chunk bound", ErrInvalidRecord, ciphertextLen)
	}
	if ciphertextLen < uint32(key.Overhead()) {
		return nil, fmt.Errorf("%w: ciphertext length %d below tag size", ErrInvalidRecord, ciphertextLen)
	}

	nonce := make([]byte, key.NonceSize())
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, fmt.Errorf("%w: truncated nonce", ErrInvalidRecord)
	}

	ciphertext := make([]byte, ciphertextLen)
	if _, err := io.ReadFull(r, ciphertext); err != nil {
		return nil, fmt.Errorf("%w: truncated ciphertext", ErrInvalidRecord)
	}

	return key.Open(nonce, ciphertext)
}

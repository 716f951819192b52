package securestore

import (
	"errors"
	"io"
)

// errNoFormatTag signals that a stream does not begin with the format tag,
// so the caller should fall back to reading raw bytes.
var errNoFormatTag = errors.New("stream has no format tag")

// encryptStream encrypts src into dst in chunkSize slices, each sealed
// under a fresh nonce. Peak memory is bounded by the chunk size, not the
// value size. An empty src still emits one explicit empty chunk so the
// format stays self-describing.
func encryptStream(dst io.Writer, src io.Reader, key KeyHandle, chunkSize int) error {
	if _, err := dst.Write(FormatTag); err != nil {
		return err
	}

	buf := make([]byte, chunkSize)
	wroteChunk := false
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if werr := writeChunkRecord(dst, key, buf[:n]); werr != nil {
				return werr
			}
			wroteChunk = true
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if !wroteChunk {
		return writeChunkRecord(dst, key, nil)
	}
	return nil
}

// decryptStream reads a tagged stream from src, authenticates and decrypts
// each chunk record in order, and writes the plaintext to dst. If src does
// not begin with the format tag, errNoFormatTag is returned before
// anything is written to dst.
//
// Any record failing authentication aborts the whole read; dst may have
// received earlier chunks by then, so callers that must not observe
// partial plaintext discard dst on error.
func decryptStream(dst io.Writer, src io.Reader, key KeyHandle) error {
	tag := make([]byte, len(FormatTag))
	if _, err := io.ReadFull(src, tag); err != nil {
		return errNoFormatTag
	}
	if !hasFormatTag(tag) {
		return errNoFormatTag
	}

	records := 0
	for {
		chunk, err := readChunkRecord(src, key)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if _, err := dst.Write(chunk); err != nil {
			return err
		}
		records++
	}

	// A tagged stream always carries at least the explicit empty chunk.
	if records == 0 {
		return ErrInvalidRecord
	}
	return nil
}

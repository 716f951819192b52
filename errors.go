package securestore

import (
	"errors"
	"fmt"
)

// Error types represent the failure categories surfaced by a store.

// ValidationError represents a configuration or parameter validation error
type ValidationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// EncryptionError represents an encryption or decryption failure. A decrypt
// failure means a chunk did not authenticate; no partial plaintext escapes.
// Error detail never includes key material or ciphertext.
type EncryptionError struct {
	Operation string // "encrypt" or "decrypt"
	Key       string // Logical key, if applicable
	ChunkIdx  int    // Chunk index, -1 when not chunk-specific
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *EncryptionError) Error() string {
	if e.Key != "" && e.ChunkIdx >= 0 {
		return fmt.Sprintf("%s error: %s (chunk %d): %s", e.Operation, e.Key, e.ChunkIdx, e.Message)
	} else if e.Key != "" {
		return fmt.Sprintf("%s error: %s: %s", e.Operation, e.Key, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Operation, e.Message)
}

func (e *EncryptionError) Unwrap() error {
	return e.Err
}

// KeyFacilityError represents a failure to create or obtain a key from the
// hardware key facility. It is terminal for the store that hit it: every
// subsequent operation fails without retrying key generation.
type KeyFacilityError struct {
	Alias   string // Facility alias
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *KeyFacilityError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("key facility error: %s: %s", e.Alias, e.Message)
	}
	return fmt.Sprintf("key facility error: %s", e.Message)
}

func (e *KeyFacilityError) Unwrap() error {
	return e.Err
}

// IOError represents a file system I/O error
type IOError struct {
	Operation string // "read", "write", "delete", "list", etc.
	Path      string // File path
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("io error: %s %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("io error: %s: %s", e.Operation, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Common sentinel errors
var (
	// ErrNotFound reports an absent key. Expected during normal operation,
	// never logged as an error.
	ErrNotFound = errors.New("key not found")

	// ErrKeyFacilityUnavailable indicates the hardware key facility could
	// not serve a key at all.
	ErrKeyFacilityUnavailable = errors.New("key facility unavailable")

	// ErrAuthFailed indicates a chunk failed authentication - data may be
	// corrupted or tampered.
	ErrAuthFailed = errors.New("authentication failed - data may be corrupted or tampered")

	// ErrInvalidKeyName reports a file name that does not decode to a
	// logical key. Surfaced only while enumerating; callers skip it.
	ErrInvalidKeyName = errors.New("invalid key name")

	// ErrInvalidUTF8 reports that stored bytes are not valid UTF-8 when
	// read through the text boundary. Distinct from storage failures.
	ErrInvalidUTF8 = errors.New("stored value is not valid UTF-8")

	ErrNilConfig     = errors.New("config cannot be nil")
	ErrStoreClosed   = errors.New("store is closed")
	ErrInvalidNonce  = errors.New("invalid nonce size")
	ErrInvalidRecord = errors.New("invalid chunk record")
)

// Helper functions for creating structured errors

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewEncryptionError creates a new encryption error
func NewEncryptionError(operation, key string, err error) error {
	return &EncryptionError{
		Operation: operation,
		Key:       key,
		ChunkIdx:  -1,
		Message:   err.Error(),
		Err:       err,
	}
}

// NewChunkError creates an encryption error scoped to one chunk
func NewChunkError(operation, key string, chunk int, err error) error {
	return &EncryptionError{
		Operation: operation,
		Key:       key,
		ChunkIdx:  chunk,
		Message:   err.Error(),
		Err:       err,
	}
}

// NewKeyFacilityError creates a new key facility error
func NewKeyFacilityError(alias string, err error) error {
	return &KeyFacilityError{
		Alias:   alias,
		Message: err.Error(),
		Err:     err,
	}
}

// NewIOError creates a new I/O error
func NewIOError(operation, path string, err error) error {
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   err.Error(),
		Err:       err,
	}
}

// Error checking helpers

// IsNotFound checks if an error reports an absent key
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsEncryptionError checks if an error is an encryption error
func IsEncryptionError(err error) bool {
	var ee *EncryptionError
	return errors.As(err, &ee)
}

// IsDecryptionFailed checks if an error is a failed decrypt, tampering
// included
func IsDecryptionFailed(err error) bool {
	var ee *EncryptionError
	if errors.As(err, &ee) {
		return ee.Operation == "decrypt"
	}
	return false
}

// IsKeyFacilityError checks if an error came from the key facility
func IsKeyFacilityError(err error) bool {
	var ke *KeyFacilityError
	return errors.As(err, &ke) || errors.Is(err, ErrKeyFacilityUnavailable)
}

// IsIOError checks if an error is an I/O error
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}

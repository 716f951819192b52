package securestore

import (
	"path"

	"github.com/absfs/absfs"
)

// Mode identifies how values in a store are protected at rest.
type Mode uint8

const (
	// ModeUnresolved means the store has not yet performed its first
	// operation and the encryption mode is still undecided.
	ModeUnresolved Mode = iota
	// ModeAutomatic relies on transparent encryption provided by the
	// underlying storage; values are written as raw bytes.
	ModeAutomatic
	// ModeManual means the store encrypts values itself with a key from
	// the hardware key facility.
	ModeManual
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeUnresolved:
		return "unresolved"
	case ModeAutomatic:
		return "automatic"
	case ModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// CipherSuite represents the AEAD algorithm used by the key facility.
type CipherSuite uint8

const (
	// CipherAuto automatically selects the best cipher for the facility
	CipherAuto CipherSuite = iota
	// CipherAES256GCM uses AES-256 with Galois/Counter Mode
	CipherAES256GCM
	// CipherChaCha20Poly1305 uses ChaCha20 stream cipher with Poly1305 MAC
	CipherChaCha20Poly1305
)

// String returns the string representation of the cipher suite.
func (c CipherSuite) String() string {
	switch c {
	case CipherAuto:
		return "auto"
	case CipherAES256GCM:
		return "aes-256-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// Config contains configuration for a secure store. It is read once by New
// and never consulted again; changing fields after construction has no
// effect on an existing store.
type Config struct {
	// FS is the filesystem holding the store directory.
	FS absfs.FileSystem

	// Dir is the backing directory for this store, created if missing.
	// Every key maps to exactly one file inside it.
	Dir string

	// Namespace identifies the logical store. The key facility alias is
	// derived from it, so stores opened with the same namespace share key
	// material.
	Namespace string

	// EnforceManualEncryption forces ModeManual even when the backing
	// directory is covered by transparent platform encryption.
	EnforceManualEncryption bool

	// PreferStrongIsolation requests the strongest isolation tier the key
	// facility offers (dedicated secure element). Falls back gracefully
	// when unsupported.
	PreferStrongIsolation bool

	// Cipher selects the AEAD suite for manual encryption.
	Cipher CipherSuite

	// ChunkSize bounds the plaintext size of a single cipher operation.
	// Defaults to DefaultChunkSize. Values above the default defeat the
	// purpose of chunking and are rejected.
	ChunkSize int

	// KeyFacility supplies the encryption key. Defaults to a
	// FileKeyFacility rooted in a keystore directory next to the values.
	KeyFacility KeyFacility

	// Prober reports whether a directory is transparently encrypted by
	// the platform. When nil the store assumes it is not and encrypts
	// manually.
	Prober EncryptionProber

	// Logger receives operational log output. Defaults to a noop logger.
	Logger Logger
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.FS == nil {
		return NewValidationError("FS", nil, "filesystem cannot be nil")
	}
	if c.Dir == "" {
		return NewValidationError("Dir", c.Dir, "store directory cannot be empty")
	}
	if c.Namespace == "" {
		return NewValidationError("Namespace", c.Namespace, "namespace cannot be empty")
	}
	if c.Cipher != CipherAuto && c.Cipher != CipherAES256GCM && c.Cipher != CipherChaCha20Poly1305 {
		return NewValidationError("Cipher", c.Cipher, "unsupported cipher suite")
	}
	if c.ChunkSize != 0 {
		if err := validateChunkSize(c.ChunkSize); err != nil {
			return NewValidationError("ChunkSize", c.ChunkSize, err.Error())
		}
	}
	return nil
}

// keystoreDir returns the default key facility directory for this config.
func (c *Config) keystoreDir() string {
	return path.Join(c.Dir, keystoreDirName)
}

// keyAlias derives the facility alias for this store. It is deterministic
// in the namespace so reopening a store reuses the same key material.
func (c *Config) keyAlias() string {
	return "securestore." + c.Namespace
}

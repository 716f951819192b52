package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/absfs/absfs"
	"golang.org/x/crypto/chacha20poly1305"
)

// IsolationTier describes how strongly a key is isolated from the calling
// process.
type IsolationTier uint8

const (
	// TierSoftware holds the key in ordinary process memory.
	TierSoftware IsolationTier = iota
	// TierTrustedEnvironment holds the key in a general trusted execution
	// environment.
	TierTrustedEnvironment
	// TierStrongBox holds the key in a dedicated secure element.
	TierStrongBox
)

// String returns the string representation of the isolation tier.
func (t IsolationTier) String() string {
	switch t {
	case TierSoftware:
		return "software"
	case TierTrustedEnvironment:
		return "trusted-environment"
	case TierStrongBox:
		return "strongbox"
	default:
		return "unknown"
	}
}

// KeyHandle is a reference to a key living inside a key facility. The
// handle performs AEAD operations on the caller's behalf; the raw key bits
// are never exposed through it.
type KeyHandle interface {
	// Alias returns the facility alias this handle was obtained for.
	Alias() string

	// Tier returns the isolation tier actually granted.
	Tier() IsolationTier

	// Seal encrypts and authenticates plaintext with the given nonce.
	Seal(nonce, plaintext []byte) ([]byte, error)

	// Open authenticates and decrypts ciphertext with the given nonce.
	Open(nonce, ciphertext []byte) ([]byte, error)

	// NonceSize returns the size of nonces in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size.
	Overhead() int
}

// KeyFacility creates and serves non-exportable symmetric keys. A facility
// must hand back the same key material for the same alias across calls and
// across restarts.
type KeyFacility interface {
	// GetOrCreateKey returns a handle to the key stored under alias,
	// generating it on first use. preferStrongIsolation requests the
	// strongest tier the facility supports; the granted tier may be
	// lower. Failures are reported as *KeyFacilityError - there is no
	// silent fallback to a weaker key.
	GetOrCreateKey(alias string, preferStrongIsolation bool) (KeyHandle, error)
}

const (
	// keystoreDirName is where the default facility keeps key files,
	// inside the store directory. The file store skips it during
	// enumeration.
	keystoreDirName = ".keystore"

	// facilityKeySize is the symmetric key size in bytes (256-bit).
	facilityKeySize = 32

	keyFileExt = ".key"
)

// aeadKeyHandle implements KeyHandle on top of a cipher.AEAD constructed
// inside the facility.
type aeadKeyHandle struct {
	alias string
	tier  IsolationTier
	aead  cipher.AEAD
}

func (h *aeadKeyHandle) Alias() string       { return h.alias }
func (h *aeadKeyHandle) Tier() IsolationTier { return h.tier }

func (h *aeadKeyHandle) Seal(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != h.aead.NonceSize() {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidNonce, h.aead.NonceSize(), len(nonce))
	}
	return h.aead.Seal(nil, nonce, plaintext, nil), nil
}

func (h *aeadKeyHandle) Open(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != h.aead.NonceSize() {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidNonce, h.aead.NonceSize(), len(nonce))
	}
	plaintext, err := h.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func (h *aeadKeyHandle) NonceSize() int { return h.aead.NonceSize() }
func (h *aeadKeyHandle) Overhead() int  { return h.aead.Overhead() }

// newAEAD constructs the AEAD for a cipher suite and key.
func newAEAD(suite CipherSuite, key []byte) (cipher.AEAD, error) {
	if len(key) != facilityKeySize {
		return nil, fmt.Errorf("suite %s requires a %d-byte key, got %d bytes", suite, facilityKeySize, len(key))
	}
	switch suite {
	case CipherChaCha20Poly1305:
		return chacha20poly1305.New(key)
	case CipherAES256GCM, CipherAuto:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		return cipher.NewGCM(block)
	default:
		return nil, fmt.Errorf("unsupported cipher suite: %s", suite)
	}
}

// generateNonce returns a fresh random nonce for the handle. Nonce
// uniqueness rests on random generation, never on a counter that would have
// to survive restarts.
func generateNonce(h KeyHandle) ([]byte, error) {
	nonce := make([]byte, h.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// FileKeyFacility is a KeyFacility backed by a keystore directory on an
// AbsFs filesystem. Key files are generated lazily, stored with owner-only
// permissions, and only ever leave the facility as AEAD operations on a
// KeyHandle.
//
// The facility models a general trusted execution environment: a StrongBox
// request is honored by falling back to TierTrustedEnvironment rather than
// failing.
type FileKeyFacility struct {
	fs    absfs.FileSystem
	dir   string
	suite CipherSuite

	mu      sync.Mutex
	handles map[string]KeyHandle
}

// NewFileKeyFacility creates a facility rooted at dir, creating the
// directory if needed.
func NewFileKeyFacility(fs absfs.FileSystem, dir string, suite CipherSuite) (*FileKeyFacility, error) {
	if fs == nil {
		return nil, NewValidationError("fs", nil, "filesystem cannot be nil")
	}
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, NewKeyFacilityError("", fmt.Errorf("%w: cannot create keystore: %v", ErrKeyFacilityUnavailable, err))
	}
	return &FileKeyFacility{
		fs:      fs,
		dir:     dir,
		suite:   suite,
		handles: make(map[string]KeyHandle),
	}, nil
}

// GetOrCreateKey implements KeyFacility.
func (f *FileKeyFacility) GetOrCreateKey(alias string, preferStrongIsolation bool) (KeyHandle, error) {
	if alias == "" {
		return nil, NewKeyFacilityError(alias, fmt.Errorf("alias cannot be empty"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.handles[alias]; ok {
		return h, nil
	}

	key, err := f.loadOrGenerate(alias)
	if err != nil {
		return nil, err
	}
	aead, err := newAEAD(f.suite, key)
	if err != nil {
		return nil, NewKeyFacilityError(alias, err)
	}

	// StrongBox is requested but not guaranteed; this facility tops out at
	// the trusted-environment tier.
	h := &aeadKeyHandle{alias: alias, tier: TierTrustedEnvironment, aead: aead}
	f.handles[alias] = h
	return h, nil
}

func (f *FileKeyFacility) keyPath(alias string) string {
	return path.Join(f.dir, keyNameEncoding.EncodeToString([]byte(alias))+keyFileExt)
}

func (f *FileKeyFacility) loadOrGenerate(alias string) ([]byte, error) {
	keyPath := f.keyPath(alias)

	key, err := readFileAll(f.fs, keyPath)
	if err == nil {
		if len(key) != facilityKeySize {
			return nil, NewKeyFacilityError(alias, fmt.Errorf("keystore entry has wrong size: %d bytes", len(key)))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, NewKeyFacilityError(alias, fmt.Errorf("%w: %v", ErrKeyFacilityUnavailable, err))
	}

	// First use for this alias: generate inside the facility boundary.
	key = make([]byte, facilityKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, NewKeyFacilityError(alias, fmt.Errorf("failed to generate key: %w", err))
	}
	if err := writeFileAtomic(f.fs, f.dir, path.Base(keyPath), key, 0600); err != nil {
		return nil, NewKeyFacilityError(alias, fmt.Errorf("%w: cannot persist key: %v", ErrKeyFacilityUnavailable, err))
	}
	return key, nil
}

// MemoryKeyFacility is an in-memory KeyFacility. Keys do not survive the
// process; intended for tests and ephemeral stores.
type MemoryKeyFacility struct {
	// StrongBox grants TierStrongBox when a caller prefers strong
	// isolation.
	StrongBox bool

	suite CipherSuite

	mu   sync.Mutex
	keys map[string][]byte
}

// NewMemoryKeyFacility creates an empty in-memory facility.
func NewMemoryKeyFacility(suite CipherSuite) *MemoryKeyFacility {
	return &MemoryKeyFacility{
		suite: suite,
		keys:  make(map[string][]byte),
	}
}

// GetOrCreateKey implements KeyFacility.
func (m *MemoryKeyFacility) GetOrCreateKey(alias string, preferStrongIsolation bool) (KeyHandle, error) {
	if alias == "" {
		return nil, NewKeyFacilityError(alias, fmt.Errorf("alias cannot be empty"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.keys[alias]
	if !ok {
		key = make([]byte, facilityKeySize)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, NewKeyFacilityError(alias, fmt.Errorf("failed to generate key: %w", err))
		}
		m.keys[alias] = key
	}

	aead, err := newAEAD(m.suite, key)
	if err != nil {
		return nil, NewKeyFacilityError(alias, err)
	}

	tier := TierSoftware
	if preferStrongIsolation && m.StrongBox {
		tier = TierStrongBox
	}
	return &aeadKeyHandle{alias: alias, tier: tier, aead: aead}, nil
}

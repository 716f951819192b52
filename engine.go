package securestore

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// Engine is the secure storage orchestrator: a handle to one logical store.
//
// An Engine starts with its encryption mode unresolved. The first operation
// resolves it - explicit override, then platform probe - and the result is
// cached for the Engine's lifetime; configuration changes after that point
// have no effect. If the key facility never yields a key, the Engine fails
// terminally: every subsequent operation returns the same facility error
// without retrying key generation.
//
// All operations on one Engine are serialized through a single mutex.
// Distinct Engines (distinct directories) are independent.
type Engine struct {
	cfg       Config
	store     *fileStore
	logger    Logger
	chunkSize int

	mu       sync.Mutex
	mode     Mode
	facility KeyFacility
	key      KeyHandle
	fatalErr error
}

// New creates an Engine for the given configuration. The configuration is
// copied and validated once; the backing directory is created if missing.
func New(config *Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg := *config

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	store, err := newFileStore(cfg.FS, cfg.Dir)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		chunkSize: chunkSize,
		mode:      ModeUnresolved,
		facility:  cfg.KeyFacility,
	}, nil
}

// Put stores value under key, fully replacing any prior value. The new
// value is written to a temp file and renamed into place, so a concurrent
// crash never leaves a mixed or partial value behind.
func (e *Engine) Put(key string, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureResolved(); err != nil {
		return err
	}

	name := EncodeKeyName(key)
	if e.mode == ModeManual {
		err := e.store.write(name, func(w io.Writer) error {
			if err := encryptStream(w, bytes.NewReader(value), e.key, e.chunkSize); err != nil {
				return NewEncryptionError("encrypt", key, err)
			}
			return nil
		})
		if err != nil {
			e.logger.Errorf("put %q failed: %v", key, err)
			return err
		}
	} else {
		err := e.store.write(name, func(w io.Writer) error {
			_, werr := w.Write(value)
			return werr
		})
		if err != nil {
			e.logger.Errorf("put %q failed: %v", key, err)
			return err
		}
	}

	e.logger.Debugf("put %q (%d bytes, mode %s)", key, len(value), e.mode)
	return nil
}

// Get returns the value stored under key, or ErrNotFound. The on-disk
// format is auto-detected: a file starting with the format tag is
// decrypted, anything else is returned as raw bytes regardless of the
// store's current mode. A chunk failing authentication aborts the read
// with a decrypt error; partial plaintext is never returned.
func (e *Engine) Get(key string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureResolved(); err != nil {
		return nil, err
	}

	f, err := e.store.open(EncodeKeyName(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(len(FormatTag))
	if err != nil && err != io.EOF {
		return nil, NewIOError("read", key, err)
	}

	if !hasFormatTag(head) {
		raw, err := io.ReadAll(br)
		if err != nil {
			return nil, NewIOError("read", key, err)
		}
		return raw, nil
	}

	handle, err := e.keyHandle()
	if err != nil {
		return nil, err
	}
	var plaintext bytes.Buffer
	if err := decryptStream(&plaintext, br, handle); err != nil {
		e.logger.Warnf("get %q failed to decrypt: %v", key, err)
		return nil, NewEncryptionError("decrypt", key, err)
	}
	return plaintext.Bytes(), nil
}

// Remove deletes the value stored under key. Removing an absent key is
// success.
func (e *Engine) Remove(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureResolved(); err != nil {
		return err
	}
	return e.store.delete(EncodeKeyName(key))
}

// Clear deletes every value in the store. Idempotent on an empty store.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureResolved(); err != nil {
		return err
	}
	return e.store.deleteAll()
}

// Keys returns the set of logical keys currently stored. Order carries no
// meaning.
func (e *Engine) Keys() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureResolved(); err != nil {
		return nil, err
	}
	return e.store.list()
}

// Mode returns the store's resolved encryption mode, or ModeUnresolved
// before the first operation.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// ensureResolved performs the one-time Unresolved -> Resolved transition.
// Callers hold e.mu.
func (e *Engine) ensureResolved() error {
	if e.fatalErr != nil {
		return e.fatalErr
	}
	if e.mode != ModeUnresolved {
		return nil
	}

	e.mode = resolveMode(&e.cfg, e.logger)
	e.logger.Infof("store %q: encryption mode %s", e.cfg.Namespace, e.mode)

	if e.mode == ModeManual {
		if _, err := e.keyHandle(); err != nil {
			return err
		}
	}
	return nil
}

// keyHandle lazily obtains the store's key from the facility. Automatic
// stores also end up here when they read back a file that an earlier
// manual-mode run encrypted. A facility failure is latched: the store is
// done, and no later operation regenerates the key. Callers hold e.mu.
func (e *Engine) keyHandle() (KeyHandle, error) {
	if e.fatalErr != nil {
		return nil, e.fatalErr
	}
	if e.key != nil {
		return e.key, nil
	}

	if e.facility == nil {
		facility, err := NewFileKeyFacility(e.cfg.FS, e.cfg.keystoreDir(), e.cfg.Cipher)
		if err != nil {
			e.fatalErr = err
			e.logger.Errorf("store %q: key facility unavailable: %v", e.cfg.Namespace, err)
			return nil, err
		}
		e.facility = facility
	}

	handle, err := e.facility.GetOrCreateKey(e.cfg.keyAlias(), e.cfg.PreferStrongIsolation)
	if err != nil {
		if !IsKeyFacilityError(err) {
			err = NewKeyFacilityError(e.cfg.keyAlias(), err)
		}
		e.fatalErr = err
		e.logger.Errorf("store %q: key facility unavailable: %v", e.cfg.Namespace, err)
		return nil, err
	}

	e.key = handle
	e.logger.Debugf("store %q: obtained key (tier %s)", e.cfg.Namespace, handle.Tier())
	return handle, nil
}

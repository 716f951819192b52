// Package securestore provides an encrypted key-value file store for
// at-rest secrets, built on the AbsFs filesystem abstraction.
//
// # Overview
//
// securestore persists opaque byte values under caller-chosen string keys,
// one file per key inside a dedicated directory. Each store resolves, once,
// whether the backing directory is already covered by transparent platform
// encryption (Automatic mode) or whether the store must encrypt values
// itself (Manual mode). In Manual mode values are encrypted in bounded-size
// chunks under a key held by a hardware-isolated key facility, because some
// secure cipher implementations corrupt large single-shot operations.
//
// Manually encrypted files start with a fixed format tag, so reads
// auto-detect the on-disk format without external metadata: a file without
// the tag is returned as raw bytes regardless of the store's current mode.
//
// # Basic Usage
//
//	fs, _ := securestore.NewDirFS("/var/lib/myapp")
//
//	store, err := securestore.New(&securestore.Config{
//	    FS:        fs,
//	    Dir:       "secrets",
//	    Namespace: "myapp",
//	})
//	if err != nil {
//	    panic(err)
//	}
//
//	store.Put("api-token", []byte("s3cret"))
//	value, _ := store.Get("api-token")
//
// # Guarantees
//
//   - Writes are crash-consistent: a value is replaced atomically, and a
//     reader never observes a partially written file.
//   - Operations on one store are serialized; distinct stores are
//     independent and may run concurrently.
//   - Key material never enters process memory outside the key facility;
//     values are encrypted and decrypted through the facility's own AEAD
//     operations.
//   - A chunk failing authentication aborts the read. Partial plaintext is
//     never returned.
//
// # Supported Cipher Suites
//
//   - AES-256-GCM: Advanced Encryption Standard with 256-bit keys and
//     Galois/Counter Mode for authenticated encryption
//   - ChaCha20-Poly1305: Modern stream cipher with Poly1305 message
//     authentication
//
// # File Format
//
// Manually encrypted files use the following format:
//   - Format tag (8 bytes): fixed magic sequence
//   - Chunk records, one per chunk of plaintext:
//   - Ciphertext length (4 bytes, big-endian)
//   - Nonce (cipher-dependent, 12 bytes for GCM)
//   - Ciphertext + authentication tag
//
// An empty value still carries one explicit empty chunk, so the format is
// self-describing. Chunk order is structural: records are laid out
// sequentially and corruption or truncation is caught by per-chunk
// authentication, never silently tolerated.
//
// # Not Protected Against
//
//   - Memory dumps while values are decrypted in memory
//   - Side-channel attacks (timing, cache)
//   - Compromised systems with keyloggers or malware
//   - Metadata leakage (key count, value sizes, access patterns)
package securestore

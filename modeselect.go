package securestore

// EncryptionProber reports whether a directory sits on storage already
// covered by the platform's transparent at-rest encryption. When it does,
// the store skips its own encryption to avoid paying for it twice.
type EncryptionProber interface {
	TransparentlyEncrypted(dir string) (bool, error)
}

// ProberFunc adapts a function to the EncryptionProber interface.
type ProberFunc func(dir string) (bool, error)

// TransparentlyEncrypted implements EncryptionProber.
func (f ProberFunc) TransparentlyEncrypted(dir string) (bool, error) {
	return f(dir)
}

// resolveMode decides the encryption mode for a store. It runs exactly once
// per store, on the first operation; the result is cached for the store's
// lifetime.
//
// The decision has no observable error: an explicit override wins, a
// positive probe yields ModeAutomatic, and everything else - no prober, a
// negative probe, or a probe failure - conservatively yields ModeManual.
func resolveMode(cfg *Config, logger Logger) Mode {
	if cfg.EnforceManualEncryption {
		return ModeManual
	}
	if cfg.Prober == nil {
		return ModeManual
	}
	encrypted, err := cfg.Prober.TransparentlyEncrypted(cfg.Dir)
	if err != nil {
		logger.Debugf("encryption probe failed for %s, assuming unencrypted: %v", cfg.Dir, err)
		return ModeManual
	}
	if encrypted {
		return ModeAutomatic
	}
	return ModeManual
}

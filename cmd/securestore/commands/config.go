package commands

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/absfs/securestore"
)

// fileConfig is the on-disk TOML configuration. Every field has a matching
// persistent flag; flags set on the command line win over the file.
type fileConfig struct {
	Directory       string `toml:"directory"`
	Namespace       string `toml:"namespace"`
	EnforceManual   bool   `toml:"enforce_manual"`
	PreferStrongbox bool   `toml:"prefer_strongbox"`
	Cipher          string `toml:"cipher"`
}

func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{Namespace: "default"}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func (c *fileConfig) applyFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("dir") {
		c.Directory = dir
	}
	if cmd.Flags().Changed("namespace") {
		c.Namespace = namespace
	}
	if cmd.Flags().Changed("enforce-manual") {
		c.EnforceManual = enforce
	}
	if cmd.Flags().Changed("strongbox") {
		c.PreferStrongbox = strongbox
	}
	if cmd.Flags().Changed("cipher") {
		c.Cipher = cipherName
	}
}

func (c *fileConfig) cipherSuite() securestore.CipherSuite {
	switch c.Cipher {
	case "aes-256-gcm":
		return securestore.CipherAES256GCM
	case "chacha20-poly1305":
		return securestore.CipherChaCha20Poly1305
	default:
		return securestore.CipherAuto
	}
}

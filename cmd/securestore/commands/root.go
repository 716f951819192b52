package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/absfs/securestore"
)

var (
	configPath string
	dir        string
	namespace  string
	enforce    bool
	strongbox  bool
	cipherName string
	verbose    bool

	store *securestore.TextStore
)

func Execute() error {
	root := &cobra.Command{
		Use:   "securestore",
		Short: "Encrypted key-value store for small secrets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			cfg.applyFlags(cmd)

			if cfg.Directory == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfg.Directory = filepath.Join(home, ".securestore")
			}

			fs, err := securestore.NewDirFS(cfg.Directory)
			if err != nil {
				return err
			}

			var logger securestore.Logger
			if verbose {
				logger = securestore.NewLogger(5) // debug
			}

			engine, err := securestore.New(&securestore.Config{
				FS:                      fs,
				Dir:                     "/",
				Namespace:               cfg.Namespace,
				EnforceManualEncryption: cfg.EnforceManual,
				PreferStrongIsolation:   cfg.PreferStrongbox,
				Cipher:                  cfg.cipherSuite(),
				Logger:                  logger,
			})
			if err != nil {
				return err
			}
			store = securestore.NewTextStore(engine)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (TOML)")
	root.PersistentFlags().StringVarP(&dir, "dir", "d", "", "store directory (default ~/.securestore)")
	root.PersistentFlags().StringVarP(&namespace, "namespace", "n", "default", "store namespace")
	root.PersistentFlags().BoolVar(&enforce, "enforce-manual", false, "always self-encrypt, even on encrypted volumes")
	root.PersistentFlags().BoolVar(&strongbox, "strongbox", false, "prefer the strongest key isolation available")
	root.PersistentFlags().StringVar(&cipherName, "cipher", "", "cipher suite (aes-256-gcm or chacha20-poly1305)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(putCmd(), getCmd(), removeCmd(), clearCmd(), keysCmd())
	return root.Execute()
}

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> [value]",
		Short: "Store a value under a key",
		Long:  "Store a value under a key. With no value argument the value is read from stdin.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				value = string(data)
			}
			if err := store.Put(args[0], value); err != nil {
				return err
			}
			fmt.Printf("Stored %q.\n", args[0])
			return nil
		},
	}
}

package cli

import (
	"encoding/base64"
	"fmt"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"

	"github.com/example/bookinghub/internal/auth"
)

func newKeysCmd() *cobra.Command {
	var hashOnly string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate session keys and an API key with its bcrypt hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if hashOnly != "" {
				h, err := auth.HashKey(hashOnly)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "export API_KEY_BCRYPT='%s'\n", h)
				return nil
			}

			hash := securecookie.GenerateRandomKey(32)
			block := securecookie.GenerateRandomKey(32)
			if hash == nil || block == nil {
				return fmt.Errorf("could not read random bytes")
			}
			key, err := auth.GenerateKey()
			if err != nil {
				return err
			}
			h, err := auth.HashKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "export SESSION_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(out, "export SESSION_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))
			fmt.Fprintf(out, "export API_KEY_BCRYPT='%s'\n", h)
			fmt.Fprintf(out, "# API key (give to clients, not stored): %s\n", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&hashOnly, "hash", "", "print only the bcrypt hash of this API key")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookinghub %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}

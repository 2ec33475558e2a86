package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/bookinghub/internal/application/usecases"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping <provider>",
		Short: "Check that a provider adapter is configured and reachable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			c, err := a.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()
			name, err := usecases.PingProvider{Providers: c.Providers()}.Execute(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
			return nil
		},
	}
}

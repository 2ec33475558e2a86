package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/logger"
	"github.com/example/bookinghub/internal/migrate"
	"github.com/example/bookinghub/internal/venues"
)

func newVenuesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venues",
		Short: "Query and seed the venue registry",
	}

	var category, city string
	list := &cobra.Command{
		Use:   "list",
		Short: "List venues",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			res, err := c.Service().ListVenues(cmd.Context(), category, city)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	list.Flags().StringVar(&category, "category", "", "venue category")
	list.Flags().StringVar(&city, "city", "", "city (case-insensitive)")

	show := &cobra.Command{
		Use:   "show <venue_id>",
		Short: "Show a venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			v, err := c.Service().GetVenueDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		},
	}

	find := &cobra.Command{
		Use:   "find <domain>",
		Short: "Find a venue by website domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			v, err := c.Service().FindVenueByDomain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		},
	}

	var file string
	var migrateUp bool
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load venues into the registry (built-in list unless --file is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				vs  []reservation.Venue
				err error
			)
			if file != "" {
				b, rerr := os.ReadFile(file)
				if rerr != nil {
					return rerr
				}
				vs, err = venues.ParseSeed(b)
			} else {
				vs, err = venues.SeedVenues()
			}
			if err != nil {
				return err
			}

			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			if c.DB() == nil {
				logger.Named("venues").Warn("DATABASE_URL unset: seeding the in-memory registry has no lasting effect")
			} else if migrateUp {
				if _, err := migrate.Up(cmd.Context(), c.DB()); err != nil {
					return err
				}
			}
			n, err := c.Venues().Seed(cmd.Context(), vs)
			if err != nil {
				return err
			}
			total, err := c.Venues().Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d venues (%d in registry)\n", n, total)
			return nil
		},
	}
	seed.Flags().StringVar(&file, "file", "", "YAML file with a top-level venues list")
	seed.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations first")

	var provider string
	byProvider := &cobra.Command{
		Use:   "by-provider <provider>",
		Short: "List venues mapped to a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider = args[0]
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			vs, err := c.Venues().ListByProvider(cmd.Context(), provider)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"count": len(vs), "provider": provider, "venues": vs})
		},
	}

	cmd.AddCommand(list, show, find, seed, byProvider)
	return cmd
}

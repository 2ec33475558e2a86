package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/bookinghub/internal/application/dispatch"
	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/ledger"
)

// parseParams turns key=value pairs into a parameter map. Integer literals
// become ints so they pass integer schema checks.
func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", p)
		}
		if n, err := strconv.Atoi(v); err == nil {
			out[k] = n
			continue
		}
		out[k] = v
	}
	return out, nil
}

func newFiltersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filters <category> [operation]",
		Short: "Show the parameters a category expects for an operation",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := "search"
			if len(args) == 2 {
				op = args[1]
			}
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			res, err := c.Service().GetFilters(cmd.Context(), args[0], op)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var req dispatch.SearchRequest
	var filters []string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search venues in a city",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(filters) > 0 {
				req.Filters = map[string]string{}
				for _, f := range filters {
					k, v, ok := strings.Cut(f, "=")
					if !ok {
						return fmt.Errorf("invalid filter %q, want key=value", f)
					}
					req.Filters[k] = v
				}
			}
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			res, err := c.Service().Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&req.Category, "category", "restaurant", "venue category")
	cmd.Flags().StringVar(&req.City, "city", "", "city to search")
	cmd.Flags().StringVar(&req.Date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&req.PartySize, "party-size", 2, "number of guests")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "search filter key=value (repeatable)")
	return cmd
}

func newAvailabilityCmd(a *app) *cobra.Command {
	var category string
	var params []string

	cmd := &cobra.Command{
		Use:   "availability <venue_id>",
		Short: "List time slots for a venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			res, err := c.Service().CheckAvailability(cmd.Context(), dispatch.AvailabilityRequest{
				VenueID: args[0], Category: category, Params: p,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&category, "category", "restaurant", "venue category")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter key=value (repeatable)")
	return cmd
}

func newBookCmd(a *app) *cobra.Command {
	var req dispatch.BookRequest
	var params []string

	cmd := &cobra.Command{
		Use:   "book <venue_id>",
		Short: "Book a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			req.VenueID, req.Params = args[0], p
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			b, err := c.Service().Book(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	}
	cmd.Flags().StringVar(&req.Category, "category", "restaurant", "venue category")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter key=value (repeatable)")
	cmd.Flags().StringVar(&req.CustomerName, "name", "", "customer full name")
	cmd.Flags().StringVar(&req.CustomerEmail, "email", "", "customer email")
	cmd.Flags().StringVar(&req.CustomerPhone, "phone", "", "customer phone with country code")
	return cmd
}

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <booking_id>",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			res, err := c.Service().Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newBookingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booking",
		Short: "Inspect the booking ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <booking_id>",
		Short: "Show a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			res, err := c.Service().GetBookingStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	var f ledger.Filter
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = reservation.BookingStatus(status)
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			return printJSON(cmd, c.Service().ListBookings(cmd.Context(), f))
		},
	}
	list.Flags().StringVar(&f.CustomerEmail, "email", "", "customer email")
	list.Flags().StringVar(&f.VenueID, "venue", "", "venue id")
	list.Flags().StringVar(&status, "status", "", "booking status")
	cmd.AddCommand(list)

	return cmd
}

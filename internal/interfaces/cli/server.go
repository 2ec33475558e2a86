package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/bookinghub/internal/logger"
	"github.com/example/bookinghub/internal/migrate"
	"github.com/example/bookinghub/internal/obs"
)

func newServerCmd(a *app) *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Named("server")
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			shutdownTracer, err := obs.InitTracer(ctx, "bookinghub", Version, a.cfg.OTLPEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				sctx, c := context.WithTimeout(context.Background(), 5*time.Second)
				defer c()
				if err := shutdownTracer(sctx); err != nil {
					log.WithError(err).Warn("tracer shutdown")
				}
			}()

			c, err := a.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			if d := c.DB(); d != nil {
				if err := d.Ping(ctx); err != nil {
					return err
				}
				if migrateUp {
					applied, err := migrate.Up(ctx, d)
					if err != nil {
						return err
					}
					log.WithField("applied", applied).Info("migrations done")
				}
			} else {
				log.Info("DATABASE_URL unset: using in-memory registry and ledger")
			}

			srv := c.Web().HTTPServer()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return c.Monitor().Run(gctx) })
			g.Go(func() error {
				log.WithField("addr", srv.Addr).Info("listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, c := context.WithTimeout(context.Background(), 10*time.Second)
				defer c()
				return srv.Shutdown(sctx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}

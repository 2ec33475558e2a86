// Package container wires the booking services using go.uber.org/dig.
package container

import (
	"context"
	"fmt"

	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"

	"github.com/example/bookinghub/internal/application/dispatch"
	"github.com/example/bookinghub/internal/application/providers"
	"github.com/example/bookinghub/internal/auth"
	"github.com/example/bookinghub/internal/config"
	"github.com/example/bookinghub/internal/db"
	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/infrastructure/demo"
	"github.com/example/bookinghub/internal/infrastructure/events"
	"github.com/example/bookinghub/internal/infrastructure/memory"
	"github.com/example/bookinghub/internal/infrastructure/opentable"
	"github.com/example/bookinghub/internal/infrastructure/postgres"
	"github.com/example/bookinghub/internal/infrastructure/resy"
	"github.com/example/bookinghub/internal/interfaces/web"
	"github.com/example/bookinghub/internal/ledger"
	"github.com/example/bookinghub/internal/scheduler"
	"github.com/example/bookinghub/internal/venues"
)

// Container holds the resolved service singletons.
type Container struct {
	db        *db.DB
	venues    *venues.Registry
	ledger    *ledger.Ledger
	providers *providers.Registry
	events    events.Publisher
	service   *dispatch.Service
	web       *web.Server
	monitor   *scheduler.Scheduler
}

func (c *Container) DB() *db.DB                     { return c.db }
func (c *Container) Venues() *venues.Registry       { return c.venues }
func (c *Container) Ledger() *ledger.Ledger         { return c.ledger }
func (c *Container) Providers() *providers.Registry { return c.providers }
func (c *Container) Service() *dispatch.Service     { return c.service }
func (c *Container) Web() *web.Server               { return c.web }
func (c *Container) Monitor() *scheduler.Scheduler  { return c.monitor }

// Close releases the broker connection and the pool.
func (c *Container) Close() {
	if c.events != nil {
		_ = c.events.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}

// database wraps the optional pool; nil means in-memory stores.
type database struct{ *db.DB }

// New builds every service from cfg. Without DATABASE_URL the registry and
// ledger run in memory, the registry seeded from the embedded venue list.
func New(ctx context.Context, cfg config.Config, log *logrus.Logger) (*Container, error) {
	d := dig.New()

	constructors := []any{
		func() context.Context { return ctx },
		func() config.Config { return cfg },
		func() logrus.FieldLogger { return log },
		newDatabase,
		newVenueStore,
		newBookingStore,
		newVenueRegistry,
		newLedger,
		newProviders,
		newEvents,
		newMonitor,
		newService,
		newWebServer,
	}
	for _, c := range constructors {
		if err := d.Provide(c); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		dbw database,
		reg *venues.Registry,
		l *ledger.Ledger,
		p *providers.Registry,
		ev events.Publisher,
		svc *dispatch.Service,
		srv *web.Server,
		mon *scheduler.Scheduler,
	) {
		result = &Container{db: dbw.DB, venues: reg, ledger: l, providers: p, events: ev, service: svc, web: srv, monitor: mon}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return result, nil
}

func newDatabase(ctx context.Context, cfg config.Config) (database, error) {
	if !cfg.UsesDatabase() {
		return database{}, nil
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return database{}, fmt.Errorf("open database: %w", err)
	}
	return database{d}, nil
}

func newVenueStore(dbw database) (venues.Store, error) {
	if dbw.DB != nil {
		return postgres.NewVenueStore(dbw.DB), nil
	}
	seed, err := venues.SeedVenues()
	if err != nil {
		return nil, err
	}
	return memory.NewVenueStore(seed...), nil
}

func newBookingStore(dbw database) ledger.Store {
	if dbw.DB != nil {
		return postgres.NewBookingStore(dbw.DB)
	}
	return memory.NewBookingStore()
}

func newVenueRegistry(store venues.Store, log logrus.FieldLogger) *venues.Registry {
	return venues.NewRegistry(store, log.WithField("component", "venues"))
}

func newLedger(store ledger.Store, log logrus.FieldLogger) *ledger.Ledger {
	return ledger.New(store, log.WithField("component", "ledger"))
}

func newProviders(cfg config.Config, reg *venues.Registry) *providers.Registry {
	p := providers.NewRegistry(cfg.DefaultProvider)
	p.Register(demo.ProviderName, func() (reservation.Adapter, error) {
		return demo.New(), nil
	})
	p.Register(opentable.ProviderName, func() (reservation.Adapter, error) {
		return opentable.New(opentable.Config{
			Token:                cfg.OpenTableToken,
			PersistedQuerySHA256: cfg.OpenTablePQHash,
			BaseURL:              cfg.OpenTableBaseURL,
			RestaurantID:         externalID(reg),
		}), nil
	})
	p.Register(resy.ProviderName, func() (reservation.Adapter, error) {
		return resy.New(resy.Config{
			APIKey:    cfg.ResyAPIKey,
			AuthToken: cfg.ResyAuthToken,
			BaseURL:   cfg.ResyBaseURL,
			VenueID:   externalID(reg),
		}), nil
	})
	return p
}

// externalID resolves a registry venue id to the provider's own id.
func externalID(reg *venues.Registry) func(ctx context.Context, venueID string) string {
	return func(ctx context.Context, venueID string) string {
		v, ok, err := reg.Lookup(ctx, venueID)
		if err != nil || !ok {
			return ""
		}
		return v.ExternalID
	}
}

// newEvents falls back to dropping events when the broker is unset or
// unreachable at startup.
func newEvents(cfg config.Config, log logrus.FieldLogger) events.Publisher {
	if cfg.RabbitURL == "" {
		return events.Noop{}
	}
	p, err := events.NewAMQP(cfg.RabbitURL, cfg.EventsExchange)
	if err != nil {
		log.WithError(err).Warn("booking events disabled")
		return events.Noop{}
	}
	return p
}

func newService(reg *venues.Registry, l *ledger.Ledger, p *providers.Registry, ev events.Publisher, log logrus.FieldLogger) *dispatch.Service {
	return dispatch.New(dispatch.Deps{
		Venues:    reg,
		Ledger:    l,
		Providers: p,
		Events:    ev,
		Log:       log.WithField("component", "dispatch"),
	})
}

func newMonitor(cfg config.Config, p *providers.Registry, log logrus.FieldLogger) *scheduler.Scheduler {
	return scheduler.New(p, cfg.ProviderHealthInterval, log.WithField("component", "scheduler"))
}

func newWebServer(cfg config.Config, svc *dispatch.Service, dbw database, mon *scheduler.Scheduler, log logrus.FieldLogger) (*web.Server, error) {
	keys, err := auth.NewVerifier(cfg.APIKeyBcrypt)
	if err != nil {
		return nil, err
	}
	if !keys.Enabled() && !cfg.DevMode {
		log.Warn("API_KEY_BCRYPT is empty: /v1 endpoints are unauthenticated")
	}

	hashKey, blockKey := cfg.SessionHashKey, cfg.SessionBlockKey
	if len(hashKey) == 0 {
		log.Warn("SESSION_HASH_KEY is empty: using an ephemeral key, sessions end on restart")
		hashKey = securecookie.GenerateRandomKey(32)
		if len(blockKey) == 0 {
			blockKey = securecookie.GenerateRandomKey(32)
		}
	}

	var health func(context.Context) error
	if dbw.DB != nil {
		health = dbw.DB.Ping
	}
	return web.New(web.Options{
		Addr:     cfg.HTTPAddr,
		Service:  svc,
		Sessions: web.NewSessionManager(hashKey, blockKey),
		Keys:     keys,
		Log:      log.WithField("component", "http"),
		Health:   health,

		ProviderStatus: mon.Snapshot,
	}), nil
}

// Package app wires stores, locks and domain services from configuration.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rpggio/padron/internal/config"
	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/casefile"
	"github.com/rpggio/padron/internal/domain/fleet"
	"github.com/rpggio/padron/internal/domain/permit"
	"github.com/rpggio/padron/internal/domain/record"
	"github.com/rpggio/padron/internal/domain/resolution"
	"github.com/rpggio/padron/internal/lock"
	"github.com/rpggio/padron/internal/memory"
	"github.com/rpggio/padron/internal/sqlite"
)

// Services groups every domain service exposed to the transports.
type Services struct {
	Companies   *fleet.CompanyService
	Vehicles    *fleet.VehicleService
	Drivers     *fleet.DriverService
	Routes      *fleet.RouteService
	Resolutions *resolution.Service
	Permits     *permit.Service
	CaseFiles   *casefile.Service
	Audit       *audit.Recorder
}

// Options carries the collaborators New does not build from config.
type Options struct {
	Logger   *slog.Logger
	Clock    record.Clock
	Observer record.Observer
	// Redis overrides the client built from lock.redis_addr.
	Redis redis.UniversalClient
}

// App owns the wired services and the resources behind them.
type App struct {
	Services Services
	DB       *sqlite.DB

	closers []func() error
}

type builder struct {
	db       *sqlite.DB
	recorder *audit.Recorder
	locks    record.Locker
	clock    record.Clock
	observer record.Observer
	logger   *slog.Logger
}

// New opens the configured store and lock backend and builds the services.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	a := &App{}
	b := &builder{clock: clock, observer: opts.Observer, logger: logger}

	var auditRepo audit.Repository
	switch cfg.DB.Driver {
	case "memory":
		auditRepo = memory.NewAuditRepository()
	case "sqlite":
		if err := ensureDBDir(cfg.DB.Path); err != nil {
			return nil, fmt.Errorf("preparing database path: %w", err)
		}
		db, err := sqlite.New(cfg.DB.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		a.DB = db
		b.db = db
		auditRepo = sqlite.NewAuditRepository(db, DecodePayload)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}

	switch cfg.Lock.Backend {
	case "local":
		b.locks = lock.NewLocal()
	case "redis":
		client := opts.Redis
		if client == nil {
			c := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
			a.closers = append(a.closers, c.Close)
			client = c
		}
		if err := client.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Lock.RedisAddr, err)
		}
		b.locks = lock.NewRedis(client, cfg.Lock.RedisPrefix, cfg.Lock.TTL)
	default:
		a.Close()
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}

	b.recorder = audit.NewRecorder(auditRepo, clock, logger)
	a.Services = b.services()

	logger.Info("services ready", "db", cfg.DB.Driver, "locks", cfg.Lock.Backend)
	return a, nil
}

// Ready reports whether the backing store answers.
func (a *App) Ready(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext(ctx)
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (b *builder) services() Services {
	companies := fleet.NewCompanyService(configFor[fleet.Company](b, audit.EntityCompany))
	resolutions := resolution.NewService(configFor[resolution.Resolution](b, audit.EntityResolution))
	vehicles := fleet.NewVehicleService(configFor[fleet.Vehicle](b, audit.EntityVehicle), companies, resolutions)

	return Services{
		Companies:   companies,
		Vehicles:    vehicles,
		Drivers:     fleet.NewDriverService(configFor[fleet.Driver](b, audit.EntityDriver)),
		Routes:      fleet.NewRouteService(configFor[fleet.Route](b, audit.EntityRoute)),
		Resolutions: resolutions,
		Permits:     permit.NewService(configFor[permit.Permit](b, audit.EntityPermit), vehicles, resolutions),
		CaseFiles:   casefile.NewService(configFor[casefile.CaseFile](b, audit.EntityCaseFile)),
		Audit:       b.recorder,
	}
}

func configFor[T any, P record.Entity[T]](b *builder, kind audit.EntityKind) record.Config[T, P] {
	var store record.Store[T]
	if b.db != nil {
		store = sqlite.NewStore[T, P](b.db, kind)
	} else {
		store = memory.NewStore[T, P]()
	}
	return record.Config[T, P]{
		Entity:   kind,
		Store:    store,
		Audit:    b.recorder,
		Locks:    b.locks,
		Clock:    b.clock,
		Observer: b.observer,
		Logger:   b.logger.With("kind", string(kind)),
	}
}

// DecodePayload rebuilds the typed snapshot stored with an audit event.
func DecodePayload(kind audit.EntityKind, data []byte) (audit.Payload, error) {
	switch kind {
	case audit.EntityCompany:
		return decode[fleet.Company](data)
	case audit.EntityVehicle:
		return decode[fleet.Vehicle](data)
	case audit.EntityDriver:
		return decode[fleet.Driver](data)
	case audit.EntityRoute:
		return decode[fleet.Route](data)
	case audit.EntityResolution:
		return decode[resolution.Resolution](data)
	case audit.EntityPermit:
		return decode[permit.Permit](data)
	case audit.EntityCaseFile:
		return decode[casefile.CaseFile](data)
	default:
		return nil, fmt.Errorf("%w: %s", audit.ErrUnknownEntity, kind)
	}
}

func decode[T any, P interface {
	*T
	audit.Payload
}](data []byte) (audit.Payload, error) {
	p := P(new(T))
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

package router

import (
	"database/sql"
	"net/http"
	"time"

	_ "immunization-scheduler/docs"
	"immunization-scheduler/internal/adapters/cache"
	"immunization-scheduler/internal/adapters/notification/console"
	mem "immunization-scheduler/internal/adapters/storage/memory"
	pg "immunization-scheduler/internal/adapters/storage/postgres"
	"immunization-scheduler/internal/domain/children"
	"immunization-scheduler/internal/domain/immunization"
	"immunization-scheduler/internal/domain/protocol"
	"immunization-scheduler/internal/middleware"
	"immunization-scheduler/internal/platform/logger"
	"immunization-scheduler/internal/ports/auth"
	"immunization-scheduler/internal/ports/notification"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: cache del catálogo de protocolo.
	Redis           *redis.Client
	CatalogCacheTTL time.Duration

	// nil => console (los SMS van al log).
	Notifier notification.Notifier
	Logger   logger.Logger

	GraceDays int

	// Solo in-memory: stock inicial por vacuna.
	Stock map[string]int
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		protocolRepo protocol.Repository
		childRepo    children.Repository
		store        immunization.Store
	)

	if opts.DB != nil {
		protocolRepo = pg.NewProtocolRepo(opts.DB)
		childRepo = pg.NewChildrenRepo(opts.DB)
		store = pg.NewImmunizationStore(opts.DB)
	} else {
		protocolRepo = mem.NewProtocolRepo(mem.DefaultProtocol()...)
		childRepo = mem.NewChildRepo()
		memStore := mem.NewImmunizationStore()
		for vaccineID, qty := range opts.Stock {
			memStore.SetStock(vaccineID, qty)
		}
		store = memStore
	}

	if opts.Redis != nil {
		protocolRepo = cache.NewCatalogCache(protocolRepo, opts.Redis, cache.CatalogOptions{
			TTL:    opts.CatalogCacheTTL,
			Logger: log,
		})
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = console.New(log)
	}

	// Services por módulo
	protocolSvc := protocol.NewService(protocolRepo)
	immunizationSvc := immunization.NewService(store, protocolSvc, children.NewLookup(childRepo), immunization.Options{
		Notifier:  notifier,
		Logger:    log,
		GraceDays: opts.GraceDays,
	})
	childrenSvc := children.NewService(childRepo, immunizationSvc)

	// Rutas por módulo
	protocol.RegisterRoutes(r, protocolSvc)
	children.RegisterRoutes(r, childrenSvc)
	immunization.RegisterRoutes(r, immunizationSvc)

	return r
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"immunization-scheduler/internal/adapters/auth/iam"
	"immunization-scheduler/internal/adapters/cache"
	"immunization-scheduler/internal/adapters/notification/sms"
	mem "immunization-scheduler/internal/adapters/storage/memory"
	pg "immunization-scheduler/internal/adapters/storage/postgres"
	"immunization-scheduler/internal/domain/protocol"
	"immunization-scheduler/internal/platform/config"
	"immunization-scheduler/internal/platform/logger"
	"immunization-scheduler/internal/ports/auth"
	"immunization-scheduler/internal/ports/notification"
	"immunization-scheduler/internal/router"

	"github.com/go-redis/redis/v8"
)

// @title Immunization Scheduler API
// @version 1.0
// @description Calendario de vacunación infantil: generación de calendarios, registro de dosis, reprogramación y recordatorios por SMS.
// @BasePath /
func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		// sin logger todavía
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer func() { _ = zl.Sync() }()
	}

	opts := router.Options{
		Logger:          log,
		GraceDays:       cfg.RescheduleGraceDays,
		CatalogCacheTTL: cfg.CatalogCacheTTL,
	}

	seeded := false
	if cfg.DBDSN != "" {
		db, fresh, err := openPostgres(cfg.DBDSN, cfg.InitialStock, log)
		if err != nil {
			log.Error("postgres unavailable", map[string]any{"error": err})
			os.Exit(1)
		}
		defer db.Close()
		opts.DB = db
		seeded = fresh
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
		opts.Stock = initialStock(cfg.InitialStock)
	}

	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(ctx).Err(); err != nil {
			// el cache es opcional: seguimos sin él
			log.Warn("redis unavailable, catalog cache disabled", map[string]any{"addr": cfg.RedisAddr, "error": err})
			_ = rc.Close()
		} else {
			defer rc.Close()
			opts.Redis = rc
			if seeded {
				// un catálogo cacheado de otra base no debe sobrevivir a la siembra
				cc := cache.NewCatalogCache(pg.NewProtocolRepo(opts.DB), rc, cache.CatalogOptions{Logger: log})
				if err := cc.Invalidate(ctx); err != nil {
					log.Warn("catalog cache invalidation failed", map[string]any{"error": err})
				}
			}
		}
		cancel()
	}

	if n, err := newNotifier(cfg); err != nil {
		log.Error("sms gateway misconfigured", map[string]any{"error": err})
		os.Exit(1)
	} else if n != nil {
		opts.Notifier = n
	} else {
		log.Warn("SMS gateway not configured, reminders go to the log", nil)
	}

	if v, err := newVerifier(cfg); err != nil {
		log.Error("auth misconfigured", map[string]any{"error": err})
		os.Exit(1)
	} else if v != nil {
		opts.AuthVerifier = v
	} else {
		log.Warn("AUTH_BASE_URL not set, accepting X-Debug-User-ID (dev mode)", nil)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"error": err})
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", map[string]any{"error": err})
	}
	log.Info("server stopped", nil)
}

// openPostgres abre la conexión, aplica el esquema y siembra protocolo y stock si el catálogo está vacío.
func openPostgres(dsn string, initialStock int, log logger.Logger) (*sql.DB, bool, error) {
	db, err := pg.Open(dsn)
	if err != nil {
		return nil, false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, false, err
	}

	defaults := mem.DefaultProtocol()
	seeded, err := pg.SeedCatalog(ctx, db, defaults, initialStock)
	if err != nil {
		_ = db.Close()
		return nil, false, err
	}
	if seeded {
		log.Info("seeded default vaccination protocol", map[string]any{"entries": len(defaults), "initial_stock": initialStock})
	}
	return db, seeded, nil
}

// initialStock arma el stock in-memory: la misma cantidad para cada vacuna del protocolo.
func initialStock(qty int) map[string]int {
	if qty <= 0 {
		return nil
	}
	out := map[string]int{}
	for _, id := range protocol.VaccineIDs(mem.DefaultProtocol()) {
		out[id] = qty
	}
	return out
}

func newNotifier(cfg config.Config) (notification.Notifier, error) {
	if !cfg.SMSConfigured() {
		return nil, nil
	}
	c, err := sms.NewClient(sms.Config{
		BaseURL:    cfg.SMSBaseURL,
		APIKey:     cfg.SMSAPIKey,
		Sender:     cfg.SMSSender,
		Timeout:    cfg.SMSTimeout,
		RetryCount: 2,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newVerifier(cfg config.Config) (auth.AuthVerifier, error) {
	if !cfg.AuthConfigured() {
		return nil, nil
	}
	c, err := iam.NewClient(iam.Config{
		BaseURL: cfg.AuthBaseURL,
		APIKey:  cfg.AuthAPIKey,
		Timeout: cfg.AuthTimeout,
	})
	if err != nil {
		return nil, err
	}
	return iam.NewVerifier(c, iam.VerifierOptions{Facilities: cfg.AuthFacilities}), nil
}

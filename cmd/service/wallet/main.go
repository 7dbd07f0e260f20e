package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres stdlib driver, used for migrations.
	"github.com/joho/godotenv"
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/client/store/clientdb"
	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/core/transaction"
	"github.com/rschio/walletledger/internal/core/transaction/store/transactiondb"
	"github.com/rschio/walletledger/internal/data/dbschema"
	db "github.com/rschio/walletledger/internal/data/dbsql/pgx"
	"github.com/rschio/walletledger/internal/data/keylock"
	"github.com/rschio/walletledger/internal/data/redislock"
	"github.com/rschio/walletledger/internal/handlers"
	"github.com/rschio/walletledger/internal/logger"
	"github.com/rschio/walletledger/internal/trace"
)

var build = "develop"

func main() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	log := logger.New("Wallet", os.Getenv("WALLET_LOG_LEVEL"))

	if err := run(log); err != nil {
		log.Error("startup", "ERROR", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx := context.Background()

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Env string `conf:"default:DEV"`
		Web struct {
			APIHost         string        `conf:"default:0.0.0.0:8080"`
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
		}
		DB struct {
			User         string `conf:"default:postgres"`
			Password     string `conf:"default:postgres,mask"`
			Host         string `conf:"default:localhost:5432"`
			Name         string `conf:"default:postgres"`
			MaxOpenConns int    `conf:"default:10"`
			DisableTLS   bool   `conf:"default:true"`
			Seed         bool   `conf:"default:false"`
		}
		Redis struct {
			Addr       string        `conf:"help:empty keeps locks inside the process"`
			Password   string        `conf:"mask"`
			DB         int           `conf:"default:0"`
			LockExpiry time.Duration `conf:"default:8s"`
		}
		Tempo struct {
			Host        string  `conf:"help:empty discards traces"`
			ServiceName string  `conf:"default:wallet-api"`
			Probability float64 `conf:"default:0.05"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "crypto wallet ledger",
		},
	}

	const prefix = "WALLET"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Info("starting service", "version", build)
	defer log.Info("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Info("startup", "config", out)

	// =========================================================================
	// Database Support

	log.Info("startup", "status", "initializing database support", "host", cfg.DB.Host)

	dbCfg := db.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	}
	database, err := db.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Info("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
		database.Close()
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.StatusCheck(ctxWithTimeout, database); err != nil {
		return fmt.Errorf("database not health: %w", err)
	}

	if err := migrate(ctx, log, dbCfg, cfg.DB.Seed); err != nil {
		return err
	}

	// =========================================================================
	// Start Tracing Support

	log.Info("startup", "status", "initializing tracing support", "host", cfg.Tempo.Host)

	provider, err := trace.NewProvider(ctx, trace.Config{
		Env:            cfg.Env,
		Endpoint:       cfg.Tempo.Host,
		Service:        cfg.Tempo.ServiceName,
		SampleFraction: cfg.Tempo.Probability,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer provider.Shutdown(context.Background())

	tracer := provider.Tracer(cfg.Tempo.ServiceName)

	// =========================================================================
	// Locking Support

	var locker ledger.Locker = keylock.New()
	if cfg.Redis.Addr != "" {
		log.Info("startup", "status", "initializing redis locks", "addr", cfg.Redis.Addr)

		rlCfg := redislock.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Expiry:   cfg.Redis.LockExpiry,
			Prefix:   "wallet:",
		}
		rdb, err := redislock.NewClient(ctx, rlCfg)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		locker = redislock.New(log, rdb, rlCfg)
	}

	// =========================================================================
	// Start API Service

	log.Info("startup", "status", "initializing WALLET API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	clientCore := client.NewCore(clientdb.NewStore(log, database), locker)
	txCore := transaction.NewCore(transactiondb.NewStore(log, database), locker)

	check := func(ctx context.Context) error {
		return db.StatusCheck(ctx, database)
	}
	srv := handlers.NewServer(log, clientCore, txCore, check)

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      handlers.APIMux(srv, tracer),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// migrate brings the schema up to date through a database/sql handle, the
// one darwin works with.
func migrate(ctx context.Context, log *slog.Logger, cfg db.Config, seed bool) error {
	stdDB, err := sql.Open("pgx", db.ConnString(cfg))
	if err != nil {
		return fmt.Errorf("open db for migration: %w", err)
	}
	defer stdDB.Close()

	log.Info("startup", "status", "migrating schema")
	if err := dbschema.Migrate(stdDB); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	if !seed {
		return nil
	}

	log.Info("startup", "status", "seeding data")
	if err := dbschema.Seed(ctx, stdDB); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	return nil
}

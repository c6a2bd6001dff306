package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/db"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/facades"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/handlers"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/jwt"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/middlewares"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/repositories"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/services"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/transaction"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// Config is decoded from the environment after the config file is loaded.
type Config struct {
	App      AppConfig      `envconfig:"APP"`
	Postgres PostgresConfig `envconfig:"POSTGRES"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Kafka    KafkaConfig    `envconfig:"KAFKA"`
	Lock     LockConfig     `envconfig:"LOCK"`
	JWT      JWTConfig      `envconfig:"JWT"`
	TxRetry  TxRetryConfig  `envconfig:"TX_RETRY"`
}

type AppConfig struct {
	Host       string   `envconfig:"HOST" default:"localhost"`
	Port       string   `envconfig:"PORT" default:"8080"`
	LogLevel   string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat  string   `envconfig:"LOG_FORMAT" default:"json"`
	Currencies []string `envconfig:"CURRENCIES" default:"USD"` // Platform wallets are ensured in each
}

type PostgresConfig struct {
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"5432"`
	User            string        `envconfig:"USER" default:"user"`
	Password        string        `envconfig:"PASSWORD" default:"password"`
	DB              string        `envconfig:"DB" default:"database"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"16"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"8"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
}

// DSN returns the pgx connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.DB)
}

type RedisConfig struct {
	Host         string `envconfig:"HOST" default:"localhost"`
	Port         int    `envconfig:"PORT" default:"6379"`
	DB           int    `envconfig:"DB" default:"0"`
	Password     string `envconfig:"PASSWORD" default:""`
	PoolSize     int    `envconfig:"POOL_SIZE" default:"10"`
	MinIdleConns int    `envconfig:"MIN_IDLE_CONNS" default:"2"`
}

type KafkaConfig struct {
	Brokers       []string      `envconfig:"BROKERS" default:"localhost:9092"`
	TransferTopic string        `envconfig:"TRANSFER_TOPIC" default:"wallet-transfers"`
	WriteTimeout  time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
}

type LockConfig struct {
	Prefix string        `envconfig:"PREFIX" default:"wallet-lock:"`
	TTL    time.Duration `envconfig:"TTL" default:"30s"`
	Wait   time.Duration `envconfig:"WAIT" default:"5s"`
}

type JWTConfig struct {
	SecretKey  string        `envconfig:"SECRET_KEY" default:"my_super_secret_key"`
	Expiration time.Duration `envconfig:"EXP" default:"1h"`
}

type TxRetryConfig struct {
	Max         uint64        `envconfig:"MAX" default:"3"`
	Initial     time.Duration `envconfig:"INITIAL" default:"20ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"500ms"`
}

// @title gw-wallet-ledger API
// @version 1.0.0
// @description Double-entry wallet ledger: balances, deposits and withdrawal lifecycle
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads the env file, when present, and decodes the environment into Config.
// Variables already set in the environment win over the file.
func parseConfig(path string) (*Config, error) {
	_ = godotenv.Load(path)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// run wires storage, locking, events and the HTTP server, and blocks until shutdown.
func run(ctx context.Context, cfg *Config) error {
	if err := logger.Initialize(cfg.App.LogLevel, cfg.App.LogFormat); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infow("logger initialized", "level", cfg.App.LogLevel)

	// PostgreSQL
	pg, err := db.Connect(ctx, cfg.Postgres.DSN(), db.PoolConfig{
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer pg.Close()
	logger.Log.Infow("connected to PostgreSQL", "host", cfg.Postgres.Host, "db", cfg.Postgres.DB)

	if err := db.RunMigrations(pg); err != nil {
		return err
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection error: %w", err)
	}
	defer rdb.Close()

	// Kafka
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.TransferTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	events := facades.NewTransferEventsKafkaFacade(writer, cfg.Kafka.WriteTimeout)
	defer func() {
		if err := events.Close(); err != nil {
			logger.Log.Errorw("failed to close Kafka writer", "error", err)
		}
	}()

	// Repositories
	accountRepo := repositories.NewWalletAccountRepository(pg, transaction.FromContext)
	entryRepo := repositories.NewWalletEntryRepository(pg, transaction.FromContext)
	withdrawalRepo := repositories.NewWithdrawalRepository(pg, transaction.FromContext)
	locker := repositories.NewRedisLocker(rdb, cfg.Lock.Prefix, cfg.Lock.Wait)

	// Services
	txManager := transaction.NewManager(pg,
		transaction.WithMaxRetries(cfg.TxRetry.Max),
		transaction.WithBackoff(cfg.TxRetry.Initial, cfg.TxRetry.MaxInterval),
	)
	processor := services.NewTransferProcessor(accountRepo, entryRepo, txManager, events)
	ledger := services.NewLedger(processor)
	accountService := services.NewAccountService(accountRepo, entryRepo, txManager)
	paymentService := services.NewPaymentService(ledger, accountRepo, locker, cfg.Lock.TTL)
	prizeService := services.NewPrizeService(ledger, locker, cfg.Lock.TTL)
	withdrawalService := services.NewWithdrawalService(ledger, accountRepo, withdrawalRepo, txManager, locker, cfg.Lock.TTL)

	if err := accountService.EnsurePlatformWallets(ctx, cfg.App.Currencies); err != nil {
		return fmt.Errorf("ensure platform wallets: %w", err)
	}

	tokener := jwt.New(
		jwt.WithSecretKey(cfg.JWT.SecretKey),
		jwt.WithExpiration(cfg.JWT.Expiration),
	)

	r := newRouter(routerDeps{
		db:          pg,
		tokener:     tokener,
		accounts:    accountService,
		payments:    paymentService,
		prizes:      prizeService,
		withdrawals: withdrawalService,
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.App.Host, cfg.App.Port)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.App.Host, cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}

type accountAPI interface {
	handlers.AccountOpener
	handlers.BalanceReader
	handlers.StatementReader
}

type withdrawalAPI interface {
	handlers.WithdrawalRequester
	handlers.WithdrawalReader
	handlers.WithdrawalTransitioner
}

type routerDeps struct {
	db          *sqlx.DB
	tokener     middlewares.Tokener
	accounts    accountAPI
	payments    handlers.Depositor
	prizes      handlers.PrizePayer
	withdrawals withdrawalAPI
}

// newRouter mounts the API under /api/v1. Every route requires a bearer token;
// reads share one snapshot; status transitions and prize payouts are limited to employees.
func newRouter(deps routerDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.AuthMiddleware(deps.tokener))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.ReadOnlyTxMiddleware(deps.db))
			handlers.RegisterGetBalanceHandler(r, handlers.NewGetBalanceHandler(deps.accounts))
			handlers.RegisterGetStatementHandler(r, handlers.NewGetStatementHandler(deps.accounts))
			handlers.RegisterGetWithdrawalHandler(r, handlers.NewGetWithdrawalHandler(deps.withdrawals))
		})

		handlers.RegisterOpenAccountsHandler(r, handlers.NewOpenAccountsHandler(deps.accounts))
		handlers.RegisterDepositHandler(r, handlers.NewDepositHandler(deps.payments))
		handlers.RegisterWithdrawalRequestHandler(r, handlers.NewWithdrawalRequestHandler(deps.withdrawals))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireEmployee)
			handlers.RegisterWithdrawalTransitionHandler(r, handlers.NewWithdrawalTransitionHandler(deps.withdrawals))
			handlers.RegisterPrizeHandler(r, handlers.NewPrizeHandler(deps.prizes))
		})
	})

	return r
}

// Package server wires the ledger together: it opens the database, runs
// migrations, builds the services and runs the HTTP API, the gRPC health
// endpoint and the outbox processor until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/logging"
	"github.com/dmitrijs2005/bankledger/internal/server/config"
	"github.com/dmitrijs2005/bankledger/internal/server/events"
	"github.com/dmitrijs2005/bankledger/internal/server/httpapi"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bankledger/internal/server/services"
	"github.com/dmitrijs2005/bankledger/internal/server/storage"

	gs "github.com/dmitrijs2005/bankledger/internal/server/grpc"
)

const healthCheckInterval = 5 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	http      *httpapi.Server
	grpc      *gs.GRPCServer
	publisher events.Publisher
	processor *events.Processor
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogBackend)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	store, err := storage.NewS3Store(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	publisher, err := events.NewPublisher(c, logger.With("module", "events"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events publisher init error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	ls := services.NewLedgerService(db, rm)
	ss := services.NewStatementService(ls, store)

	handler := httpapi.NewHandler(us, ls, ss, logger.With("module", "http"), c.IsDevelopment())
	router := httpapi.NewRouter(handler, us.Authenticator(), c.CORSAllowedOrigins)

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		http:      httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
		grpc:      gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db, healthCheckInterval),
		publisher: publisher,
		processor: events.NewProcessor(db, rm, publisher, c.OutboxPollInterval, c.OutboxBatchSize, logger.With("module", "outbox")),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runComponent runs fn and cancels the whole app if it fails.
func (app *App) runComponent(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "component failed", "component", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.runComponent(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.runComponent(ctx, cancelFunc, "grpc", app.grpc.Run)
	}()
	go func() {
		defer wg.Done()
		app.processor.Run(ctx)
	}()

	wg.Wait()

	app.shutdown()
}

func (app *App) close() error {
	return errors.Join(app.publisher.Close(), app.db.Close())
}

// shutdown releases resources and flushes the logger last.
func (app *App) shutdown() {
	if err := app.close(); err != nil {
		app.logger.Error(context.Background(), "shutdown error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	_ = logging.Sync(app.logger)
}

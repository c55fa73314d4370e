// Package server wires the codeimages application together: database and
// migrations, collaborators, the HTTP API and the gRPC health endpoint.
// It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bbelderbos/codeimages/internal/filex"
	"github.com/bbelderbos/codeimages/internal/logging"
	"github.com/bbelderbos/codeimages/internal/server/config"
	"github.com/bbelderbos/codeimages/internal/server/httpapi"
	"github.com/bbelderbos/codeimages/internal/server/mail"
	"github.com/bbelderbos/codeimages/internal/server/render"
	"github.com/bbelderbos/codeimages/internal/server/repositories/repomanager"
	"github.com/bbelderbos/codeimages/internal/server/services"
	"github.com/bbelderbos/codeimages/internal/server/storage"
	"github.com/gin-gonic/gin"

	gs "github.com/bbelderbos/codeimages/internal/server/grpc"
)

const (
	healthProbeInterval = 15 * time.Second
	limiterIdleTimeout  = 10 * time.Minute
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *mail.Dispatcher
	limiter    *httpapi.RateLimiter
	router     http.Handler
}

// NewApp connects to the database, runs migrations and builds services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.Debug)

	tempRoot, err := filex.EnsureDir(c.TempRoot)
	if err != nil {
		return nil, fmt.Errorf("temp root: %w", err)
	}
	c.TempRoot = tempRoot

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
		Bucket:          c.S3Bucket,
		Region:          c.S3Region,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		BaseEndpoint:    c.S3BaseEndpoint,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	dispatcher := mail.NewDispatcher(newMailSender(c, logger), logger.With("module", "mail"), c.MailTimeout)
	limiter := httpapi.NewRateLimiter(c.LoginRPS, c.LoginBurst)

	accounts := services.NewAccountService(db, rm, dispatcher, logger, c)
	snippets := services.NewSnippetService(db, rm, render.NewCommandRenderer(c.RendererPath), uploader, logger, c)

	if !c.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Accounts: accounts,
		Snippets: snippets,
		DB:       db,
		Limiter:  limiter,
		Logger:   logger,

		TrustedProxies: c.TrustedProxies,
	})

	return &App{config: c, logger: logger, db: db, dispatcher: dispatcher, limiter: limiter, router: router}, nil
}

// newMailSender logs mail in debug mode and uses SMTP otherwise.
func newMailSender(c *config.Config, logger logging.Logger) mail.Sender {
	if c.Debug {
		return mail.NewLogSender(logger.With("module", "mail"))
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.FromEmail,
		TLSMode:  c.SMTPTLSMode,
	})
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, healthProbeInterval)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      app.config.RenderTimeout + app.config.UploadTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until a signal arrives or a server fails, then drains pending
// mail and closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.limiter.Run(ctx, time.Minute, limiterIdleTimeout)
	}()

	wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.dispatcher.Wait(drainCtx); err != nil {
		app.logger.Warn(drainCtx, "pending mail not delivered", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(drainCtx, "db close failed", "error", err)
	}
	app.logger.Info(drainCtx, "App stopped")
}

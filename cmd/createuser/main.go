package main

import (
	"context"
	"log"
	"os"

	"github.com/bbelderbos/codeimages/internal/createuser"
	"github.com/bbelderbos/codeimages/internal/logging"
	"github.com/bbelderbos/codeimages/internal/server/config"
	"github.com/bbelderbos/codeimages/internal/server/mail"
	"github.com/bbelderbos/codeimages/internal/server/repositories/repomanager"
	"github.com/bbelderbos/codeimages/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadEnvConfig()
	logger := logging.New(os.Stderr, cfg.Debug)

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		log.Fatalf("migrations error: %v", err)
	}

	notifier := mail.NewDispatcher(mail.NewLogSender(logger), logger, cfg.MailTimeout)
	svc := services.NewAccountService(db, rm, notifier, logger, cfg)

	code := createuser.Run(ctx, svc, os.Args[1:], os.Stdout, os.Stderr)
	_ = db.Close()
	os.Exit(code)
}

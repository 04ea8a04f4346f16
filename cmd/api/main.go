package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/keenpages/catalog/pkg/config"
	"github.com/keenpages/catalog/pkg/database"
	"github.com/keenpages/catalog/pkg/migrations"
	"github.com/keenpages/catalog/pkg/server"
	"github.com/keenpages/catalog/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/uptrace/bun"
)

// shutdownTimeout bounds how long in-flight ingestions get to finish.
const shutdownTimeout = 30 * time.Second

func main() {
	log := logger.New()
	log.Info("starting catalog", logger.Data{"version": version.Version})

	if err := run(context.Background(), log); err != nil {
		log.Err(err).Fatal("catalog exited")
	}
}

func run(ctx context.Context, log logger.Logger) error {
	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	db, err := database.New(cfg)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer closeDB(log, db)

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		return err
	}
	if group.ID != 0 {
		log.Info("applied migrations", logger.Data{"group_id": group.ID, "migrations": group.Migrations.String()})
	}

	srv, err := server.New(ctx, cfg, db)
	if err != nil {
		return errors.Wrap(err, "build server")
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort))
	if err != nil {
		return errors.Wrap(err, "bind port")
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", logger.Data{"addr": listener.Addr().String(), "environment": cfg.Environment})
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.WithStack(err)
		}
		return nil
	case <-signals.Setup():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return errors.WithStack(srv.Shutdown(shutdownCtx))
}

func closeDB(log logger.Logger, db *bun.DB) {
	if err := db.Close(); err != nil {
		log.Err(err).Error("close database")
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/acme/autocert"

	"github.com/hexymap/hexy/src/config"
	"github.com/hexymap/hexy/src/crypto"
	"github.com/hexymap/hexy/src/database"
	"github.com/hexymap/hexy/src/server"
	"github.com/hexymap/hexy/src/session"
	"github.com/hexymap/hexy/src/strava"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web app",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := crypto.New(cfg.Crypto.FernetKeys)
	if err != nil {
		return err
	}

	srv := server.New(
		cfg,
		database.NewStore(db, c),
		strava.NewClient(cfg.Strava),
		session.NewManager(cfg.Session.Secret, cfg.Session.TTL),
		log.Logger,
	)

	errc := make(chan error, 1)
	go func() {
		errc <- listen(srv, cfg.Server)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// listen serves TLS on :443 with certificates from Let's Encrypt when a
// domain is configured, plain HTTP on the configured port otherwise.
func listen(srv *server.Server, cfg config.ServerConfig) error {
	if cfg.AutocertDomain == "" {
		return srv.Listen()
	}
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.AutocertDomain),
		Cache:      autocert.DirCache(cfg.AutocertDir),
	}
	return srv.Listener(m.Listener())
}

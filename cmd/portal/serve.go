package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/bluewater-portal/internal/config"
	"github.com/jrsteele09/bluewater-portal/internal/fakebackend"
	"github.com/rs/zerolog/log"
)

const serveFakeUsage = "[-admin-email E] [-admin-password P] run the in-memory backend"

func serveFake(c config.Config, args []string) error {
	fs := newFlagSet("serve-fake")
	adminEmail := fs.String("admin-email", "admin@bluewater.local", "seeded admin account")
	adminPassword := fs.String("admin-password", "admin", "seeded admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend, err := fakebackend.New(c, fakebackend.WithLogger(log.Logger), fakebackend.WithEnv(c.GetEnv()))
	if err != nil {
		return err
	}
	if _, err := backend.SeedUser(*adminEmail, *adminPassword, "Ranch", "Admin", true); err != nil {
		return err
	}

	displayAppname(c.GetAppName())
	server := &http.Server{Addr: c.GetFakeBackendAddr(), Handler: backend, ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(server) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Fake backend listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Fake backend stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

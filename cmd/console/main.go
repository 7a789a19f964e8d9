// Command console is a terminal capture client for the trazabilidad API.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/iliyamo/acrux-trazabilidad/internal/client"
	"github.com/iliyamo/acrux-trazabilidad/internal/config"
	"github.com/iliyamo/acrux-trazabilidad/internal/logger"
	"github.com/iliyamo/acrux-trazabilidad/internal/session"
)

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "acrux", "session.json")
}

func main() {
	config.LoadDotEnv()
	logger.Init(env("LOG_LEVEL", "warn"))
	log := logger.Logger

	idle := session.DefaultIdleTimeout
	if v := os.Getenv("IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("IDLE_TIMEOUT: invalid duration %q", v)
		}
		idle = d
	}

	var ctrl *session.Controller
	api, err := client.New(env("API_URL", "http://localhost:8080/api"),
		client.WithToken(func() string { return ctrl.Token() }))
	if err != nil {
		log.WithError(err).Fatal("API_URL")
	}
	hub := session.NewActivityHub()
	ctrl = session.NewController(session.NewFileStore(env("SESSION_FILE", defaultSessionFile())), api, hub,
		session.WithIdleTimeout(idle), session.WithLogger(log))
	defer ctrl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(ctrl, hub, api, os.Stdin, os.Stdout)
	if err := a.run(ctx); err != nil {
		log.WithError(err).Error("console")
		os.Exit(1)
	}
}

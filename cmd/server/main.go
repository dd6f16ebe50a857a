package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thebowwman/navplot/internals/api"
	"github.com/thebowwman/navplot/internals/auth"
	"github.com/thebowwman/navplot/internals/config"
	"github.com/thebowwman/navplot/internals/events"
	"github.com/thebowwman/navplot/internals/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logging.New(cfg.LogLevel, cfg.LogDir, os.Stderr)
	defer lg.Close()

	var pub events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		np, err := events.NewNATS(cfg.NATSURL)
		if err != nil {
			lg.Error("NATS unavailable, route updates stay local", slog.Any("err", err))
		} else {
			pub = np
			lg.Info("publishing route updates", slog.String("nats", cfg.NATSURL))
		}
	}
	defer pub.Close()

	srv := api.NewServer(api.Options{
		DefaultSpeedKnots:  cfg.DefaultSpeedKnots,
		Icons:              api.MarkerIcons{Origin: cfg.OriginIcon, Waypoint: cfg.WaypointIcon},
		GeolocationTimeout: cfg.GeolocationTimeout,
	}, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), pub, lg)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), lg.Middleware())
	srv.RegisterRoutes(r)

	httpSrv := &http.Server{Addr: cfg.Addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		lg.Info("listening", slog.String("addr", cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server failed", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown timed out", slog.Any("err", err))
	}
}

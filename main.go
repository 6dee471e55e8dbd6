package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkin/src-server/checkin"
	"checkin/src-server/metric"
	"checkin/src-server/model"
	"checkin/src-server/route"
	"checkin/src-server/sheet"
	"checkin/src-server/utils"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// debug until the config says otherwise, so config loading is visible
var logLevel = func() *slog.LevelVar {
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	return level
}()

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	config := utils.NewConfig()
	if !config.GetDebug() {
		logLevel.Set(slog.LevelInfo)
	}

	as, err := utils.NewAppState(config)
	if err != nil {
		slog.Error("can't initialize app state", "error", err)
		os.Exit(1)
	}

	if err := model.CreateSchema(context.Background(), as.BunDB); err != nil {
		slog.Error("can't create database schema", "error", err)
		os.Exit(1)
	}

	// first run: load the roster kept next to the server
	if count, imported, err := sheet.ImportOnStartup(
		context.Background(), as.BunDB, config.GetFixedRosterPath(),
	); err != nil {
		slog.Error("can't import roster on startup", "path", config.GetFixedRosterPath(), "error", err)
	} else if imported {
		slog.Info("roster imported on startup", "path", config.GetFixedRosterPath(), "count", count)
	}

	metric.Init(as)

	svc := checkin.NewService(as)

	muxer := http.NewServeMux()
	muxer.Handle("GET /metrics", promhttp.Handler())
	route.Pages(muxer)
	route.Auth(muxer, as)
	route.Checkin(muxer, as, svc)
	route.Admin(muxer, as)
	route.QR(muxer, as)

	server := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           muxer,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "port", config.GetPort())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	slog.Info("app is now running, press Ctrl+C to exit")

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan

	slog.Info("Gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("can't shut down HTTP server cleanly", "error", err)
	}
	as.GracefulShutdown()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/internal/api"
	"github.com/satriahrh/voxpense/internal/websocket"
)

func serveCmd() *cobra.Command {
	var maxRecording time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), maxRecording)
		},
	}
	cmd.Flags().DurationVar(&maxRecording, "max-recording", websocket.DefaultMaxRecording, "cancel websocket recordings open longer than this")
	return cmd
}

func runServe(ctx context.Context, maxRecording time.Duration) error {
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	hub := websocket.NewHub(a.stt, a.coordinator, a.expenses, websocket.Options{
		AudioConfig:  a.audioConfig(),
		AutoSubmit:   a.cfg.AutoSubmit,
		RecentWindow: a.cfg.RecentWindow(),
	}, logger)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	cleanup := websocket.NewSessionCleanupService(hub, maxRecording, logger)
	cleanup.Start()
	defer cleanup.Stop()

	handler := api.NewHandler(a.expenses, a.coordinator, api.HandlerOptions{
		STT:          a.stt,
		Audio:        a.audioConfig(),
		RecentWindow: a.cfg.RecentWindow(),
		Notifier:     hub,
	}, logger)
	api.InitRoutes(e, handler, hub, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("Server started",
		zap.String("port", a.cfg.Port),
		zap.String("store", a.cfg.StoreDriver),
		zap.String("stt", a.cfg.STTProvider))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// hub first so open sockets do not hold the HTTP shutdown
	stopHub()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}

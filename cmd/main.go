package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/voice-signal/config"
	"github.com/cwrk-planet/voice-signal/internal/registry"
	"github.com/cwrk-planet/voice-signal/internal/service"
	grpcx "github.com/cwrk-planet/voice-signal/internal/transport/grpc"
	httpx "github.com/cwrk-planet/voice-signal/internal/transport/http"
	"github.com/cwrk-planet/voice-signal/internal/transport/ws"
	"github.com/cwrk-planet/voice-signal/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting voice-signal",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- state + dispatcher ---
	hub := ws.NewHub()
	dir := registry.NewDirectory()
	dispatcher := service.NewDispatcher(service.Deps{
		Registry:  registry.NewRegistry(),
		Directory: dir,
		Seats:     registry.NewSeats(),
		Sender:    hub,
	}, service.Options{
		QueueSize:          cfg.Signaling.QueueSize,
		LoginPolicy:        service.LoginPolicy(cfg.Signaling.DuplicateLogin),
		AuthoritativeSeats: cfg.Signaling.AuthoritativeSeats,
	})

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		_ = dispatcher.Run(ctx)
	}()

	// --- WS + HTTP ---
	wsServer := ws.NewServer(hub, dispatcher, ws.Config{
		ReadLimit:      cfg.WS.ReadLimit,
		SendBuffer:     cfg.WS.SendBuffer,
		WriteWait:      cfg.WS.WriteWaitOr(10 * time.Second),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	handler := httpx.NewHandler(dispatcher, dir, hub)
	router := httpx.NewRouter(handler, wsServer, cfg.HTTP.AllowedOrigins)
	// no WriteTimeout: it would cut long-lived websocket connections
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: cfg.HTTP.ReadTimeoutOr(10 * time.Second),
		IdleTimeout: cfg.HTTP.IdleTimeoutOr(60 * time.Second),
	}

	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- gRPC admin (optional) ---
	var grpcSrv *grpcx.Server
	if cfg.GRPC.Addr != "" {
		grpcSrv = grpcx.NewServer()
		go serveGRPC(grpcSrv, cfg.GRPC.Addr, errCh)
	}

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if grpcSrv != nil {
		grpcSrv.Stop(ctxShutdown)
	}
	// hijacked websocket connections are not tracked by http.Server
	hub.CloseAll()
	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		slog.Warn("http shutdown", "err", err)
	}

	cancel()
	select {
	case <-dispatcherDone:
	case <-ctxShutdown.Done():
	}
	slog.Info("stopped", "stats", dispatcher.Stats())
}

// serveGRPC reports listen and serve failures on errCh so they go through the
// same shutdown path as the HTTP server.
func serveGRPC(srv *grpcx.Server, addr string, errCh chan<- error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		errCh <- fmt.Errorf("grpc listen: %w", err)
		return
	}
	if err := srv.Serve(lis); err != nil {
		errCh <- err
	}
}

package main

import (
	"context"
	"direct-chat/auth"
	grpc2 "direct-chat/grpc"
	"direct-chat/httpserver"
	"direct-chat/internal"
	"direct-chat/observability"
	"direct-chat/repositories"
	"direct-chat/runtime"
	"direct-chat/runtime/workers"
	"direct-chat/services"
	"direct-chat/sink"
	"direct-chat/ws"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, serves HTTP and gRPC, and returns once both stopped.
// Deferred closes run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if config.DebugPort > 0 && logger.Enabled(ctx, slog.LevelDebug) {
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d/inspect?prefix=%s", config.DebugPort, repositories.MessageKeyPrefix))
		database.StartDebugServer(db, config.DebugPort, "/inspect", MessageMapper)
	}

	messageRepository, err := repositories.NewMessageRepository(db, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = messageRepository.Close() }()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()
	searchIndex := repositories.NewSearchIndex(blugeWriter, logger)

	// 3. Supervision, event pipeline & delivery
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoring(logger, registry)
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(logger, supervisor, config.BufferSize, config.SinkTimeout).
		Add(sink.NewTelemetrySink(monitoring), sink.NewSearchSink(logger, searchIndex))

	router := runtime.NewRouter(logger, messageRepository, registry, orchestrator,
		config.DeliveryTimeout, config.MaxBodyLength)
	chatService := services.NewChatService(logger, registry, router)
	historyService := services.NewHistoryService(messageRepository, searchIndex)
	tokens := auth.NewTokenManager(config.JWTSecret)

	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		if err := orchestrator.Start(ctx); err != nil {
			logger.Error("Orchestrator failed to start", "error", err)
		}
	}()

	// 4. Servers
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	grpcServer := grpc2.NewServer(logger, chatService, tokens, config.ConnectionBufferSize)

	httpServer := &http.Server{
		Addr: fmt.Sprintf("%s:%d", config.Host, config.HTTPPort),
		Handler: httpserver.NewRouter(logger, historyService, monitoring,
			ws.NewHandler(logger, chatService, tokens, config.ConnectionBufferSize)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("Starting gRPC server", "address", grpcAddress, "at", time.Now().UTC())
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 5. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 6. Final Cleanup: stop accepting traffic, then drain the event pipeline
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	if grpc2.Shutdown(shutdownCtx, grpcServer) {
		logger.Warn("gRPC streams still open after shutdown timeout, stop forced")
	}
	orchestrator.Stop()
	<-orchestratorDone
	logger.Info("Program stopped cleanly")

	return code, runErr
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	api "rentstock-backend/internal/api/grpc"
	"rentstock-backend/internal/api/grpc/interceptor"
	httpapi "rentstock-backend/internal/api/http"
	"rentstock-backend/internal/app"
	"rentstock-backend/internal/config"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository/postgres"
	"rentstock-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runMigrations := flag.Bool("migrate", false, "Apply database migrations before serving")
	hashPassword := flag.String("hash-password", "", "Print the bcrypt hash of the given unlock password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := security.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rentstock Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetHTTPAddress(), "grpc_address", cfg.GetGRPCAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.ResolveSecrets(ctx, cfg); err != nil {
		logger.Error("Failed to resolve secrets", "error", err)
		log.Fatalf("Failed to resolve secrets: %v", err)
	}

	container, err := app.New(ctx, cfg, logger.Get())
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer container.Close()

	if *runMigrations {
		if err := postgres.Migrate(container.DB); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// HTTP API
	router := httpapi.NewRouter(&httpapi.Services{
		Org:       container.Org,
		Registry:  container.Registry,
		Calendar:  container.Calendar,
		Projector: container.Projector,
		Locks:     container.Locks,
		Shortfall: container.Shortfall,
	}, tokenManager)
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// gRPC API, optional
	var grpcServer *grpc.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}

		authInterceptor := interceptor.NewAuthInterceptor(tokenManager)
		grpcServer = grpc.NewServer(
			grpc.UnaryInterceptor(authInterceptor.Unary()),
			grpc.StreamInterceptor(authInterceptor.Stream()),
		)
		api.RegisterAvailabilityServiceServer(grpcServer, api.NewAvailabilityHandler(
			container.Org,
			container.Calendar,
			container.Projector,
			container.Shortfall,
		))

		healthServer := health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		go api.WatchDependency(ctx, healthServer, container.Ledger, 30*time.Second)

		// Register reflection service for grpcurl
		reflection.Register(grpcServer)

		go func() {
			logger.Info("gRPC server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("Failed to serve gRPC", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("Server stopped. Goodbye!")
}

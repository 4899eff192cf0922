package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	capi "github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"google.golang.org/grpc"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/config"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/handler"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/repository"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/usecase"
	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/worker"
	"github.com/Perfect-QA/DevTinder-sub000/shared/auth"
	"github.com/Perfect-QA/DevTinder-sub000/shared/mailer"
	"github.com/Perfect-QA/DevTinder-sub000/shared/provider"
	"github.com/Perfect-QA/DevTinder-sub000/shared/utilities"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger = logger.With().Str("service", cfg.ServiceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}

	db := mongoClient.Database(cfg.MongoDatabase)
	accountRepo := repository.NewAccountMongoRepository(ctx, &logger, db)

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)

	var notifier usecase.LoginNotifier
	if os.Getenv("SMTP_HOST") != "" {
		notifier = &emailLoginNotifier{mail: mailer.NewMailer(&logger)}
	} else {
		logger.Warn().Msg("SMTP not configured, new device login notifications disabled")
	}

	authUsecase := usecase.NewAuthUsecase(accountRepo, cfg)
	tokenUsecase := usecase.NewTokenUsecase(accountRepo, jwtAuth, cfg)
	sessionUsecase := usecase.NewSessionUsecase(accountRepo, notifier, cfg, &logger)
	oauthUsecase := usecase.NewOAuthUsecase(accountRepo)

	var google *provider.GoogleOAuthProvider
	if cfg.GoogleClientID != "" {
		google = provider.NewGoogleOAuthProvider(cfg.GoogleClientID)
	} else {
		logger.Warn().Msg("GOOGLE_CLIENT_ID not set, google login disabled")
	}

	reaper := worker.NewReaper(accountRepo, cfg.Session.InactivityWindow, cfg.Session.ReaperInterval, &logger)
	go reaper.Run(ctx)

	authHandler := handler.NewAuthHTTPHandler(
		authUsecase,
		tokenUsecase,
		sessionUsecase,
		oauthUsecase,
		google,
		cfg,
		&logger,
	)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	authHandler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	grpcServer := grpc.NewServer()
	utilities.RegisterHealthServer(grpcServer)

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("address", cfg.GRPCAddr).Msg("failed to listen for gRPC")
	}

	go func() {
		logger.Info().Str("address", cfg.GRPCAddr).Msg("gRPC health server listening")
		if err := grpcServer.Serve(grpcListener); err != nil {
			logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	if cfg.ConsulAddr != "" {
		deregister, err := registerWithConsul(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to register with Consul")
		}
		defer deregister()
		logger.Info().Str("address", cfg.ConsulAddr).Msg("registered with Consul")
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.HTTPAddr).Msg("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	grpcServer.GracefulStop()
	logger.Info().Msg("server stopped")
}

// registerWithConsul registers the gRPC health endpoint in the Consul
// service catalog and returns a deregistration func for shutdown.
func registerWithConsul(cfg *config.AuthServiceConfig) (func(), error) {
	client, err := capi.NewClient(&capi.Config{Address: cfg.ConsulAddr})
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}

	host, portStr, err := net.SplitHostPort(cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid gRPC address %q: %w", cfg.GRPCAddr, err)
	}
	if host == "" {
		host = "127.0.0.1"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid gRPC port %q: %w", portStr, err)
	}

	serviceID := fmt.Sprintf("%s-%s", cfg.ServiceName, uuid.NewString())
	registration := &capi.AgentServiceRegistration{
		ID:      serviceID,
		Name:    cfg.ServiceName,
		Address: host,
		Port:    port,
		Check: &capi.AgentServiceCheck{
			GRPC:                           net.JoinHostPort(host, portStr),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("failed to register service: %w", err)
	}

	return func() {
		_ = client.Agent().ServiceDeregister(serviceID)
	}, nil
}

// emailLoginNotifier emails the account holder when a login arrives from a
// device the account has not seen before.
type emailLoginNotifier struct {
	mail *mailer.Mailer
}

func (n *emailLoginNotifier) NotifyNewDeviceLogin(email, deviceLabel, sourceIP string) error {
	body := fmt.Sprintf(
		`<p>Your account was just signed in from a new device.</p>
<p><strong>Device:</strong> %s<br><strong>IP address:</strong> %s</p>
<p>If this was you, no action is needed. If you do not recognize this
sign-in, change your password immediately and sign out of all devices.</p>`,
		deviceLabel, sourceIP,
	)

	return n.mail.SendHTML([]string{email}, "New sign-in to your account", body)
}

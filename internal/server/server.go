package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Pudd11ng/wallet/internal/core/handler"
	"github.com/Pudd11ng/wallet/internal/core/idempotency"
	"github.com/Pudd11ng/wallet/internal/core/identity"
	"github.com/Pudd11ng/wallet/internal/core/logger"
	middlWre "github.com/Pudd11ng/wallet/internal/core/middleware"
	"github.com/Pudd11ng/wallet/internal/core/pipeline"
	"github.com/Pudd11ng/wallet/internal/core/relay"
	"github.com/Pudd11ng/wallet/internal/core/repository/postgres"
	"github.com/Pudd11ng/wallet/internal/core/usecase"
	"github.com/Pudd11ng/wallet/pkg/config"
	"github.com/Pudd11ng/wallet/pkg/postgresdb"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
)

type Server struct {
	router        *mux.Router
	log           logger.Logger
	cfg           *config.Config
	httpServer    *http.Server
	walletHandler *handler.WalletHandler
	db            *postgresdb.Database
	rdb           *redis.Client
	publisher     relay.Publisher
	outboxRelay   *relay.Relay
	relayCancel   context.CancelFunc
}

func NewServer(log logger.Logger) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := postgresdb.NewPostgresDB(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ledgerRepo := postgres.NewLedgerRepository(db.DB, log)
	outboxRepo := postgres.NewOutboxRepository(db.DB, log)

	guard := idempotency.NewGuard(rdb, log)
	resolver := identity.NewHTTPClient(cfg.AuthServiceURL, cfg.IdentityTimeout, log)

	chain := pipeline.NewChain(log,
		pipeline.NewValidationHandler(log),
		pipeline.NewLimitCheckHandler(cfg.TransferMaxLimit, log),
		pipeline.NewLedgerUpdateHandler(log),
	)

	transferUsecase := usecase.NewTransferUsecase(ledgerRepo, chain, resolver, log)
	walletUsecase := usecase.NewWalletUsecase(ledgerRepo, log)
	walletHandler := handler.NewWalletHandler(transferUsecase, walletUsecase, guard, log)

	publisher := relay.NewKafkaPublisher(cfg.KafkaBrokers)
	outboxRelay := relay.New(outboxRepo, publisher, cfg.OutboxRelayInterval, cfg.OutboxBatchSize, log)

	server := &Server{
		log:           log,
		cfg:           cfg,
		router:        mux.NewRouter(),
		walletHandler: walletHandler,
		db:            db,
		rdb:           rdb,
		publisher:     publisher,
		outboxRelay:   outboxRelay,
	}

	server.router.Use(middlWre.RequestLogging(log))

	mw := middleware.New(middleware.Config{
		Recorder: prometheus.NewRecorder(prometheus.Config{}),
	})

	server.router.Use(func(next http.Handler) http.Handler {
		return std.Handler("", mw, next)
	})

	server.RegisterRoutes()

	return server, nil
}

func (s *Server) RegisterRoutes() {
	s.router.Use(middlWre.Recovery(s.log))
	s.walletHandler.RegisterRoutes(s.router)
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
}

func (s *Server) Run(addr string) error {
	relayCtx, cancel := context.WithCancel(context.Background())
	s.relayCancel = cancel
	s.outboxRelay.Start(relayCtx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      12 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
	}

	s.httpServer = srv

	return srv.ListenAndServe()
}

func (s *Server) Addr() string {
	return s.cfg.HTTPAddr
}

func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	var shutdownErr error

	go func() {
		if s.relayCancel != nil {
			s.relayCancel()
			s.outboxRelay.Wait()
		}

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.log.Error("failed to shutdown HTTP server", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
			}
		}

		if s.publisher != nil {
			if err := s.publisher.Close(); err != nil {
				s.log.Error("failed to close Kafka publisher", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("kafka publisher shutdown error: %w", err)
			}
		}

		if s.rdb != nil {
			if err := s.rdb.Close(); err != nil {
				s.log.Error("failed to close Redis connection", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("redis shutdown error: %w", err)
			}
		}

		if s.db != nil {
			if err := s.db.Close(); err != nil {
				s.log.Error("failed to close database connection", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("database shutdown error: %w", err)
			}
		}

		close(done)
	}()

	select {
	case <-done:
		return shutdownErr
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

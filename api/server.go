package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tonflip/application"
	"tonflip/config"
	"tonflip/infrastructure/observability"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

// Handlers groups the application operations the API exposes
type Handlers struct {
	Profiles    application.ProfileHandler
	Wagers      application.WagerHandler
	Tasks       application.TaskHandler
	Purchases   application.PurchaseHandler
	Referrals   application.ReferralHandler
	Leaderboard application.LeaderboardHandler
}

// HealthCheck reports whether the service's dependencies are reachable
type HealthCheck func(ctx context.Context) error

// Server is the Mini App's HTTP API
type Server struct {
	cfg      *config.Config
	handlers Handlers
	feed     *FeedHub
	limiter  *RateLimiter
	health   HealthCheck
	handler  http.Handler
}

// NewServer builds the router. feed and health may be nil.
func NewServer(cfg *config.Config, handlers Handlers, feed *FeedHub, health HealthCheck) *Server {
	s := &Server{
		cfg:      cfg,
		handlers: handlers,
		feed:     feed,
		limiter:  NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		health:   health,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()
	router.Use(recoveryMiddleware, loggingMiddleware, observability.InstrumentHandler)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	// Browsers cannot attach headers to WebSocket handshakes, the public feed stays unauthenticated
	if s.feed != nil {
		router.Handle("/api/v1/plays/live", s.feed).Methods(http.MethodGet)
	}

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.Use(authMiddleware(s.cfg.TelegramBotToken, s.cfg.InitDataMaxAge), s.limiter.Handler)

	v1.HandleFunc("/session", s.handleSession).Methods(http.MethodPost)

	v1.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	v1.HandleFunc("/profile/referrals", s.handleListReferrals).Methods(http.MethodGet)
	v1.HandleFunc("/profile/referrals/claim", s.handleClaimReferrals).Methods(http.MethodPost)
	v1.HandleFunc("/profile/wallet", s.handleConnectWallet).Methods(http.MethodPut)
	v1.HandleFunc("/profile/wallet", s.handleDisconnectWallet).Methods(http.MethodDelete)

	v1.HandleFunc("/flip", s.handleFlip).Methods(http.MethodPost)

	v1.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	v1.HandleFunc("/tasks/{taskID}/claim", s.handleClaimTask).Methods(http.MethodPost)

	v1.HandleFunc("/purchases", s.handleInitiatePurchase).Methods(http.MethodPost)
	v1.HandleFunc("/purchases/{purchaseID}/verify", s.handleVerifyPurchase).Methods(http.MethodPost)

	v1.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/plays", s.handleRecentPlays).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         600,
	}).Handler(router)
}

// Run serves HTTP on the configured address until ctx is cancelled, then
// drains in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.limiter.StartCleanup(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	if s.feed != nil {
		s.feed.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	log.Info("HTTP server stopped")
	return nil
}

package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thelpatil/quotal/internal/catalog"
	"github.com/thelpatil/quotal/internal/config"
	"github.com/thelpatil/quotal/internal/currency"
	"github.com/thelpatil/quotal/internal/db"
	"github.com/thelpatil/quotal/internal/logging"
	"github.com/thelpatil/quotal/internal/migrations"
	"github.com/thelpatil/quotal/internal/quotes"
	"github.com/thelpatil/quotal/internal/seed"
)

type server struct {
	logger  *zap.Logger
	auth    *authService
	catalog *catalog.Store
	rates   *currency.RateStore
	repo    *quotes.Repository
}

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		logger.Fatal("failed to run startup seed", zap.Error(err))
	}
	if stats.Inserts > 0 {
		logger.Info("startup seed applied", zap.Int("inserts", stats.Inserts))
	}

	srv := &server{
		logger:  logger,
		auth:    newAuthService(database, cfg.SessionSecret),
		catalog: catalog.NewStore(database),
		rates:   currency.NewRateStore(database),
		repo:    quotes.New(database),
	}

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.router()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Post("/calculate/web", s.handleCalculateWeb)
		r.Post("/calculate/design", s.handleCalculateDesign)
		r.Post("/calculate/video", s.handleCalculateVideo)
		r.Post("/calculate/discount", s.handleApplyDiscount)

		r.Get("/quotes", s.handleListQuotes)
		r.Post("/quotes", s.handleSaveQuote)
		r.Get("/quotes/{id}", s.handleGetQuote)
		r.Delete("/quotes/{id}", s.handleDeleteQuote)
		r.Put("/quotes/{id}/status", s.handleQuoteStatus)

		r.Get("/clients", s.handleListClients)

		r.Get("/team", s.handleListMembers)
		r.Post("/team", s.handleSaveMember)
		r.Put("/team/{id}/active", s.handleMemberActive)
		r.Delete("/team/{id}", s.handleDeleteMember)
		r.Post("/team/shares", s.handleTeamShares)

		r.Get("/admin/rates", s.handleGetRates)
		r.Put("/admin/rates", s.handlePutRates)
		r.Get("/admin/exchange-rates", s.handleGetExchangeRates)
		r.Put("/admin/exchange-rates", s.handlePutExchangeRates)
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r, s.auth) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package main

import (
	"net/http"
	"os"
	"time"

	"github.com/RahulSJav/Expenses/internal/config"
	"github.com/RahulSJav/Expenses/internal/handlers"
	"github.com/RahulSJav/Expenses/internal/log"
	"github.com/RahulSJav/Expenses/internal/service"
	"github.com/RahulSJav/Expenses/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(cfg.LogLevel, log.ComponentApp)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.CleanExpiredSessions(); err != nil {
		logger.Warn("failed to clean expired sessions", "error", err)
	}

	svc := service.New(db, logger)
	h := handlers.NewHandlers(db, svc, cfg.TemplateDir, cfg.SecureCookie, logger)
	mux := setupRouter(h, cfg.StaticDir)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port, "db", cfg.DBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupRouter registers all routes. Protected routes go through the auth
// middleware and are never served without a valid session.
func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/expenses", http.StatusFound)
	})

	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)

	mux.Handle("GET /expenses", h.AuthMiddleware(http.HandlerFunc(h.ListExpenses)))
	mux.Handle("POST /expenses", h.AuthMiddleware(http.HandlerFunc(h.SubmitExpenses)))
	mux.Handle("GET /logout", h.AuthMiddleware(http.HandlerFunc(h.Logout)))

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	return mux
}

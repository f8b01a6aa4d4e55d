package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quit-tracker/internal/auth"
	"quit-tracker/internal/config"
	"quit-tracker/internal/handlers"
	"quit-tracker/internal/logger"
	"quit-tracker/internal/scheduler"
	"quit-tracker/internal/storage"
	"quit-tracker/internal/tracker"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := bootstrapAdmin(db, cfg.AdminUser, cfg.AdminPassword, log); err != nil {
		return err
	}

	tr := tracker.NewService(db, tracker.WithLogger(log))
	h := handlers.NewHandlers(db, tr, cfg.TemplateDir, cfg.SecureCookie, log)

	go scheduler.NewJanitor(db, log, cfg.SessionSweepInterval).Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, cfg.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// bootstrapAdmin creates the first account from the environment when the
// users table is empty.
func bootstrapAdmin(db *storage.DB, username, password string, log *zap.Logger) error {
	if username == "" || password == "" {
		return nil
	}
	count, err := db.UserCount()
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return nil
	}
	id, err := auth.NewService(db).Register(username, password)
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	log.Info("admin user created", zap.String("username", username), zap.Int64("account_id", id))
	return nil
}

func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /signup", h.SignupForm)
	mux.HandleFunc("POST /signup", h.Signup)
	mux.HandleFunc("POST /logout", h.Logout)

	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}
	mux.Handle("GET /tracker", protected(h.Tracker))
	mux.Handle("POST /tracker/start", protected(h.StartJourney))
	mux.Handle("POST /tracker/restart", protected(h.RestartJourney))
	mux.Handle("GET /settings", protected(h.SettingsForm))
	mux.Handle("POST /settings", protected(h.SaveSettings))
	mux.Handle("GET /breakdown/{kind}", protected(h.Breakdown))
	mux.Handle("GET /chart", protected(h.Chart))
	mux.Handle("GET /health", protected(h.Health))
	mux.Handle("GET /resets", protected(h.Resets))
	mux.Handle("GET /api/summary", protected(h.APISummary))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/tracker", http.StatusFound)
	})

	return mux
}

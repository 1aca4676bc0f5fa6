package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/viaduct-auth/viaduct/internal/auth"
	"github.com/viaduct-auth/viaduct/internal/classroom"
	"github.com/viaduct-auth/viaduct/internal/config"
	"github.com/viaduct-auth/viaduct/internal/oauth"
	"github.com/viaduct-auth/viaduct/internal/token"
)

func main() {
	// Load config first so we can set log level
	cfg, err := config.LoadConfig()
	if err != nil {
		// Fallback logger before config is available
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}

	// Include source location in log entries at debug level only.
	addSrc := cfg.LogLevel == slog.LevelDebug

	// Set up slog to output as json with configured level
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: addSrc,
	})))

	// Cancel ctx on SIGINT/SIGTERM; run() shuts down when ctx is done.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, nil); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// run holds all server logic and returns error instead of calling os.Exit.
// Shuts down when ctx is cancelled (signal handling is the caller's concern).
// If ready is non-nil, the server's base URL is sent on it once the listener
// is bound.
func run(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	codec, err := token.NewCodec(cfg.LocalJWTSecret, cfg.FirebaseClientEmail, cfg.FirebasePrivateKey)
	if err != nil {
		return fmt.Errorf("failed to set up token codec: %w", err)
	}

	// NewGoogleExchanger fetches the provider's OIDC discovery document, so
	// it needs network access at startup.
	exchanger, err := oauth.NewGoogleExchanger(ctx,
		cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.PublicURL+"/oauth/callback")
	if err != nil {
		return fmt.Errorf("failed to set up oauth exchanger: %w", err)
	}

	h := &auth.Handler{
		Codec:     codec,
		Exchanger: exchanger,
		NewRoster: classroom.NewGoogleRoster,
		PublicURL: cfg.PublicURL,
		APBaseURL: cfg.APBaseURL,
		AuthTTL:   cfg.AuthTTL,
	}

	// Bind listener; ":0" picks a free port (useful in tests).
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{Handler: buildRouter(h)}

	// Start server in a goroutine; run() continues past this.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("viaduct listening", "addr", ln.Addr().String())
		// Send error only if server stops for a reason other than explicit shutdown.
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Signal readiness to caller (used by tests; nil in production).
	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	// Wait for server error or shutdown signal from ctx.
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// buildRouter wires all routes and middleware.
// Called from run() and from smoke tests.
func buildRouter(h *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// The portal and report-service frontends call the API from their own
	// origins with the portal bearer token.
	r.Use(cors.New(cors.Options{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		auth.NotFound(w, "Route not found: "+r.URL.Path)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/addon-discovery", http.StatusFound)
	})

	// Public pages and the OAuth round trip.
	r.Get("/signin", h.SigninPage)
	r.Get("/closepopup", h.ClosePopupPage)
	r.Get("/failed", h.FailedPage)
	r.Get("/oauth/login", h.OAuthLogin)
	r.Get("/oauth/callback", h.OAuthCallback)

	// gc-auth cookie required.
	r.Group(func(r chi.Router) {
		r.Use(h.RequireGoogleAuth)
		r.Get("/addon-discovery", h.DiscoveryPage)
		r.Get("/profile", h.Profile)
		r.Get("/resource-launch", h.ResourceLaunch)
		r.Get("/api/v1/jwt/portal", h.PortalJWT)
	})

	// Portal bearer token required. The cookie plays no part here: the
	// provider credentials ride inside the portal token itself.
	r.Group(func(r chi.Router) {
		r.Use(h.RequirePortalToken)
		r.Get("/api/v1/classes/{courseId}", h.ClassInfo)
		r.Get("/api/v1/offerings/{id}", h.OfferingInfo)
		r.Get("/api/v1/jwt/firebase", h.FirebaseJWT)
	})

	return r
}

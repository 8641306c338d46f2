package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fxgdesigns1/cohost/internal/di"
	approvalhandler "github.com/fxgdesigns1/cohost/internal/handler/approval"
	oauthhandler "github.com/fxgdesigns1/cohost/internal/handler/oauth"
	pollhandler "github.com/fxgdesigns1/cohost/internal/handler/poll"
	tenanthandler "github.com/fxgdesigns1/cohost/internal/handler/tenant"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	port := getEnv("PORT", "8080")
	baseURL := getEnv("BASE_URL", "http://localhost:"+port)

	cfg := di.Config{
		Storage:              getEnv("STORAGE", di.StorageMySQL),
		DBHost:               os.Getenv("DB_HOST"),
		DBPort:               os.Getenv("DB_PORT"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               os.Getenv("DB_NAME"),
		GmailCredentialsPath: os.Getenv("GMAIL_CREDENTIALS_PATH"),
		OAuthRedirectURL:     getEnv("OAUTH_REDIRECT_URI", baseURL+"/oauth/callback"),
		BaseURL:              baseURL,
		SecretKey:            os.Getenv("SECRET_KEY"),
		TokenTTL:             getEnvDuration("TOKEN_TTL", 0),
		AutoMode:             getEnvBool("AUTO_MODE", false),
		PollQuery:            os.Getenv("POLL_QUERY"),
		PollMaxResults:       getEnvInt64("POLL_MAX_RESULTS", 0),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          os.Getenv("GEMINI_MODEL"),
		LineChannelToken:     os.Getenv("LINE_CHANNEL_TOKEN"),
	}
	if cfg.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	tenantHandler := tenanthandler.NewTenantHandler(container.TenantRepo)
	oauthHandler := oauthhandler.NewGmailOAuthHandler(container.TenantRepo, container.CredentialRepo, container.MailboxRepo, container.LineRepo)
	pollHandler := pollhandler.NewPollHandler(container.PollerService)
	approvalHandler := approvalhandler.NewApprovalHandler(container.ApprovalService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tenants/register", tenantHandler.HandleRegister)
	mux.HandleFunc("POST /tenants/{hostId}/listings/{listingId}", tenantHandler.HandleUpsertListing)
	mux.HandleFunc("GET /tenants/{hostId}/listings/{listingId}", tenantHandler.HandleGetListing)
	mux.HandleFunc("GET /oauth/start", oauthHandler.HandleStart)
	mux.HandleFunc("GET /oauth/callback", oauthHandler.HandleCallback)
	mux.HandleFunc("POST /poll", pollHandler.HandlePoll)
	mux.HandleFunc("GET /approve", approvalHandler.HandleApprove)
	mux.HandleFunc("GET /edit", approvalHandler.HandleEditForm)
	mux.HandleFunc("POST /edit/send", approvalHandler.HandleEditSend)
	mux.HandleFunc("GET /reject", approvalHandler.HandleReject)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("shutdown completed")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid boolean env value", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		slog.Warn("invalid integer env value", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration env value", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

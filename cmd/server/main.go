package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"user-session-api/internal/audit"
	auditrepo "user-session-api/internal/audit/repository"
	"user-session-api/internal/authz"
	"user-session-api/internal/config"
	"user-session-api/internal/db"
	"user-session-api/internal/security"
	"user-session-api/internal/server"
	"user-session-api/internal/server/middleware"
	sessionhandler "user-session-api/internal/session/handler"
	sessionrepo "user-session-api/internal/session/repository"
	sessionservice "user-session-api/internal/session/service"
	"user-session-api/internal/telemetry/otel"
	userhandler "user-session-api/internal/user/handler"
	userrepo "user-session-api/internal/user/repository"
	userservice "user-session-api/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "user-session-api", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	policy, err := authz.NewRoutePolicy(ctx)
	if err != nil {
		log.Fatalf("route policy: %v", err)
	}

	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.Expiry())
	cookies := security.NewCookieManager(cfg.CookieSecure, cfg.CookieTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), middleware.ClientIPFrom)

	usvc := userservice.New(users, hasher)
	ssvc := sessionservice.New(users, sessions, sessionservice.NewPgTxRunner(conn), tokens, hasher)

	router := server.NewRouter(server.Deps{
		Tokens:   tokens,
		Policy:   policy,
		Users:    userhandler.New(usvc, auditLogger),
		Sessions: sessionhandler.New(ssvc, cookies, auditLogger),
		Health:   conn.PingContext,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

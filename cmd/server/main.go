package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zobayer1/bankzest/config"
	"github.com/zobayer1/bankzest/internal/form"
	"github.com/zobayer1/bankzest/internal/handlers"
	"github.com/zobayer1/bankzest/internal/router"
	"github.com/zobayer1/bankzest/internal/services"
	"github.com/zobayer1/bankzest/pkg/db"
	"github.com/zobayer1/bankzest/pkg/session"
)

// version (string): Set at build-time via ldflags
var version = "version:unknown"

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Infof("BankZest auth %s", version)

	cfg, cfgErr := config.NewConfig()
	if cfgErr != nil {
		log.WithError(cfgErr).Fatal("Failed to load configuration")
	}
	level, lvlErr := log.ParseLevel(cfg.LogLevel)
	if lvlErr != nil {
		log.WithError(lvlErr).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	session.InitSession(cfg.Secret, cfg.CookieDomain, cfg.SecureCookies)

	if dbErr := db.InitDB(cfg.SqliteDb); dbErr != nil {
		log.WithError(dbErr).Fatal("Failed to initialize database")
	}
	defer func(DB *sql.DB) {
		if err := DB.Close(); err != nil {
			log.WithError(err).Error("Failed to close database connection")
		}
	}(db.DB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	identityService := services.NewIdentityService(db.DB)
	forms := form.NewRegistry(identityService, cfg.FormTTL, form.WithTimeout(cfg.SubmitTimeout))
	go forms.Run(ctx, time.Minute)

	authHandler := handlers.NewAuthHandler(forms, session.Store)
	homeHandler := handlers.NewHomeHandler(forms, session.Store)
	validationHandler := handlers.NewValidationHandler(identityService)

	server := &http.Server{
		Addr:              cfg.Host,
		Handler:           router.New(authHandler, homeHandler, validationHandler),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			CurvePreferences: []tls.CurveID{
				tls.CurveP256,
				tls.X25519,
			},
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	log.Infof("Starting server on %s", cfg.Host)
	var err error
	if cfg.TLSEnabled() {
		err = server.ListenAndServeTLS(cfg.CertPath, cfg.KeyPath)
	} else {
		log.Warn("CERT_PATH/KEY_PATH not set; serving plain HTTP")
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatalf("Failed to listen on %s", cfg.Host)
	}

	log.Info("Server terminated!")
}

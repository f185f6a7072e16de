package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/zobayer1/bankzest/internal/handlers"
	mw "github.com/zobayer1/bankzest/internal/middleware"
)

func New(
	authH *handlers.AuthHandler,
	homeH *handlers.HomeHandler,
	validationH *handlers.ValidationHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	r.Get("/", homeH.HandleHome)
	r.Get("/link-account", homeH.HandleLinkAccount)
	r.Post("/sign-out", homeH.HandleSignOut)

	r.HandleFunc("/sign-in", authH.HandleSignIn)
	r.HandleFunc("/sign-up", authH.HandleSignUp)

	r.Post("/api/validate-field", validationH.ValidateField)

	r.Get("/health", health)

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(`{"status":"healthy","service":"bankzest-auth","timestamp":"` +
		time.Now().UTC().Format(time.RFC3339) + `"}`))
	if err != nil {
		log.WithError(err).Error("Failed to write health response")
	}
}

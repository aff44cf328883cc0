/**
 * @description
 * This file sets up the HTTP router for the Kinta backend. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * any necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser-facing dashboard.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and returns the router for the Kinta backend.
func NewRouter(h *Handlers, adminJWTSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Upstash-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health/data", h.DataHealthHandler)

		// Provider webhooks
		r.Post("/webhooks/sme-plug", h.SMEPlugWebhookHandler)
		r.Post("/webhooks/vt-pass", h.VTPassWebhookHandler)

		// Provisioning endpoints. Authenticated in the handler via a shared
		// secret or the QStash signature header.
		r.Post("/generate-dedicated-account-number", h.GenerateDedicatedAccountHandler)
		r.Post("/cron/create-dedicated-accounts", h.CronTriggerHandler)
		r.Post("/cron/manage", h.CronManageHandler)

		// Group routes that require an admin JWT.
		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminJWTSecret))
			r.Post("/verify-and-correct-user-balance", h.BalanceCorrectionHandler)
		})
	})

	return r
}

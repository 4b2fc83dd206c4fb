// Package handlers builds the HTTP surface of the link auth service.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configure middleware and route paths.
type RouterOptions struct {
	Auth *Auth

	LoginPath  string
	RedeemPath string
	SentPath   string

	AllowedOrigins []string
	RateLimit      int
	RatePeriod     time.Duration

	// Trace wraps the router for distributed tracing; nil disables it.
	Trace func(http.Handler) http.Handler
}

// Router builds the HTTP router with the login flow, health, and
// metrics routes.
func Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	limit, period := opts.RateLimit, opts.RatePeriod
	if limit <= 0 {
		limit = 100
	}
	if period <= 0 {
		period = time.Minute
	}
	r.Use(httprate.Limit(limit, period))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Method("GET", "/metrics", promhttp.Handler())

	if opts.Auth != nil {
		loginPath := opts.LoginPath
		if loginPath == "" {
			loginPath = "/login"
		}
		redeemPath := opts.RedeemPath
		if redeemPath == "" {
			redeemPath = "/complete-login"
		}
		sentPath := opts.SentPath
		if sentPath == "" {
			sentPath = "/email-sent"
		}

		r.Get(loginPath, opts.Auth.LoginPage)
		r.Post(loginPath, opts.Auth.SubmitLogin)
		r.Get(redeemPath, opts.Auth.CompleteLogin)
		r.Get(sentPath, opts.Auth.EmailSentPage)
		r.Post("/logout", opts.Auth.Logout)
		r.Get("/me", opts.Auth.Me)
	}

	if opts.Trace != nil {
		return opts.Trace(r)
	}
	return r
}

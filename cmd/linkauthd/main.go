package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"linkauth/internal/config"
	"linkauth/internal/db"
	"linkauth/internal/events"
	"linkauth/internal/handlers"
	"linkauth/internal/magiclink"
	"linkauth/internal/mailer"
	"linkauth/internal/otel"
	"linkauth/internal/session"
	"linkauth/internal/store"
	"linkauth/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	shutdownTrace, trace, err := otel.Init(ctx, version.Name, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init otel")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTrace(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	database, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	if err := db.Migrate(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	if len(cfg.SeedUsers) > 0 {
		if err := db.Seed(ctx, database, cfg.SeedUsers); err != nil {
			log.Fatal().Err(err).Msg("seed users")
		}
	}

	hashKey, blockKey := session.DeriveKeys(cfg.MagicLinkSecret)
	sessions, err := session.NewStore(securecookie.New(hashKey, blockKey), session.Options{
		Name:   cfg.SessionCookie,
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init session store")
	}

	codec, err := magiclink.NewCodec(cfg.MagicLinkSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("init token codec")
	}

	var sender magiclink.Sender = mailer.LogSender{}
	if cfg.EmailFrom != "" {
		sesSender, err := mailer.NewSES(ctx, cfg.EmailFrom)
		if err != nil {
			log.Fatal().Err(err).Msg("init SES mailer")
		}
		sender = sesSender
	} else {
		log.Warn().Msg("EMAIL_FROM not set, links will be logged instead of emailed")
	}

	var publisher magiclink.Publisher
	if cfg.NATSURL != "" {
		bus, err := events.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect NATS")
		}
		defer bus.Close()
		publisher = bus
	}

	strategy, err := magiclink.New(codec, store.NewUsers(database), sender, publisher, magiclink.Options{
		SuccessRedirect: cfg.SuccessRedirect,
		FailureRedirect: cfg.LoginPath,
		SentRedirect:    cfg.SentPath,
		RedeemPath:      cfg.RedeemPath,
		SessionKey:      cfg.SessionUserKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init magic link strategy")
	}

	r := handlers.Router(handlers.RouterOptions{
		Auth:           handlers.NewAuth(strategy, sessions),
		LoginPath:      cfg.LoginPath,
		RedeemPath:     cfg.RedeemPath,
		SentPath:       cfg.SentPath,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RatePeriod:     cfg.RatePeriod,
		Trace:          trace,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("version", version.Version).Msg("starting linkauthd")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/modules/auth"
	"github.com/vianajose7/faaxis/pkg/clientip"
	"github.com/vianajose7/faaxis/pkg/config"
	"github.com/vianajose7/faaxis/pkg/cookie"
	"github.com/vianajose7/faaxis/pkg/httpserver"
	"github.com/vianajose7/faaxis/pkg/jwt"
	"github.com/vianajose7/faaxis/pkg/logger"
	"github.com/vianajose7/faaxis/pkg/mailer"
	"github.com/vianajose7/faaxis/pkg/otpcode"
	"github.com/vianajose7/faaxis/pkg/pg"
	"github.com/vianajose7/faaxis/pkg/redis"
	"github.com/vianajose7/faaxis/pkg/session"
)

type appConfig struct {
	Environment      string   `env:"APP_ENV" envDefault:"local"`
	JWTSigningSecret string   `env:"JWT_SIGNING_SECRET,required"`
	CookieSecrets    []string `env:"COOKIE_SECRET,required" envSeparator:","`
}

func main() {
	var appCfg appConfig
	config.MustLoad(&appCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, "faaxis-auth"))
	logger.SetAsDefault(log)

	if err := run(context.Background(), appCfg, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg appConfig, log *slog.Logger) error {
	var probes []func(context.Context) error

	// Postgres is optional in local development; without it the account
	// storage is in-memory and nothing survives a restart.
	var accountStorage account.Storage = account.NewMemoryStorage()
	if os.Getenv("PG_CONN_URL") != "" {
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return err
		}
		accountStorage = account.NewPGStorage(pool)
		probes = append(probes, pg.Healthcheck(pool))
	}

	cookieMgr, err := cookie.New(appCfg.CookieSecrets)
	if err != nil {
		return err
	}

	var sessionCfg session.Config
	config.MustLoad(&sessionCfg)
	var otpCfg otpcode.Config
	config.MustLoad(&otpCfg)

	sessionStore := session.Store(session.NewMemoryStore(sessionCfg.CleanupInterval))
	otpStore := otpcode.Store(otpcode.NewMemoryStore(otpCfg.CleanupInterval))
	if os.Getenv("REDIS_URL") != "" {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		sessionStore = session.NewRedisStore(client)
		otpStore = otpcode.NewRedisStore(client)
		probes = append(probes, redis.Healthcheck(client))
	}

	sessions := session.New(
		session.WithConfig(sessionCfg),
		session.WithStore(sessionStore),
		session.WithTransport(session.NewCookieTransport(cookieMgr, sessionCfg.CookieName, sessionCfg.SecureCookies)),
	)
	defer sessions.Close()

	codes := otpcode.New(otpCfg, otpcode.WithStore(otpStore), otpcode.WithLogger(log))

	var emailSender mailer.EmailSender
	if os.Getenv("POSTMARK_SERVER_TOKEN") != "" {
		var mailCfg mailer.Config
		config.MustLoad(&mailCfg)
		emailSender, err = mailer.NewPostmarkSender(mailCfg)
		if err != nil {
			return err
		}
	} else {
		emailSender = mailer.NewLogSender(log)
	}

	var accountCfg account.Config
	config.MustLoad(&accountCfg)
	accounts, err := account.NewService(accountCfg, accountStorage,
		account.WithLogger(log),
		account.WithSessionDestroyer(sessions),
		account.WithEmailSender(emailSender),
	)
	if err != nil {
		return err
	}

	issuer, err := jwt.New(appCfg.JWTSigningSecret)
	if err != nil {
		return err
	}

	resolver := auth.NewResolver(issuer, sessions, accounts, auth.WithResolverLogger(log))
	gate := auth.NewStepUpGate(sessions, codes, accounts,
		auth.WithGateLogger(log),
		auth.WithGateEmailSender(emailSender),
	)
	authHandler := auth.NewHandler(accounts, sessions, issuer, codes, gate, resolver,
		auth.WithHandlerLogger(log),
		auth.WithHandlerEmailSender(emailSender),
	)

	router := chi.NewRouter()
	router.Use(chimw.Recoverer, clientip.Middleware)
	router.Get("/healthz", httpserver.HealthCheckHandler(ctx, log, probes...))
	router.Mount("/auth", authHandler.Routes())

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)
	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("http server listening", slog.String("addr", httpCfg.Addr))
		}),
	)

	return srv.Run(ctx, router)
}

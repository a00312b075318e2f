package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"

	"github.com/assia769/Assojet-sub000/pkg/authflow"
	authapi "github.com/assia769/Assojet-sub000/pkg/authflow/api"
	"github.com/assia769/Assojet-sub000/pkg/clock"
	"github.com/assia769/Assojet-sub000/pkg/config"
	"github.com/assia769/Assojet-sub000/pkg/directory"
	"github.com/assia769/Assojet-sub000/pkg/login"
	"github.com/assia769/Assojet-sub000/pkg/notification"
	"github.com/assia769/Assojet-sub000/pkg/pendingsession"
	"github.com/assia769/Assojet-sub000/pkg/tokengenerator"
	"github.com/assia769/Assojet-sub000/pkg/twofa"
)

type Config struct {
	AuthDbConfig config.AuthDbConfig
	AppConfig    app.AppConfig
	JwtConfig    config.JwtConfig
	TwoFaConfig  config.TwoFaConfig
	EmailConfig  config.EmailConfig
}

func main() {
	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	dbConfig := cfg.AuthDbConfig.ToDbConfig()
	pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database,
			"host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(-1)
	}

	// Repositories
	userRepo := directory.NewPostgresUserRepository(pool)
	twofaRepo, err := twofa.NewRepository("postgres", twofa.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed creating 2FA repository", "err", err)
		os.Exit(-1)
	}
	pendingRepo := pendingsession.NewPostgresRepository(pool)

	// Account notices by email, optional in dev
	var notifier notification.Notifier
	if cfg.EmailConfig.Enabled {
		emailNotifier, err := notification.NewEmailNotifier(cfg.EmailConfig.ToSMTPConfig())
		if err != nil {
			slog.Error("Failed creating email notifier", "err", err)
			os.Exit(-1)
		}
		notifier = emailNotifier
	}
	notificationManager := notification.NewNotificationManager(notifier)

	// Services
	clk := clock.NewSystemClock()
	authFlowService := authflow.NewService(
		login.NewLoginService(userRepo, login.NewBcryptHasher(0)),
		twofa.NewTwoFaService(twofaRepo, clk,
			twofa.WithIssuer(cfg.TwoFaConfig.Issuer),
			twofa.WithBackupCodeCount(cfg.TwoFaConfig.BackupCodeCount),
		),
		pendingsession.NewService(pendingRepo, clk,
			pendingsession.WithTTL(cfg.TwoFaConfig.PendingTTL()),
		),
		directory.NewDirectoryService(userRepo),
		tokengenerator.NewJwtTokenGenerator(cfg.JwtConfig.JwtSecret, cfg.JwtConfig.Issuer, cfg.JwtConfig.Audience),
		notificationManager,
		clk,
		authflow.WithSessionExpiry(cfg.JwtConfig.Expiry()),
	)

	cookieSetter := tokengenerator.NewCookieSetter(cfg.JwtConfig.CookieHttpOnly, cfg.JwtConfig.CookieSecure)
	handle := authapi.NewHandle(authFlowService, cookieSetter)
	tokenAuth := jwtauth.New("HS256", []byte(cfg.JwtConfig.JwtSecret), nil)

	server.R.Group(handle.Routes)
	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		handle.ProtectedRoutes(r)
	})

	server.Run()
}

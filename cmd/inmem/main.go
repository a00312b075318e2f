// Package main runs the clinic auth service without a database using
// in-memory repositories. This is useful for:
// - Quick development and testing
// - Demo/prototype environments
// - Learning the API without database setup
//
// Note: All data is lost when the server stops. For production, use
// cmd/clinicauth with PostgreSQL.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/tendant/chi-demo/app"

	"github.com/assia769/Assojet-sub000/pkg/authflow"
	authapi "github.com/assia769/Assojet-sub000/pkg/authflow/api"
	"github.com/assia769/Assojet-sub000/pkg/clock"
	"github.com/assia769/Assojet-sub000/pkg/directory"
	"github.com/assia769/Assojet-sub000/pkg/login"
	"github.com/assia769/Assojet-sub000/pkg/notification"
	"github.com/assia769/Assojet-sub000/pkg/pendingsession"
	"github.com/assia769/Assojet-sub000/pkg/tokengenerator"
	"github.com/assia769/Assojet-sub000/pkg/twofa"
)

const (
	jwtSecret = "inmem-dev-secret-change-in-production"
	issuer    = "clinic-portal"
	audience  = "clinic-portal-web"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting in-memory clinic auth service (no database required)")
	slog.Info(strings.Repeat("=", 60))

	userRepo := directory.NewInMemoryUserRepository()
	hasher := login.NewBcryptHasher(0)
	seedUsers(userRepo, hasher)

	clk := clock.NewSystemClock()
	authFlowService := authflow.NewService(
		login.NewLoginService(userRepo, hasher),
		twofa.NewTwoFaService(twofa.NewInMemoryRepository(), clk),
		pendingsession.NewService(pendingsession.NewInMemoryRepository(), clk),
		directory.NewDirectoryService(userRepo),
		tokengenerator.NewJwtTokenGenerator(jwtSecret, issuer, audience),
		notification.NewNotificationManager(&notification.MockNotifier{}),
		clk,
	)

	cookieSetter := tokengenerator.NewCookieSetter(true, false)
	handle := authapi.NewHandle(authFlowService, cookieSetter)
	tokenAuth := jwtauth.New("HS256", []byte(jwtSecret), nil)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)

	server.R.Group(handle.Routes)
	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		handle.ProtectedRoutes(r)
	})

	slog.Info(strings.Repeat("=", 60))
	slog.Info("Clinic auth service ready")
	slog.Info("")
	slog.Info("Test credentials:")
	slog.Info("  Email:    admin@clinic.example")
	slog.Info("  Password: password123")
	slog.Info("")
	slog.Info("API Endpoints:")
	slog.Info("  POST /login          - First factor")
	slog.Info("  POST /login/verify   - Second factor")
	slog.Info("  POST /2fa/setup      - Start enrollment (auth required)")
	slog.Info("  POST /2fa/confirm    - Confirm enrollment (auth required)")
	slog.Info("  POST /2fa/disable    - Disable 2FA (auth required)")
	slog.Info(strings.Repeat("=", 60))

	server.Run()
}

func seedUsers(repo *directory.InMemoryUserRepository, hasher login.PasswordHasher) {
	seeds := []struct {
		email string
		name  string
		role  directory.Role
	}{
		{"admin@clinic.example", "Admin", directory.RoleAdmin},
		{"doctor@clinic.example", "Dr. Demo", directory.RoleDoctor},
		{"secretary@clinic.example", "Front Desk", directory.RoleSecretary},
		{"patient@clinic.example", "Pat Patient", directory.RolePatient},
	}

	for _, seed := range seeds {
		hash, err := hasher.Hash("password123")
		if err != nil {
			slog.Error("Failed hashing seed password", "err", err)
			os.Exit(-1)
		}
		_, err = repo.CreateUser(context.Background(), directory.User{
			Email:        seed.email,
			Name:         seed.name,
			Role:         seed.role,
			PasswordHash: hash,
		})
		if err != nil {
			slog.Error("Failed seeding user", "email", seed.email, "err", err)
			os.Exit(-1)
		}
		slog.Info("Seeded user", "email", seed.email, "role", seed.role)
	}
}

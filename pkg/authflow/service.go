package authflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/assia769/Assojet-sub000/pkg/clock"
	"github.com/assia769/Assojet-sub000/pkg/directory"
	errs "github.com/assia769/Assojet-sub000/pkg/errors"
	"github.com/assia769/Assojet-sub000/pkg/login"
	"github.com/assia769/Assojet-sub000/pkg/notification"
	"github.com/assia769/Assojet-sub000/pkg/pendingsession"
	"github.com/assia769/Assojet-sub000/pkg/tokengenerator"
	"github.com/assia769/Assojet-sub000/pkg/twofa"
	"github.com/assia769/Assojet-sub000/pkg/utils"
)

// DefaultSessionExpiry is the lifetime of an authenticated session token.
const DefaultSessionExpiry = 8 * time.Hour

// Service drives the login and 2FA lifecycle flows end to end.
type Service struct {
	loginService   *login.LoginService
	twoFaService   *twofa.TwoFaService
	pendingService *pendingsession.Service
	directory      *directory.DirectoryService
	tokenGenerator tokengenerator.TokenGenerator
	notifications  *notification.NotificationManager
	clock          clock.Clock
	sessionExpiry  time.Duration
}

type Option func(*Service)

func WithSessionExpiry(d time.Duration) Option {
	return func(s *Service) {
		s.sessionExpiry = d
	}
}

func NewService(
	loginService *login.LoginService,
	twoFaService *twofa.TwoFaService,
	pendingService *pendingsession.Service,
	directoryService *directory.DirectoryService,
	tokenGenerator tokengenerator.TokenGenerator,
	notifications *notification.NotificationManager,
	clk clock.Clock,
	opts ...Option,
) *Service {
	svc := &Service{
		loginService:   loginService,
		twoFaService:   twoFaService,
		pendingService: pendingService,
		directory:      directoryService,
		tokenGenerator: tokenGenerator,
		notifications:  notifications,
		clock:          clk,
		sessionExpiry:  DefaultSessionExpiry,
	}
	if svc.clock == nil {
		svc.clock = clock.NewSystemClock()
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// BeginLogin checks the first factor. Accounts without 2FA get a full
// session immediately; accounts with 2FA get a pending token to present
// with their second-factor code.
func (s *Service) BeginLogin(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.loginService.VerifyCredentials(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	if !user.TwoFactorEnabled {
		session, err := s.issueSession(ctx, user)
		if err != nil {
			return LoginResult{}, err
		}
		slog.Info("login completed without 2FA", "user_id", user.ID)
		return LoginResult{Session: &session}, nil
	}

	pending, err := s.pendingService.Issue(ctx, user.ID, pendingsession.PurposeLoginVerify)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		RequiresTwoFA: true,
		PendingToken:  pending.Token,
		ExpiresIn:     int(pending.ExpiresAt.Sub(pending.IssuedAt).Seconds()),
	}, nil
}

// VerifyLogin completes a login by validating a second-factor code against
// a pending token issued by BeginLogin.
func (s *Service) VerifyLogin(ctx context.Context, pendingToken, code string) (AuthenticatedSession, error) {
	user, err := s.verifyCode(ctx, pendingToken, code, pendingsession.PurposeLoginVerify)
	if err != nil {
		return AuthenticatedSession{}, err
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return AuthenticatedSession{}, err
	}
	slog.Info("login completed with 2FA", "user_id", user.ID)
	return session, nil
}

// BeginEnrollment provisions 2FA secret material for the user and issues
// the pending token their confirmation code must accompany.
func (s *Service) BeginEnrollment(ctx context.Context, userID uuid.UUID) (EnrollmentResult, error) {
	user, err := s.directory.FindUserByID(ctx, userID)
	if err != nil {
		return EnrollmentResult{}, err
	}

	artifacts, err := s.twoFaService.ProvisionEnrollment(ctx, user)
	if err != nil {
		return EnrollmentResult{}, err
	}

	pending, err := s.pendingService.Issue(ctx, user.ID, pendingsession.PurposeSetupVerify)
	if err != nil {
		return EnrollmentResult{}, err
	}

	return EnrollmentResult{
		PendingToken:    pending.Token,
		ExpiresIn:       int(pending.ExpiresAt.Sub(pending.IssuedAt).Seconds()),
		Secret:          artifacts.Secret,
		ProvisioningURI: artifacts.ProvisioningURI,
		BackupCodes:     artifacts.BackupCodes,
	}, nil
}

// ConfirmEnrollment activates a provisional enrollment once the user
// proves possession of the secret with a valid authenticator code.
func (s *Service) ConfirmEnrollment(ctx context.Context, pendingToken, code string) error {
	user, err := s.verifyCode(ctx, pendingToken, code, pendingsession.PurposeSetupVerify)
	if err != nil {
		return err
	}

	if err := s.twoFaService.PromoteEnrollment(ctx, user.ID); err != nil {
		return err
	}
	if err := s.directory.SetTwoFactorEnabled(ctx, user.ID, true); err != nil {
		return err
	}

	s.notify(notification.NoticeTwoFAEnabled, user)
	slog.Info("2FA enrollment confirmed", "user_id", user.ID)
	return nil
}

// Disable2FA turns off 2FA for the user. The caller is already
// authenticated; the password re-check gates the action against a
// hijacked session.
func (s *Service) Disable2FA(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.directory.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.loginService.VerifyPassword(ctx, userID, password); err != nil {
		slog.Info("2FA disable rejected", "user_id", userID)
		return err
	}

	if err := s.twoFaService.Disable(ctx, userID); err != nil {
		return err
	}
	if err := s.directory.SetTwoFactorEnabled(ctx, userID, false); err != nil {
		return err
	}

	s.notify(notification.NoticeTwoFADisabled, user)
	return nil
}

// verifyCode is the shared second-factor check. It resolves the pending
// token, classifies the submitted code by shape, validates it, and only
// then consumes the token. A failed validation leaves the pending session
// intact for another attempt; a lost consume race surfaces as
// InvalidSession.
func (s *Service) verifyCode(ctx context.Context, pendingToken, code, purpose string) (directory.User, error) {
	pending, err := s.pendingService.Resolve(ctx, pendingToken)
	if err != nil {
		return directory.User{}, err
	}
	if pending.Purpose != purpose {
		slog.Warn("pending session purpose mismatch",
			"user_id", pending.UserID, "have", pending.Purpose, "want", purpose)
		return directory.User{}, errs.New(errs.ErrCodeInvalidSession, "invalid or expired session")
	}

	user, err := s.directory.FindUserByID(ctx, pending.UserID)
	if err != nil {
		return directory.User{}, err
	}

	switch {
	case twofa.IsTotpFormat(code):
		provisional := purpose == pendingsession.PurposeSetupVerify
		valid, err := s.twoFaService.ValidateTotp(ctx, user.ID, code, provisional)
		if err != nil {
			return directory.User{}, err
		}
		if !valid {
			return directory.User{}, errs.New(errs.ErrCodeInvalidCode, "invalid verification code")
		}

	case twofa.IsBackupCodeFormat(code):
		// Backup codes recover access to an already working 2FA setup;
		// they cannot prove possession of a new secret.
		if purpose != pendingsession.PurposeLoginVerify {
			return directory.User{}, errs.New(errs.ErrCodeInvalidCode, "invalid verification code")
		}
		consumed, err := s.twoFaService.ConsumeBackupCode(ctx, user.ID, code)
		if err != nil {
			return directory.User{}, err
		}
		if !consumed {
			return directory.User{}, errs.New(errs.ErrCodeInvalidCode, "invalid verification code")
		}

	default:
		return directory.User{}, errs.New(errs.ErrCodeInvalidCode, "invalid verification code")
	}

	// Consume after validation so failed attempts can retry. The
	// conditional update makes concurrent winners impossible.
	if err := s.pendingService.Consume(ctx, pendingToken); err != nil {
		return directory.User{}, err
	}
	return user, nil
}

func (s *Service) issueSession(ctx context.Context, user directory.User) (AuthenticatedSession, error) {
	token, expiresAt, err := s.tokenGenerator.GenerateToken(user.ID.String(), s.sessionExpiry, map[string]interface{}{
		"email": user.Email,
		"role":  string(user.Role),
	})
	if err != nil {
		slog.Error("failed to issue session token", "user_id", user.ID, "err", err)
		return AuthenticatedSession{}, errs.InternalWrap(err, "failed to issue session token")
	}

	return AuthenticatedSession{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IssuedAt:  s.clock.Now().UTC(),
		ExpiresAt: expiresAt,
	}, nil
}

// notify delivers account notices on a best-effort basis. Delivery
// failures are logged, never surfaced to the flow.
func (s *Service) notify(noticeType notification.NoticeType, user directory.User) {
	if s.notifications == nil {
		return
	}
	err := s.notifications.Send(noticeType, notification.NotificationData{
		To:   user.Email,
		Data: map[string]string{"email": utils.MaskEmail(user.Email)},
	})
	if err != nil {
		slog.Error("failed to send account notice", "notice", noticeType,
			"user_id", user.ID, "err", err)
	}
}

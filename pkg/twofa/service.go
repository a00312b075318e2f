package twofa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/assia769/Assojet-sub000/pkg/clock"
	"github.com/assia769/Assojet-sub000/pkg/directory"
	errs "github.com/assia769/Assojet-sub000/pkg/errors"
	"github.com/assia769/Assojet-sub000/pkg/utils"
)

const (
	DefaultIssuer          = "clinic-portal"
	DefaultBackupCodeCount = 10
	DefaultCodeLength      = 8

	// RFC 6238 parameters shared with authenticator apps
	Period     = 30
	Skew       = 1
	SecretSize = 20 // bytes, 160 bits
)

var (
	totpFormat       = regexp.MustCompile(`^\d{6}$`)
	backupCodeFormat = regexp.MustCompile(`^[A-Z0-9]{8}$`)
)

// IsTotpFormat reports whether the submitted code has the shape of a
// 6-digit authenticator passcode.
func IsTotpFormat(code string) bool {
	return totpFormat.MatchString(code)
}

// IsBackupCodeFormat reports whether the submitted code has the shape of
// an 8-character backup code.
func IsBackupCodeFormat(code string) bool {
	return backupCodeFormat.MatchString(code)
}

// EnrollmentArtifacts is everything the user needs to finish setting up an
// authenticator app.
type EnrollmentArtifacts struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	BackupCodes     []string `json:"backup_codes"`
}

// TwoFaService provisions and validates TOTP secrets and backup codes.
type TwoFaService struct {
	repo            Repository
	clock           clock.Clock
	issuer          string
	backupCodeCount int
	codeLength      int
}

type Option func(*TwoFaService)

func WithIssuer(issuer string) Option {
	return func(s *TwoFaService) {
		s.issuer = issuer
	}
}

func WithBackupCodeCount(n int) Option {
	return func(s *TwoFaService) {
		s.backupCodeCount = n
	}
}

func NewTwoFaService(repo Repository, clk clock.Clock, opts ...Option) *TwoFaService {
	svc := &TwoFaService{
		repo:            repo,
		clock:           clk,
		issuer:          DefaultIssuer,
		backupCodeCount: DefaultBackupCodeCount,
		codeLength:      DefaultCodeLength,
	}
	if svc.clock == nil {
		svc.clock = clock.NewSystemClock()
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ProvisionEnrollment creates a fresh provisional secret and backup code
// batch for the user. Repeated calls overwrite the previous provisional
// material; an active secret from an earlier enrollment is untouched until
// the new one is confirmed.
func (s *TwoFaService) ProvisionEnrollment(ctx context.Context, user directory.User) (EnrollmentArtifacts, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
		SecretSize:  SecretSize,
		Period:      Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Error("failed to generate totp secret", "user_id", user.ID, "err", err)
		return EnrollmentArtifacts{}, errs.InternalWrap(err, "failed to generate totp secret")
	}

	codes, err := s.generateBackupCodes(ctx, user.ID)
	if err != nil {
		return EnrollmentArtifacts{}, err
	}

	err = s.repo.SaveProvisionalEnrollment(ctx, user.ID, key.Secret(), codes)
	if err != nil {
		slog.Error("failed to save provisional enrollment", "user_id", user.ID, "err", err)
		return EnrollmentArtifacts{}, errs.InternalWrap(err, "failed to save enrollment")
	}

	slog.Info("provisional 2FA enrollment created", "user_id", user.ID)
	return EnrollmentArtifacts{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		BackupCodes:     codes,
	}, nil
}

// generateBackupCodes produces a batch of unique codes that also avoids
// colliding with the user's currently active batch.
func (s *TwoFaService) generateBackupCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	taken := make(map[string]bool)
	active, err := s.repo.ListBackupCodes(ctx, userID, false)
	if err != nil {
		return nil, errs.InternalWrap(err, "failed to list backup codes")
	}
	for _, c := range active {
		taken[c.Code] = true
	}

	codes := make([]string, 0, s.backupCodeCount)
	for len(codes) < s.backupCodeCount {
		code := utils.GenerateBackupCode(s.codeLength)
		if taken[code] {
			continue
		}
		taken[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}

// ValidateTotp checks a 6-digit passcode against the user's secret in the
// given status, tolerating one time step of clock drift in each direction.
func (s *TwoFaService) ValidateTotp(ctx context.Context, userID uuid.UUID, passcode string, provisional bool) (bool, error) {
	status := SecretStatusActive
	if provisional {
		status = SecretStatusProvisional
	}

	entity, err := s.repo.GetSecret(ctx, userID, status)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return false, errs.Newf(errs.ErrCodeNotFound, "no %s totp secret for user", status)
		}
		return false, errs.InternalWrap(err, "failed to get totp secret")
	}

	valid, err := totp.ValidateCustom(passcode, entity.Secret, s.clock.Now().UTC(), totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, errs.InternalWrap(err, "failed to validate passcode")
	}
	if !valid {
		slog.Debug("totp passcode rejected", "user_id", userID, "status", status,
			"step", stepWindow(s.clock.Now()))
	}
	return valid, nil
}

// ConsumeBackupCode atomically consumes one of the user's active backup
// codes. Returns false without error when the code is unknown or already
// used.
func (s *TwoFaService) ConsumeBackupCode(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	err := s.repo.ConsumeBackupCode(ctx, userID, code)
	if err != nil {
		if errors.Is(err, ErrBackupCodeNotFound) {
			return false, nil
		}
		slog.Error("failed to consume backup code", "user_id", userID, "err", err)
		return false, errs.InternalWrap(err, "failed to consume backup code")
	}
	slog.Info("backup code consumed", "user_id", userID)
	return true, nil
}

// PromoteEnrollment activates the user's provisional secret and codes.
func (s *TwoFaService) PromoteEnrollment(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.PromoteProvisionalEnrollment(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return errs.New(errs.ErrCodeNotFound, "no provisional enrollment to promote")
		}
		slog.Error("failed to promote enrollment", "user_id", userID, "err", err)
		return errs.InternalWrap(err, "failed to promote enrollment")
	}
	slog.Info("2FA enrollment activated", "user_id", userID)
	return nil
}

// Disable removes all 2FA material for the user.
func (s *TwoFaService) Disable(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.DeleteTwoFactor(ctx, userID)
	if err != nil {
		slog.Error("failed to delete 2FA material", "user_id", userID, "err", err)
		return errs.InternalWrap(err, "failed to delete two factor data")
	}
	slog.Info("2FA disabled", "user_id", userID)
	return nil
}

// RemainingBackupCodes counts the user's unused active backup codes.
func (s *TwoFaService) RemainingBackupCodes(ctx context.Context, userID uuid.UUID) (int, error) {
	codes, err := s.repo.ListBackupCodes(ctx, userID, false)
	if err != nil {
		return 0, errs.InternalWrap(err, "failed to list backup codes")
	}
	remaining := 0
	for _, c := range codes {
		if !c.Used {
			remaining++
		}
	}
	return remaining, nil
}

// HasActiveSecret reports whether the user has a confirmed TOTP secret.
func (s *TwoFaService) HasActiveSecret(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := s.repo.GetSecret(ctx, userID, SecretStatusActive)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get totp secret: %w", err)
	}
	return true, nil
}

// stepWindow returns the time step the clock currently falls in. Logged on
// validation failures to help diagnose drift reports.
func stepWindow(t time.Time) int64 {
	return t.Unix() / Period
}

package twofa

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Secret lifecycle states. A provisional secret exists between enrollment
// start and the first successful confirmation code; only an active secret
// counts for login verification.
const (
	SecretStatusProvisional = "provisional"
	SecretStatusActive      = "active"
)

var (
	ErrSecretNotFound     = errors.New("totp secret not found")
	ErrBackupCodeNotFound = errors.New("backup code not found")
)

type (
	// TotpSecretEntity is a stored TOTP secret for one user.
	TotpSecretEntity struct {
		ID        uuid.UUID `json:"id"`
		UserID    uuid.UUID `json:"user_id"`
		Secret    string    `json:"secret"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
	}

	// BackupCodeEntity is one single-use recovery code. Provisional codes
	// belong to an unconfirmed enrollment and cannot be consumed.
	BackupCodeEntity struct {
		ID          uuid.UUID  `json:"id"`
		UserID      uuid.UUID  `json:"user_id"`
		Code        string     `json:"code"`
		Provisional bool       `json:"provisional"`
		Used        bool       `json:"used"`
		UsedAt      *time.Time `json:"used_at,omitempty"`
		CreatedAt   time.Time  `json:"created_at"`
	}
)

// Repository persists TOTP secrets and backup codes.
type Repository interface {
	// SaveProvisionalEnrollment replaces any existing provisional secret and
	// provisional backup codes for the user with a fresh set. Active material
	// is left untouched.
	SaveProvisionalEnrollment(ctx context.Context, userID uuid.UUID, secret string, codes []string) error

	// PromoteProvisionalEnrollment atomically activates the provisional
	// secret and its backup codes, replacing any previously active material.
	PromoteProvisionalEnrollment(ctx context.Context, userID uuid.UUID) error

	// GetSecret returns the user's secret in the given status.
	GetSecret(ctx context.Context, userID uuid.UUID, status string) (TotpSecretEntity, error)

	// ConsumeBackupCode marks an unused active backup code as used. The
	// update is conditional on the code still being unused, so exactly one
	// of any set of concurrent callers succeeds. Returns
	// ErrBackupCodeNotFound when the code does not match, is provisional,
	// or was already consumed.
	ConsumeBackupCode(ctx context.Context, userID uuid.UUID, code string) error

	// ListBackupCodes returns the user's codes, provisional or active.
	ListBackupCodes(ctx context.Context, userID uuid.UUID, provisional bool) ([]BackupCodeEntity, error)

	// DeleteTwoFactor removes all secrets and backup codes for the user.
	DeleteTwoFactor(ctx context.Context, userID uuid.UUID) error
}

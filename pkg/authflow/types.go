package authflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/assia769/Assojet-sub000/pkg/directory"
)

type (
	// AuthenticatedSession is the bearer token material issued after both
	// factors succeed, or after the first factor alone for accounts
	// without 2FA.
	AuthenticatedSession struct {
		Token     string         `json:"token"`
		UserID    uuid.UUID      `json:"user_id"`
		Email     string         `json:"email"`
		Role      directory.Role `json:"role"`
		IssuedAt  time.Time      `json:"issued_at"`
		ExpiresAt time.Time      `json:"expires_at"`
	}

	// LoginResult is the outcome of a credential check. Either the login
	// completed and Session is set, or a second factor is required and the
	// pending token fields are set.
	LoginResult struct {
		RequiresTwoFA bool                  `json:"requires_2fa"`
		PendingToken  string                `json:"pending_token,omitempty"`
		ExpiresIn     int                   `json:"expires_in,omitempty"`
		Session       *AuthenticatedSession `json:"session,omitempty"`
	}

	// EnrollmentResult is everything returned from starting a 2FA
	// enrollment: the secret material for the authenticator app plus the
	// pending token that must accompany the confirmation code.
	EnrollmentResult struct {
		PendingToken    string   `json:"pending_token"`
		ExpiresIn       int      `json:"expires_in"`
		Secret          string   `json:"secret"`
		ProvisioningURI string   `json:"provisioning_uri"`
		BackupCodes     []string `json:"backup_codes"`
	}
)

// Package twofa provisions and validates TOTP secrets and single-use
// backup codes for the clinic portal.
//
// # Overview
//
// The twofa package provides:
//   - TOTP secret generation with an otpauth:// provisioning URI for
//     authenticator apps (Google Authenticator, Authy, etc.)
//   - A batch of single-use backup codes per user
//   - A provisional/active secret lifecycle so an unconfirmed enrollment
//     never affects login
//   - Passcode validation with one step of clock-drift tolerance
//
// # Secret Lifecycle
//
// Starting an enrollment stores a provisional secret and provisional
// backup codes. They become active only when the user proves possession
// by submitting a valid passcode, at which point any previous active
// material is replaced. Repeating enrollment before confirmation simply
// replaces the provisional set.
//
// # Basic Usage
//
//	service := twofa.NewTwoFaService(repo, clock.NewSystemClock(),
//		twofa.WithIssuer("clinic-portal"),
//	)
//
//	// Start enrollment
//	artifacts, err := service.ProvisionEnrollment(ctx, user)
//	// artifacts.ProvisioningURI goes into the authenticator app,
//	// artifacts.BackupCodes are shown once to the user
//
//	// Confirm with a code from the app
//	valid, err := service.ValidateTotp(ctx, user.ID, code, true)
//	if valid {
//		err = service.PromoteEnrollment(ctx, user.ID)
//	}
//
//	// Later, at login
//	valid, err = service.ValidateTotp(ctx, user.ID, code, false)
//
// Backup codes are consumed atomically; a code can never be accepted
// twice even under concurrent submission.
package twofa

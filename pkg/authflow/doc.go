// Package authflow ties credentials, TOTP and pending sessions together
// into the portal's login and 2FA lifecycle flows.
//
// # Login
//
// BeginLogin verifies the password. Accounts without 2FA get a session
// token directly. Accounts with 2FA get a short-lived single-use pending
// token instead; VerifyLogin exchanges that token plus an authenticator
// code or backup code for the session.
//
// # Enrollment
//
// BeginEnrollment provisions a secret, provisioning URI and backup codes
// and returns them with a setup pending token. ConfirmEnrollment accepts
// an authenticator code to prove the app was configured, then activates
// the material and flags the account. Until confirmation the account's
// login behavior is unchanged.
//
// # Failure semantics
//
// A bad code leaves the pending token usable for another attempt within
// its lifetime (InvalidCode). A missing, expired or consumed token is
// terminal (InvalidSession) and the flow restarts from credentials.
package authflow

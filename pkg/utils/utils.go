package utils

import (
	"crypto/rand"
	"database/sql"
	"math/big"
	"strings"
)

const (
	randomStringCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	backupCodeCharset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func ToNullString(str string) sql.NullString {
	if str == "" {
		return sql.NullString{
			String: str,
			Valid:  false,
		}
	}
	return sql.NullString{
		String: str,
		Valid:  true,
	}
}

func GetValidStrings(nullStrings []sql.NullString) []string {
	var validStrings []string

	for _, ns := range nullStrings {
		if ns.Valid {
			validStrings = append(validStrings, ns.String)
		}
	}

	return validStrings
}

// GenerateRandomString returns a cryptographically random string of length n
// drawn from a mixed-case alphanumeric charset.
func GenerateRandomString(n int) string {
	return randomFromCharset(n, randomStringCharset)
}

// GenerateBackupCode returns a cryptographically random uppercase
// alphanumeric code of length n. The charset never produces a string that
// parses as a 6-digit TOTP passcode once the length is fixed at 8, which
// keeps the two code spaces disjoint.
func GenerateBackupCode(n int) string {
	return randomFromCharset(n, backupCodeCharset)
}

func randomFromCharset(n int, charset string) string {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(charset)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; token generation cannot continue without it.
			panic(err)
		}
		sb.WriteByte(charset[idx.Int64()])
	}
	return sb.String()
}

// MaskEmail obscures the local part of an email address for display:
// j***e@example.com
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 1 {
		return email
	}
	local := email[:at]
	if len(local) <= 2 {
		return local[:1] + "***" + email[at:]
	}
	return local[:1] + "***" + local[len(local)-1:] + email[at:]
}

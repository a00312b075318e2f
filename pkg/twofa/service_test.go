package twofa

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlzd/gotp"

	"github.com/assia769/Assojet-sub000/pkg/clock"
	"github.com/assia769/Assojet-sub000/pkg/directory"
)

var testTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestService(t *testing.T) (*TwoFaService, *InMemoryRepository, *clock.FixedClock) {
	t.Helper()
	repo := NewInMemoryRepository()
	clk := clock.NewFixedClock(testTime)
	svc := NewTwoFaService(repo, clk, WithIssuer("clinic-portal"))
	return svc, repo, clk
}

func testUser() directory.User {
	return directory.User{
		ID:    uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Email: "frank@clinic.example",
		Role:  directory.RolePatient,
	}
}

func TestProvisionEnrollment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	artifacts, err := svc.ProvisionEnrollment(ctx, testUser())
	require.NoError(t, err)

	// 20-byte secret is 32 base32 characters
	assert.Len(t, artifacts.Secret, 32)
	assert.Contains(t, artifacts.ProvisioningURI, "otpauth://totp/")
	assert.Contains(t, artifacts.ProvisioningURI, "issuer=clinic-portal")
	assert.Contains(t, artifacts.ProvisioningURI, "frank%40clinic.example")

	require.Len(t, artifacts.BackupCodes, DefaultBackupCodeCount)
	seen := make(map[string]bool)
	for _, code := range artifacts.BackupCodes {
		assert.True(t, IsBackupCodeFormat(code), "code %q should be 8 uppercase alphanumerics", code)
		assert.False(t, seen[code], "codes must be unique within a batch")
		seen[code] = true
	}
}

func TestProvisionEnrollment_ReplacesProvisional(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := testUser()

	first, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)
	second, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)

	assert.NotEqual(t, first.Secret, second.Secret)

	stored, err := repo.GetSecret(ctx, user.ID, SecretStatusProvisional)
	require.NoError(t, err)
	assert.Equal(t, second.Secret, stored.Secret)

	codes, err := repo.ListBackupCodes(ctx, user.ID, true)
	require.NoError(t, err)
	assert.Len(t, codes, DefaultBackupCodeCount)
}

func TestValidateTotp_AcceptsAdjacentSteps(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	user := testUser()

	artifacts, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)

	otp := gotp.NewDefaultTOTP(artifacts.Secret)
	now := clk.Now().Unix()

	for _, tc := range []struct {
		name   string
		at     int64
		expect bool
	}{
		{"current step", now, true},
		{"previous step", now - Period, true},
		{"next step", now + Period, true},
		{"two steps back", now - 2*Period, false},
		{"two steps ahead", now + 2*Period, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code := otp.At(tc.at)
			valid, err := svc.ValidateTotp(ctx, user.ID, code, true)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, valid)
		})
	}
}

func TestValidateTotp_ActiveVsProvisional(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	user := testUser()

	artifacts, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)
	code := gotp.NewDefaultTOTP(artifacts.Secret).At(clk.Now().Unix())

	// Before promotion there is no active secret
	_, err = svc.ValidateTotp(ctx, user.ID, code, false)
	assert.Error(t, err)

	require.NoError(t, svc.PromoteEnrollment(ctx, user.ID))

	valid, err := svc.ValidateTotp(ctx, user.ID, code, false)
	require.NoError(t, err)
	assert.True(t, valid)

	// The provisional slot is now empty
	_, err = svc.ValidateTotp(ctx, user.ID, code, true)
	assert.Error(t, err)
}

func TestPromoteEnrollment_ReplacesActiveMaterial(t *testing.T) {
	svc, repo, clk := newTestService(t)
	ctx := context.Background()
	user := testUser()

	first, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)
	require.NoError(t, svc.PromoteEnrollment(ctx, user.ID))

	// Re-enroll with a new secret while the first is active
	second, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)

	// Old secret still drives login until the new one is confirmed
	oldCode := gotp.NewDefaultTOTP(first.Secret).At(clk.Now().Unix())
	valid, err := svc.ValidateTotp(ctx, user.ID, oldCode, false)
	require.NoError(t, err)
	assert.True(t, valid)

	require.NoError(t, svc.PromoteEnrollment(ctx, user.ID))

	active, err := repo.GetSecret(ctx, user.ID, SecretStatusActive)
	require.NoError(t, err)
	assert.Equal(t, second.Secret, active.Secret)

	// The first batch of backup codes is gone
	ok, err := svc.ConsumeBackupCode(ctx, user.ID, first.BackupCodes[0])
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.ConsumeBackupCode(ctx, user.ID, second.BackupCodes[0])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConsumeBackupCode_SingleUse(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	user := testUser()

	artifacts, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)
	require.NoError(t, svc.PromoteEnrollment(ctx, user.ID))

	code := artifacts.BackupCodes[3]

	ok, err := svc.ConsumeBackupCode(ctx, user.ID, code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ConsumeBackupCode(ctx, user.ID, code)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := svc.RemainingBackupCodes(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultBackupCodeCount-1, remaining)
}

func TestConsumeBackupCode_ProvisionalCodesRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	user := testUser()

	artifacts, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)

	// Not promoted yet, codes are provisional
	ok, err := svc.ConsumeBackupCode(ctx, user.ID, artifacts.BackupCodes[0])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisable_RemovesAllMaterial(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := testUser()

	_, err := svc.ProvisionEnrollment(ctx, user)
	require.NoError(t, err)
	require.NoError(t, svc.PromoteEnrollment(ctx, user.ID))

	require.NoError(t, svc.Disable(ctx, user.ID))

	_, err = repo.GetSecret(ctx, user.ID, SecretStatusActive)
	assert.ErrorIs(t, err, ErrSecretNotFound)
	codes, err := repo.ListBackupCodes(ctx, user.ID, false)
	require.NoError(t, err)
	assert.Empty(t, codes)

	has, err := svc.HasActiveSecret(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCodeFormatClassification(t *testing.T) {
	assert.True(t, IsTotpFormat("123456"))
	assert.False(t, IsTotpFormat("12345"))
	assert.False(t, IsTotpFormat("1234567"))
	assert.False(t, IsTotpFormat("12345a"))

	assert.True(t, IsBackupCodeFormat("A1B2C3D4"))
	assert.False(t, IsBackupCodeFormat("a1b2c3d4"))
	assert.False(t, IsBackupCodeFormat("A1B2C3D"))
	assert.False(t, IsBackupCodeFormat("123456"))

	// The formats never overlap, classification is unambiguous
	assert.False(t, IsTotpFormat("A1B2C3D4") && IsBackupCodeFormat("A1B2C3D4"))
}

func TestBackupCodesAreUppercase(t *testing.T) {
	svc, _, _ := newTestService(t)
	artifacts, err := svc.ProvisionEnrollment(context.Background(), testUser())
	require.NoError(t, err)
	for _, code := range artifacts.BackupCodes {
		assert.Equal(t, strings.ToUpper(code), code)
	}
}

package twofa

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mutex   sync.Mutex
	secrets map[uuid.UUID][]TotpSecretEntity
	codes   map[uuid.UUID][]BackupCodeEntity
}

// NewInMemoryRepository creates a new in-memory 2FA repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		secrets: make(map[uuid.UUID][]TotpSecretEntity),
		codes:   make(map[uuid.UUID][]BackupCodeEntity),
	}
}

func (r *InMemoryRepository) SaveProvisionalEnrollment(ctx context.Context, userID uuid.UUID, secret string, codes []string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()

	// Drop any previous provisional material, keep active material
	kept := r.secrets[userID][:0]
	for _, s := range r.secrets[userID] {
		if s.Status != SecretStatusProvisional {
			kept = append(kept, s)
		}
	}
	r.secrets[userID] = append(kept, TotpSecretEntity{
		ID:        uuid.New(),
		UserID:    userID,
		Secret:    secret,
		Status:    SecretStatusProvisional,
		CreatedAt: now,
	})

	keptCodes := r.codes[userID][:0]
	for _, c := range r.codes[userID] {
		if !c.Provisional {
			keptCodes = append(keptCodes, c)
		}
	}
	for _, code := range codes {
		keptCodes = append(keptCodes, BackupCodeEntity{
			ID:          uuid.New(),
			UserID:      userID,
			Code:        code,
			Provisional: true,
			CreatedAt:   now,
		})
	}
	r.codes[userID] = keptCodes

	return nil
}

func (r *InMemoryRepository) PromoteProvisionalEnrollment(ctx context.Context, userID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var provisional *TotpSecretEntity
	for i := range r.secrets[userID] {
		if r.secrets[userID][i].Status == SecretStatusProvisional {
			provisional = &r.secrets[userID][i]
			break
		}
	}
	if provisional == nil {
		return fmt.Errorf("%w: no provisional secret for user %s", ErrSecretNotFound, userID)
	}

	// Replace the active secret with the promoted one
	next := make([]TotpSecretEntity, 0, 1)
	provisional.Status = SecretStatusActive
	next = append(next, *provisional)
	r.secrets[userID] = next

	// Promote provisional codes, discard the old active batch
	nextCodes := make([]BackupCodeEntity, 0, len(r.codes[userID]))
	for _, c := range r.codes[userID] {
		if c.Provisional {
			c.Provisional = false
			nextCodes = append(nextCodes, c)
		}
	}
	r.codes[userID] = nextCodes

	return nil
}

func (r *InMemoryRepository) GetSecret(ctx context.Context, userID uuid.UUID, status string) (TotpSecretEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, s := range r.secrets[userID] {
		if s.Status == status {
			return s, nil
		}
	}
	return TotpSecretEntity{}, fmt.Errorf("%w: no %s secret for user %s", ErrSecretNotFound, status, userID)
}

func (r *InMemoryRepository) ConsumeBackupCode(ctx context.Context, userID uuid.UUID, code string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range r.codes[userID] {
		c := &r.codes[userID][i]
		if c.Code != code || c.Provisional {
			continue
		}
		if c.Used {
			return fmt.Errorf("%w: code already used", ErrBackupCodeNotFound)
		}
		now := time.Now().UTC()
		c.Used = true
		c.UsedAt = &now
		return nil
	}
	return fmt.Errorf("%w: no matching code for user %s", ErrBackupCodeNotFound, userID)
}

func (r *InMemoryRepository) ListBackupCodes(ctx context.Context, userID uuid.UUID, provisional bool) ([]BackupCodeEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []BackupCodeEntity
	for _, c := range r.codes[userID] {
		if c.Provisional == provisional {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) DeleteTwoFactor(ctx context.Context, userID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.secrets, userID)
	delete(r.codes, userID)
	return nil
}

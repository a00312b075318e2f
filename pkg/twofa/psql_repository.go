package twofa

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-based 2FA repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SaveProvisionalEnrollment(ctx context.Context, userID uuid.UUID, secret string, codes []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM totp_secrets WHERE user_id = $1 AND status = $2`,
		userID, SecretStatusProvisional)
	if err != nil {
		return fmt.Errorf("failed to clear provisional secret: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM backup_codes WHERE user_id = $1 AND provisional = true`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear provisional codes: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO totp_secrets (id, user_id, secret, status)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), userID, secret, SecretStatusProvisional)
	if err != nil {
		return fmt.Errorf("failed to insert provisional secret: %w", err)
	}

	for _, code := range codes {
		_, err = tx.Exec(ctx, `
			INSERT INTO backup_codes (id, user_id, code, provisional)
			VALUES ($1, $2, $3, true)`,
			uuid.New(), userID, code)
		if err != nil {
			return fmt.Errorf("failed to insert backup code: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) PromoteProvisionalEnrollment(ctx context.Context, userID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM totp_secrets WHERE user_id = $1 AND status = $2`,
		userID, SecretStatusActive)
	if err != nil {
		return fmt.Errorf("failed to clear active secret: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE totp_secrets SET status = $3 WHERE user_id = $1 AND status = $2`,
		userID, SecretStatusProvisional, SecretStatusActive)
	if err != nil {
		return fmt.Errorf("failed to promote secret: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no provisional secret for user %s", ErrSecretNotFound, userID)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM backup_codes WHERE user_id = $1 AND provisional = false`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear active codes: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE backup_codes SET provisional = false WHERE user_id = $1 AND provisional = true`, userID)
	if err != nil {
		return fmt.Errorf("failed to promote backup codes: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetSecret(ctx context.Context, userID uuid.UUID, status string) (TotpSecretEntity, error) {
	var e TotpSecretEntity
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, secret, status, created_at
		FROM totp_secrets WHERE user_id = $1 AND status = $2`,
		userID, status).Scan(&e.ID, &e.UserID, &e.Secret, &e.Status, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TotpSecretEntity{}, fmt.Errorf("%w: no %s secret for user %s", ErrSecretNotFound, status, userID)
	}
	if err != nil {
		return TotpSecretEntity{}, fmt.Errorf("failed to get totp secret: %w", err)
	}
	return e, nil
}

// ConsumeBackupCode relies on the conditional UPDATE for atomicity. Two
// concurrent consumers of the same code race on used = false and only one
// UPDATE reports an affected row.
func (r *PostgresRepository) ConsumeBackupCode(ctx context.Context, userID uuid.UUID, code string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE backup_codes
		SET used = true, used_at = now()
		WHERE user_id = $1 AND code = $2 AND provisional = false AND used = false`,
		userID, code)
	if err != nil {
		return fmt.Errorf("failed to consume backup code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no unused code matched for user %s", ErrBackupCodeNotFound, userID)
	}
	return nil
}

func (r *PostgresRepository) ListBackupCodes(ctx context.Context, userID uuid.UUID, provisional bool) ([]BackupCodeEntity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, code, provisional, used, used_at, created_at
		FROM backup_codes WHERE user_id = $1 AND provisional = $2
		ORDER BY created_at`,
		userID, provisional)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup codes: %w", err)
	}
	defer rows.Close()

	var out []BackupCodeEntity
	for rows.Next() {
		var c BackupCodeEntity
		if err := rows.Scan(&c.ID, &c.UserID, &c.Code, &c.Provisional, &c.Used, &c.UsedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup code: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DeleteTwoFactor(ctx context.Context, userID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM totp_secrets WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete totp secrets: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete backup codes: %w", err)
	}

	return tx.Commit(ctx)
}

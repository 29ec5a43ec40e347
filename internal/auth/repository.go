// KaungMyatLinn | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
)

// RegistryTx runs fn against a transaction-scoped view of the session
// registry. The lock-check-replace sequence in token rotation and the
// insert-then-trim on login need to commit or roll back as one unit.
type RegistryTx interface {
	Run(ctx context.Context, fn func(repo Repository) error) error
}

type registryTx struct {
	db *sqlx.DB
}

func NewRegistryTx(db *core.Database) RegistryTx {
	return &registryTx{db: db.DB}
}

func (r *registryTx) Run(
	ctx context.Context,
	fn func(repo Repository) error,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}

// Repository is the session registry. Records are deleted outright rather
// than flagged: a hash that is absent from the table is a revoked or rotated
// token, and absence is what the refresh path checks.
type Repository interface {
	Insert(ctx context.Context, record *RefreshTokenRecord) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshTokenRecord, error)
	DeleteByHash(ctx context.Context, tokenHash, userID string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
	TrimToCap(ctx context.Context, userID string, cap int) (int64, error)
	LockUser(ctx context.Context, userID string) error
}

type repository struct {
	db core.DBTX
}

// NewRepository accepts either the pooled database or an open transaction;
// login and refresh get a transaction-scoped instance through RegistryTx.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(
	ctx context.Context,
	record *RefreshTokenRecord,
) error {
	query := `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, issued_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5
		)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.TokenHash,
		record.IssuedAt,
		record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshTokenRecord, error) {
	query := `
		SELECT id, user_id, token_hash, issued_at, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var record RefreshTokenRecord
	err := r.db.GetContext(ctx, &record, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &record, nil
}

// DeleteByHash removes one record, scoped to the owning user so a token
// presented against someone else's session is a silent no-op.
func (r *repository) DeleteByHash(
	ctx context.Context,
	tokenHash, userID string,
) (bool, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, tokenHash, userID)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) DeleteAllForUser(
	ctx context.Context,
	userID string,
) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user refresh tokens: %w", err)
	}

	return rows, nil
}

func (r *repository) CountForUser(
	ctx context.Context,
	userID string,
) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM refresh_tokens
		WHERE user_id = $1`

	var count int64
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("count refresh tokens: %w", err)
	}

	return count, nil
}

// TrimToCap evicts oldest-first until at most cap records remain. Called
// after Insert inside the same transaction, it implements the session cap:
// the newest login always wins its slot.
func (r *repository) TrimToCap(
	ctx context.Context,
	userID string,
	cap int,
) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
			AND id NOT IN (
				SELECT id
				FROM refresh_tokens
				WHERE user_id = $1
				ORDER BY issued_at DESC, id DESC
				LIMIT $2
			)`

	result, err := r.db.ExecContext(ctx, query, userID, cap)
	if err != nil {
		return 0, fmt.Errorf("trim refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trim refresh tokens: %w", err)
	}

	return rows, nil
}

// LockUser takes a row lock on the user so concurrent refresh attempts with
// the same token serialize and exactly one wins.
func (r *repository) LockUser(ctx context.Context, userID string) error {
	query := `
		SELECT id
		FROM users
		WHERE id = $1
		FOR UPDATE`

	var id string
	err := r.db.GetContext(ctx, &id, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}

	return nil
}

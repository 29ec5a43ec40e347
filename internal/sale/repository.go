// KaungMyatLinn | 2026
// repository.go

package sale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
)

type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, tenantID, id string) (*Sale, error)
	UpdateStatus(ctx context.Context, tenantID, id, from, to string) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]Sale, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Sale) error {
	query := `
		INSERT INTO sales (id, tenant_id, user_id, items, subtotal, discount, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, s, query,
		s.ID,
		s.TenantID,
		s.UserID,
		s.Items,
		s.Subtotal,
		s.Discount,
		s.Total,
		s.Status,
	)
	if err != nil {
		return fmt.Errorf("create sale: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	tenantID, id string,
) (*Sale, error) {
	query := `
		SELECT id, tenant_id, user_id, items, subtotal, discount, total,
		       status, created_at, updated_at
		FROM sales
		WHERE id = $1 AND tenant_id = $2`

	var s Sale
	err := r.db.GetContext(ctx, &s, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get sale: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}

	return &s, nil
}

// UpdateStatus is a guarded transition; the from clause makes a double
// cancel or a refund of a cancelled sale fail cleanly.
func (r *repository) UpdateStatus(
	ctx context.Context,
	tenantID, id, from, to string,
) error {
	query := `
		UPDATE sales
		SET status = $4, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, id, tenantID, from, to)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update sale status: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	tenantID string,
	limit, offset int,
) ([]Sale, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM sales
		WHERE tenant_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, tenantID); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	query := `
		SELECT id, tenant_id, user_id, items, subtotal, discount, total,
		       status, created_at, updated_at
		FROM sales
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var sales []Sale
	if err := r.db.SelectContext(ctx, &sales, query, tenantID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}

	return sales, total, nil
}

// KaungMyatLinn | 2026
// repository.go

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
)

// ErrInsufficientStock reports a decrement below zero; sales translate it
// into a validation failure.
var ErrInsufficientStock = errors.New("insufficient stock")

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, tenantID, id string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	UpdateStock(ctx context.Context, tenantID, id string, stock int) error
	AdjustStock(ctx context.Context, tenantID, id string, delta int) error
	SoftDelete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]Product, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, tenant_id, name, sku, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, p, query,
		p.ID,
		p.TenantID,
		p.Name,
		p.SKU,
		p.Price,
		p.Stock,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create product: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	tenantID, id string,
) (*Product, error) {
	query := `
		SELECT id, tenant_id, name, sku, price, stock,
		       created_at, updated_at, deleted_at
		FROM products
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`

	var p Product
	err := r.db.GetContext(ctx, &p, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $3, sku = $4, price = $5, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.TenantID,
		p.Name,
		p.SKU,
		p.Price,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update product: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update product: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

func (r *repository) UpdateStock(
	ctx context.Context,
	tenantID, id string,
	stock int,
) error {
	query := `
		UPDATE products
		SET stock = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, tenantID, stock)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update stock: %w", core.ErrNotFound)
	}

	return nil
}

// AdjustStock applies a relative change and refuses to go negative; the
// WHERE guard makes concurrent sales of the last unit race safely.
func (r *repository) AdjustStock(
	ctx context.Context,
	tenantID, id string,
	delta int,
) error {
	query := `
		UPDATE products
		SET stock = stock + $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
			AND stock + $3 >= 0`

	result, err := r.db.ExecContext(ctx, query, id, tenantID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}

	if rows == 0 {
		// Either the product is missing or the decrement would go negative.
		if _, getErr := r.GetByID(ctx, tenantID, id); getErr != nil {
			return fmt.Errorf("adjust stock: %w", core.ErrNotFound)
		}
		return fmt.Errorf("adjust stock: %w", ErrInsufficientStock)
	}

	return nil
}

func (r *repository) SoftDelete(
	ctx context.Context,
	tenantID, id string,
) error {
	query := `
		UPDATE products
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete product: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	tenantID string,
	limit, offset int,
) ([]Product, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM products
		WHERE tenant_id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &total, countQuery, tenantID); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `
		SELECT id, tenant_id, name, sku, price, stock,
		       created_at, updated_at, deleted_at
		FROM products
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query, tenantID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

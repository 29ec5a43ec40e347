// KaungMyatLinn | 2026
// repository.go

package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

type Repository interface {
	Create(ctx context.Context, profile *Profile) error
	Update(ctx context.Context, profile *Profile) error
	Delete(ctx context.Context, tenantID, userID string) error
	GetMember(ctx context.Context, tenantID, userID string) (*Member, error)
	ListMembers(ctx context.Context, tenantID string) ([]Member, error)
	PermissionsFor(
		ctx context.Context,
		userID string,
	) (rbac.StaffPermissions, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO staff_profiles (
			user_id, tenant_id, position,
			can_manage_products, can_manage_sales, can_manage_staff,
			can_view_reports, can_apply_discount, can_refund
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9
		)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, profile, query,
		profile.UserID,
		profile.TenantID,
		profile.Position,
		profile.CanManageProducts,
		profile.CanManageSales,
		profile.CanManageStaff,
		profile.CanViewReports,
		profile.CanApplyDiscount,
		profile.CanRefund,
	)
	if err != nil {
		return fmt.Errorf("create staff profile: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, profile *Profile) error {
	query := `
		UPDATE staff_profiles
		SET position = $3,
		    can_manage_products = $4, can_manage_sales = $5,
		    can_manage_staff = $6, can_view_reports = $7,
		    can_apply_discount = $8, can_refund = $9,
		    updated_at = NOW()
		WHERE user_id = $1 AND tenant_id = $2`

	result, err := r.db.ExecContext(ctx, query,
		profile.UserID,
		profile.TenantID,
		profile.Position,
		profile.CanManageProducts,
		profile.CanManageSales,
		profile.CanManageStaff,
		profile.CanViewReports,
		profile.CanApplyDiscount,
		profile.CanRefund,
	)
	if err != nil {
		return fmt.Errorf("update staff profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update staff profile: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update staff profile: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, tenantID, userID string) error {
	query := `
		DELETE FROM staff_profiles
		WHERE user_id = $1 AND tenant_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, tenantID)
	if err != nil {
		return fmt.Errorf("delete staff profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete staff profile: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete staff profile: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) GetMember(
	ctx context.Context,
	tenantID, userID string,
) (*Member, error) {
	query := `
		SELECT
			p.user_id, p.tenant_id, u.email, p.position, u.status,
			p.can_manage_products, p.can_manage_sales, p.can_manage_staff,
			p.can_view_reports, p.can_apply_discount, p.can_refund,
			p.created_at
		FROM staff_profiles p
		JOIN users u ON u.id = p.user_id AND u.deleted_at IS NULL
		WHERE p.user_id = $1 AND p.tenant_id = $2`

	var member Member
	err := r.db.GetContext(ctx, &member, query, userID, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get staff member: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get staff member: %w", err)
	}

	return &member, nil
}

func (r *repository) ListMembers(
	ctx context.Context,
	tenantID string,
) ([]Member, error) {
	query := `
		SELECT
			p.user_id, p.tenant_id, u.email, p.position, u.status,
			p.can_manage_products, p.can_manage_sales, p.can_manage_staff,
			p.can_view_reports, p.can_apply_discount, p.can_refund,
			p.created_at
		FROM staff_profiles p
		JOIN users u ON u.id = p.user_id AND u.deleted_at IS NULL
		WHERE p.tenant_id = $1
		ORDER BY p.created_at DESC`

	var members []Member
	if err := r.db.SelectContext(ctx, &members, query, tenantID); err != nil {
		return nil, fmt.Errorf("list staff members: %w", err)
	}

	return members, nil
}

func (r *repository) PermissionsFor(
	ctx context.Context,
	userID string,
) (rbac.StaffPermissions, error) {
	query := `
		SELECT
			can_manage_products, can_manage_sales, can_manage_staff,
			can_view_reports, can_apply_discount, can_refund
		FROM staff_profiles
		WHERE user_id = $1`

	var perms rbac.StaffPermissions
	err := r.db.GetContext(ctx, &perms, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return rbac.StaffPermissions{}, fmt.Errorf(
			"get staff permissions: %w",
			core.ErrNotFound,
		)
	}
	if err != nil {
		return rbac.StaffPermissions{}, fmt.Errorf(
			"get staff permissions: %w",
			err,
		)
	}

	return perms, nil
}

// KaungMyatLinn | 2026
// repository.go

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByTenant(
		ctx context.Context,
		tenantID string,
		limit, offset int,
	) ([]Entry, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// entryRow flattens Entry for column mapping. The log table has no UPDATE or
// DELETE path; Append is the only write.
type entryRow struct {
	ID            string          `db:"id"`
	TenantID      string          `db:"tenant_id"`
	UserID        string          `db:"user_id"`
	UserRole      string          `db:"user_role"`
	Action        string          `db:"action"`
	ResourceType  string          `db:"resource_type"`
	ResourceID    string          `db:"resource_id"`
	ResourceName  string          `db:"resource_name"`
	PreviousState json.RawMessage `db:"previous_state"`
	NewState      json.RawMessage `db:"new_state"`
	Status        string          `db:"status"`
	ErrorMessage  string          `db:"error_message"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (row entryRow) toEntry() Entry {
	return Entry{
		ID:       row.ID,
		TenantID: row.TenantID,
		UserID:   row.UserID,
		UserRole: rbac.Role(row.UserRole),
		Action:   Action(row.Action),
		Resource: Resource{
			Type: row.ResourceType,
			ID:   row.ResourceID,
			Name: row.ResourceName,
		},
		PreviousState: row.PreviousState,
		NewState:      row.NewState,
		Status:        Status(row.Status),
		ErrorMessage:  row.ErrorMessage,
		Timestamp:     row.CreatedAt,
	}
}

func (r *repository) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_log (
			id, tenant_id, user_id, user_role, action,
			resource_type, resource_id, resource_name,
			previous_state, new_state, status, error_message, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12, $13
		)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.UserID,
		string(entry.UserRole),
		string(entry.Action),
		entry.Resource.Type,
		entry.Resource.ID,
		entry.Resource.Name,
		entry.PreviousState,
		entry.NewState,
		string(entry.Status),
		entry.ErrorMessage,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	return nil
}

func (r *repository) ListByTenant(
	ctx context.Context,
	tenantID string,
	limit, offset int,
) ([]Entry, error) {
	query := `
		SELECT
			id, tenant_id, user_id, user_role, action,
			resource_type, resource_id, resource_name,
			previous_state, new_state, status, error_message, created_at
		FROM audit_log
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var rows []entryRow
	err := r.db.SelectContext(ctx, &rows, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}

	return entries, nil
}

func (r *repository) CountByTenant(
	ctx context.Context,
	tenantID string,
) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM audit_log
		WHERE tenant_id = $1`

	var count int64
	err := r.db.GetContext(ctx, &count, query, tenantID)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}

	return count, nil
}

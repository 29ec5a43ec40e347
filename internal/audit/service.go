// KaungMyatLinn | 2026
// service.go

package audit

import (
	"context"
	"fmt"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a tenant's audit trail, newest first. Queries are always
// scoped to a single tenant; there is no cross-tenant listing.
func (s *Service) List(
	ctx context.Context,
	tenantID string,
	limit, offset int,
) (*ListResponse, error) {
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.repo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit trail: %w", err)
	}

	total, err := s.repo.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count audit trail: %w", err)
	}

	return &ListResponse{
		Entries: entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// KaungMyatLinn | 2026
// service.go

package product

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

type Service struct {
	repo     Repository
	recorder *audit.Recorder
}

func NewService(repo Repository, recorder *audit.Recorder) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
	}
}

func (s *Service) Create(
	ctx context.Context,
	principal rbac.Principal,
	tenantID string,
	req CreateProductRequest,
) (*ProductView, error) {
	created := &Product{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     req.Name,
		SKU:      req.SKU,
		Price:    req.Price,
		Stock:    req.Stock,
	}

	if err := s.repo.Create(ctx, created); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			err = core.DuplicateError("sku")
		}
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionProductCreate,
			audit.Resource{Type: "product", Name: req.Name},
			err,
		)
		return nil, err
	}

	view := toView(created)
	newState, _ := json.Marshal(view) //nolint:errcheck // view always marshals

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionProductCreate,
		Resource: audit.Resource{
			Type: "product",
			ID:   created.ID,
			Name: created.Name,
		},
		NewState: newState,
	})

	return &view, nil
}

func (s *Service) Get(
	ctx context.Context,
	tenantID, id string,
) (*ProductView, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	view := toView(p)
	return &view, nil
}

func (s *Service) List(
	ctx context.Context,
	tenantID string,
	limit, offset int,
) (*ListProductsResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, total, err := s.repo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, toView(&products[i]))
	}

	return &ListProductsResponse{
		Products: views,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (s *Service) Update(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, id string,
	req UpdateProductRequest,
) (*ProductView, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	previous := toView(p)
	previousState, _ := json.Marshal(previous) //nolint:errcheck // view always marshals

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.Price != nil {
		p.Price = *req.Price
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			err = core.DuplicateError("sku")
		}
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionProductUpdate,
			audit.Resource{Type: "product", ID: p.ID, Name: p.Name},
			err,
		)
		return nil, err
	}

	view := toView(p)
	newState, _ := json.Marshal(view) //nolint:errcheck // view always marshals

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionProductUpdate,
		Resource: audit.Resource{
			Type: "product",
			ID:   p.ID,
			Name: p.Name,
		},
		PreviousState: previousState,
		NewState:      newState,
	})

	return &view, nil
}

func (s *Service) UpdateStock(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, id string,
	stock int,
) (*ProductView, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	previousState, _ := json.Marshal(map[string]int{"stock": p.Stock}) //nolint:errcheck // fixed shape

	if err := s.repo.UpdateStock(ctx, tenantID, id, stock); err != nil {
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionProductStockUpdate,
			audit.Resource{Type: "product", ID: p.ID, Name: p.Name},
			err,
		)
		return nil, err
	}

	newState, _ := json.Marshal(map[string]int{"stock": stock}) //nolint:errcheck // fixed shape

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionProductStockUpdate,
		Resource: audit.Resource{
			Type: "product",
			ID:   p.ID,
			Name: p.Name,
		},
		PreviousState: previousState,
		NewState:      newState,
	})

	p.Stock = stock
	view := toView(p)
	return &view, nil
}

func (s *Service) Delete(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, id string,
) error {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, tenantID, id); err != nil {
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionProductDelete,
			audit.Resource{Type: "product", ID: p.ID, Name: p.Name},
			err,
		)
		return err
	}

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionProductDelete,
		Resource: audit.Resource{
			Type: "product",
			ID:   p.ID,
			Name: p.Name,
		},
	})

	return nil
}

// recordFailure writes the failure-status counterpart of a mutation's audit
// entry, so failed attempts leave a trace alongside successful ones.
func (s *Service) recordFailure(
	principal rbac.Principal,
	tenantID string,
	action audit.Action,
	resource audit.Resource,
	err error,
) {
	entry := audit.Entry{
		Action:   action,
		Resource: resource,
	}.ForPrincipal(principal).WithError(err)
	entry.TenantID = tenantID

	s.recorder.Record(entry)
}

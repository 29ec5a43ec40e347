// KaungMyatLinn | 2026
// service.go

package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/product"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

type Service struct {
	db       *core.Database
	repo     Repository
	products product.Repository
	recorder *audit.Recorder
}

func NewService(
	db *core.Database,
	repo Repository,
	products product.Repository,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		products: products,
		recorder: recorder,
	}
}

// Create records a sale and decrements stock atomically. Prices come from
// the catalog at the moment of sale; the client only sends product IDs and
// quantities.
func (s *Service) Create(
	ctx context.Context,
	principal rbac.Principal,
	tenantID string,
	req CreateSaleRequest,
) (*SaleView, error) {
	created := &Sale{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		UserID:   principal.UserID,
		Discount: req.Discount,
		Status:   StatusCompleted,
	}

	err := core.InTx(ctx, s.db.DB, func(tx *sqlx.Tx) error {
		productsTx := product.NewRepository(tx)

		items := make([]Item, 0, len(req.Items))
		var subtotal int64

		for _, line := range req.Items {
			p, err := productsTx.GetByID(ctx, tenantID, line.ProductID)
			if err != nil {
				return err
			}

			if err := productsTx.AdjustStock(ctx, tenantID, p.ID, -line.Quantity); err != nil {
				return err
			}

			items = append(items, Item{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  line.Quantity,
				UnitPrice: p.Price,
			})
			subtotal += p.Price * int64(line.Quantity)
		}

		if req.Discount > subtotal {
			return core.ValidationError("discount exceeds subtotal")
		}

		encoded, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("encode sale items: %w", err)
		}

		created.Items = encoded
		created.Subtotal = subtotal
		created.Total = subtotal - req.Discount

		return NewRepository(tx).Create(ctx, created)
	})
	if err != nil {
		switch {
		case errors.Is(err, product.ErrInsufficientStock):
			err = core.ValidationError("insufficient stock")
		case errors.Is(err, core.ErrNotFound):
			err = core.NotFoundError("product")
		case core.IsAppError(err):
		default:
			err = fmt.Errorf("create sale: %w", err)
		}
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionSaleCreate,
			audit.Resource{Type: "sale", ID: created.ID},
			err,
		)
		return nil, err
	}

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionSaleCreate,
		Resource: audit.Resource{Type: "sale", ID: created.ID},
		NewState: created.Items,
	})

	view, err := toView(created)
	if err != nil {
		return nil, fmt.Errorf("decode sale: %w", err)
	}

	return &view, nil
}

func (s *Service) Get(
	ctx context.Context,
	tenantID, id string,
) (*SaleView, error) {
	sale, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	view, err := toView(sale)
	if err != nil {
		return nil, fmt.Errorf("decode sale: %w", err)
	}

	return &view, nil
}

func (s *Service) List(
	ctx context.Context,
	tenantID string,
	limit, offset int,
) (*ListSalesResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	sales, total, err := s.repo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]SaleView, 0, len(sales))
	for i := range sales {
		view, err := toView(&sales[i])
		if err != nil {
			return nil, fmt.Errorf("decode sale: %w", err)
		}
		views = append(views, view)
	}

	return &ListSalesResponse{
		Sales:  views,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// Cancel voids a completed sale and returns its items to stock.
func (s *Service) Cancel(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, id string,
) error {
	return s.reverse(
		ctx,
		principal,
		tenantID,
		id,
		StatusCancelled,
		audit.ActionSaleCancel,
	)
}

// Refund marks a completed sale refunded and restocks its items.
func (s *Service) Refund(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, id string,
) error {
	return s.reverse(
		ctx,
		principal,
		tenantID,
		id,
		StatusRefunded,
		audit.ActionSaleRefund,
	)
}

func (s *Service) reverse(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, id, toStatus string,
	action audit.Action,
) error {
	sale, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if sale.Status != StatusCompleted {
		err := core.ValidationError(fmt.Sprintf(
			"sale is %s and cannot be %s",
			sale.Status, toStatus,
		))
		s.recordFailure(
			principal,
			tenantID,
			action,
			audit.Resource{Type: "sale", ID: sale.ID},
			err,
		)
		return err
	}

	items, err := sale.DecodeItems()
	if err != nil {
		return fmt.Errorf("decode sale items: %w", err)
	}

	err = core.InTx(ctx, s.db.DB, func(tx *sqlx.Tx) error {
		if err := NewRepository(tx).UpdateStatus(
			ctx, tenantID, id, StatusCompleted, toStatus,
		); err != nil {
			return err
		}

		productsTx := product.NewRepository(tx)
		for _, item := range items {
			if err := productsTx.AdjustStock(
				ctx, tenantID, item.ProductID, item.Quantity,
			); err != nil && !errors.Is(err, core.ErrNotFound) {
				// A product deleted since the sale just skips restock.
				return err
			}
		}

		return nil
	})
	if err != nil {
		err = fmt.Errorf("reverse sale: %w", err)
		s.recordFailure(
			principal,
			tenantID,
			action,
			audit.Resource{Type: "sale", ID: sale.ID},
			err,
		)
		return err
	}

	s.recorder.Record(audit.Entry{
		TenantID:      tenantID,
		UserID:        principal.UserID,
		UserRole:      principal.Role,
		Action:        action,
		Resource:      audit.Resource{Type: "sale", ID: sale.ID},
		PreviousState: sale.Items,
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

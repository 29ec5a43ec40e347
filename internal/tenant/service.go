// KaungMyatLinn | 2026
// service.go

package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaungmyat1inn/digitalmartpos/internal/audit"
	"github.com/kaungmyat1inn/digitalmartpos/internal/core"
	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
	"github.com/kaungmyat1inn/digitalmartpos/internal/user"
)

// ProvisionTx runs fn against transaction-scoped tenant and user stores so
// the tenant row and its first admin land or fail together.
type ProvisionTx interface {
	Run(
		ctx context.Context,
		fn func(tenants Repository, users user.Repository) error,
	) error
}

type provisionTx struct {
	db *sqlx.DB
}

func NewProvisionTx(db *core.Database) ProvisionTx {
	return &provisionTx{db: db.DB}
}

func (p *provisionTx) Run(
	ctx context.Context,
	fn func(tenants Repository, users user.Repository) error,
) error {
	return core.InTx(ctx, p.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx), user.NewRepository(tx))
	})
}

type Service struct {
	provision ProvisionTx
	repo      Repository
	recorder  *audit.Recorder
}

func NewService(
	provision ProvisionTx,
	repo Repository,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		provision: provision,
		repo:      repo,
		recorder:  recorder,
	}
}

// CreateWithAdmin provisions a tenant together with its first shop admin in
// one transaction. A tenant without an admin is unusable and an admin
// without a tenant is an orphan, so it is both or neither.
func (s *Service) CreateWithAdmin(
	ctx context.Context,
	principal rbac.Principal,
	req CreateTenantRequest,
) (*CreateTenantResponse, error) {
	if !ValidPlan(req.Plan) {
		err := core.ValidationError("unknown plan")
		s.recordFailure(
			principal,
			principal.TenantID,
			audit.ActionTenantCreate,
			audit.Resource{Type: "tenant", Name: req.Name},
			err,
		)
		return nil, err
	}

	passwordHash, err := core.HashPassword(req.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created := &Tenant{
		ID:     NewTenantID(req.Name),
		Name:   req.Name,
		Status: StatusActive,
		Plan:   req.Plan,
	}

	admin := &user.User{
		ID:           uuid.New().String(),
		TenantID:     created.ID,
		Email:        strings.ToLower(req.AdminEmail),
		PasswordHash: passwordHash,
		Role:         rbac.RoleShopAdmin,
		Status:       user.StatusActive,
	}

	err = s.provision.Run(
		ctx,
		func(tenants Repository, users user.Repository) error {
			if err := tenants.Create(ctx, created); err != nil {
				return err
			}

			return users.Create(ctx, admin)
		},
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			err = core.DuplicateError("email")
		} else {
			err = fmt.Errorf("create tenant with admin: %w", err)
		}
		s.recordFailure(
			principal,
			created.ID,
			audit.ActionTenantCreate,
			audit.Resource{Type: "tenant", ID: created.ID, Name: req.Name},
			err,
		)
		return nil, err
	}

	view := toView(created)
	newState, _ := json.Marshal(view) //nolint:errcheck // view always marshals

	s.recorder.Record(audit.Entry{
		TenantID: created.ID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionTenantCreate,
		Resource: audit.Resource{
			Type: "tenant",
			ID:   created.ID,
			Name: created.Name,
		},
		NewState: newState,
	})

	s.recorder.Record(audit.Entry{
		TenantID: created.ID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionUserCreate,
		Resource: audit.Resource{
			Type: "user",
			ID:   admin.ID,
			Name: admin.Email,
		},
	})

	return &CreateTenantResponse{
		Tenant:     view,
		AdminID:    admin.ID,
		AdminEmail: admin.Email,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*TenantView, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := toView(t)
	return &view, nil
}

func (s *Service) List(
	ctx context.Context,
	limit, offset int,
) (*ListTenantsResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	tenants, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]TenantView, 0, len(tenants))
	for i := range tenants {
		views = append(views, toView(&tenants[i]))
	}

	return &ListTenantsResponse{
		Tenants: views,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// Transition moves the tenant through its status machine. Cancelled is
// terminal; nothing leaves it.
func (s *Service) Transition(ctx context.Context, id, to string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !CanTransition(t.Status, to) {
		return core.ValidationError(fmt.Sprintf(
			"cannot transition tenant from %s to %s",
			t.Status, to,
		))
	}

	return s.repo.UpdateStatus(ctx, id, to)
}

// TenantStatus reports a tenant's status for per-request access checks.
func (s *Service) TenantStatus(
	ctx context.Context,
	tenantID string,
) (string, error) {
	return s.repo.GetStatus(ctx, tenantID)
}

// TenantPlan reports a tenant's subscription plan for rate limiting.
func (s *Service) TenantPlan(
	ctx context.Context,
	tenantID string,
) (string, error) {
	return s.repo.GetPlan(ctx, tenantID)
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

var _ rbac.TenantGate = (*Service)(nil)

// KaungMyatLinn | 2026
// service.go

package staff

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

type Service struct {
	db       *core.Database
	repo     Repository
	users    *user.Service
	recorder *audit.Recorder
}

func NewService(
	db *core.Database,
	repo Repository,
	users *user.Service,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		users:    users,
		recorder: recorder,
	}
}

// Create provisions the staff account and its permission profile together.
// A staff user without a profile would hold no capabilities at all, so both
// rows land in one transaction.
func (s *Service) Create(
	ctx context.Context,
	principal rbac.Principal,
	tenantID string,
	req CreateStaffRequest,
) (*StaffView, error) {
	if tenantID == rbac.GlobalTenantID {
		return nil, core.ValidationError(
			"staff cannot be created in the global tenant",
		)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &user.User{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		Role:         rbac.RoleStaff,
		Status:       user.StatusActive,
	}

	profile := &Profile{
		UserID:           account.ID,
		TenantID:         tenantID,
		Position:         req.Position,
		StaffPermissions: req.Permissions,
	}

	err = core.InTx(ctx, s.db.DB, func(tx *sqlx.Tx) error {
		if err := user.NewRepository(tx).Create(ctx, account); err != nil {
			return err
		}

		return NewRepository(tx).Create(ctx, profile)
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			err = core.DuplicateError("email")
		} else {
			err = fmt.Errorf("create staff member: %w", err)
		}
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionStaffCreate,
			audit.Resource{Type: "staff", Name: account.Email},
			err,
		)
		return nil, err
	}

	newState, _ := json.Marshal(req.Permissions) //nolint:errcheck // fixed shape

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionStaffCreate,
		Resource: audit.Resource{
			Type: "staff",
			ID:   account.ID,
			Name: account.Email,
		},
		NewState: newState,
	})

	return &StaffView{
		UserID:      account.ID,
		TenantID:    tenantID,
		Email:       account.Email,
		Position:    profile.Position,
		Status:      account.Status,
		Permissions: req.Permissions,
		CreatedAt:   profile.CreatedAt,
	}, nil
}

func (s *Service) Get(
	ctx context.Context,
	tenantID, userID string,
) (*StaffView, error) {
	member, err := s.repo.GetMember(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	view := toView(member)
	return &view, nil
}

func (s *Service) List(
	ctx context.Context,
	tenantID string,
) (*ListStaffResponse, error) {
	members, err := s.repo.ListMembers(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	views := make([]StaffView, 0, len(members))
	for i := range members {
		views = append(views, toView(&members[i]))
	}

	return &ListStaffResponse{Staff: views, Total: len(views)}, nil
}

// Update changes position or permission flags. The audit entry captures the
// flag set before and after, so a permission grant is always traceable.
func (s *Service) Update(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, userID string,
	req UpdateStaffRequest,
) (*StaffView, error) {
	member, err := s.repo.GetMember(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	previousState, _ := json.Marshal(member.StaffPermissions) //nolint:errcheck // fixed shape

	profile := &Profile{
		UserID:           member.UserID,
		TenantID:         member.TenantID,
		Position:         member.Position,
		StaffPermissions: member.StaffPermissions,
	}

	if req.Position != nil {
		profile.Position = *req.Position
	}
	if req.Permissions != nil {
		profile.StaffPermissions = *req.Permissions
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionStaffUpdate,
			audit.Resource{Type: "staff", ID: member.UserID, Name: member.Email},
			err,
		)
		return nil, err
	}

	newState, _ := json.Marshal(profile.StaffPermissions) //nolint:errcheck // fixed shape

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionStaffUpdate,
		Resource: audit.Resource{
			Type: "staff",
			ID:   member.UserID,
			Name: member.Email,
		},
		PreviousState: previousState,
		NewState:      newState,
	})

	member.Position = profile.Position
	member.StaffPermissions = profile.StaffPermissions

	view := toView(member)
	return &view, nil
}

// Suspend disables the account and revokes every live session, then records
// the action. The member keeps their profile so reactivation restores the
// same flags.
func (s *Service) Suspend(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, userID string,
) error {
	member, err := s.repo.GetMember(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if err := s.users.Suspend(ctx, tenantID, userID); err != nil {
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionStaffSuspend,
			audit.Resource{Type: "staff", ID: member.UserID, Name: member.Email},
			err,
		)
		return err
	}

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionStaffSuspend,
		Resource: audit.Resource{
			Type: "staff",
			ID:   member.UserID,
			Name: member.Email,
		},
	})

	return nil
}

// Delete removes the profile and soft-deletes the account.
func (s *Service) Delete(
	ctx context.Context,
	principal rbac.Principal,
	tenantID, userID string,
) error {
	member, err := s.repo.GetMember(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, tenantID, userID); err != nil {
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionStaffDelete,
			audit.Resource{Type: "staff", ID: member.UserID, Name: member.Email},
			err,
		)
		return err
	}

	if err := s.users.Delete(ctx, tenantID, userID); err != nil {
		s.recordFailure(
			principal,
			tenantID,
			audit.ActionStaffDelete,
			audit.Resource{Type: "staff", ID: member.UserID, Name: member.Email},
			err,
		)
		return err
	}

	s.recorder.Record(audit.Entry{
		TenantID: tenantID,
		UserID:   principal.UserID,
		UserRole: principal.Role,
		Action:   audit.ActionStaffDelete,
		Resource: audit.Resource{
			Type: "staff",
			ID:   member.UserID,
			Name: member.Email,
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

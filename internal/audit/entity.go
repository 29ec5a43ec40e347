// KaungMyatLinn | 2026
// entity.go

package audit

import (
	"encoding/json"
	"time"

	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

// Action is the closed enumeration of security-relevant actions. Every
// state-changing operation records exactly one entry per attempt, including
// failed attempts.
type Action string

const (
	ActionLogin              Action = "LOGIN"
	ActionLogout             Action = "LOGOUT"
	ActionLoginFailed        Action = "LOGIN_FAILED"
	ActionTokenRefresh       Action = "TOKEN_REFRESH"
	ActionTokenRevoked       Action = "TOKEN_REVOKED"
	ActionTenantCreate       Action = "TENANT_CREATE"
	ActionUserCreate         Action = "USER_CREATE"
	ActionUserActivate       Action = "USER_ACTIVATE"
	ActionStaffCreate        Action = "STAFF_CREATE"
	ActionStaffUpdate        Action = "STAFF_UPDATE"
	ActionStaffSuspend       Action = "STAFF_SUSPEND"
	ActionStaffDelete        Action = "STAFF_DELETE"
	ActionProductCreate      Action = "PRODUCT_CREATE"
	ActionProductUpdate      Action = "PRODUCT_UPDATE"
	ActionProductDelete      Action = "PRODUCT_DELETE"
	ActionProductStockUpdate Action = "PRODUCT_STOCK_UPDATE"
	ActionSaleCreate         Action = "SALE_CREATE"
	ActionSaleCancel         Action = "SALE_CANCEL"
	ActionSaleRefund         Action = "SALE_REFUND"
	ActionSystemError        Action = "SYSTEM_ERROR"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusWarning Status = "warning"
)

// Resource describes the object an action touched.
type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entry is an immutable historical fact. Entries are appended once and never
// edited or deleted.
type Entry struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	UserID        string          `json:"user_id"`
	UserRole      rbac.Role       `json:"user_role"`
	Action        Action          `json:"action"`
	Resource      Resource        `json:"resource"`
	PreviousState json.RawMessage `json:"previous_state,omitempty"`
	NewState      json.RawMessage `json:"new_state,omitempty"`
	Status        Status          `json:"status"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ForPrincipal fills the actor fields of an entry from a principal.
func (e Entry) ForPrincipal(p rbac.Principal) Entry {
	e.TenantID = p.TenantID
	e.UserID = p.UserID
	e.UserRole = p.Role
	return e
}

// WithError marks the entry failed and captures the error text.
func (e Entry) WithError(err error) Entry {
	e.Status = StatusFailure
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	return e
}

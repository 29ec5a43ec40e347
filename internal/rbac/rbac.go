// KaungMyatLinn | 2026
// rbac.go

package rbac

// GlobalTenantID is the tenant of super admins. They are the only principals
// allowed to operate across tenants.
const GlobalTenantID = "global"

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleShopAdmin  Role = "shop_admin"
	RoleStaff      Role = "staff"
)

var roleRank = map[Role]int{
	RoleStaff:      1,
	RoleShopAdmin:  2,
	RoleSuperAdmin: 3,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast implements the strictly nested hierarchy: a check for "shop_admin
// or higher" admits super_admin and shop_admin only.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Capability names a fine-grained staff permission. Absence of the flag on a
// staff profile means denial.
type Capability string

const (
	CapManageProducts Capability = "MANAGE_PRODUCTS"
	CapManageSales    Capability = "MANAGE_SALES"
	CapManageStaff    Capability = "MANAGE_STAFF"
	CapViewReports    Capability = "VIEW_REPORTS"
	CapApplyDiscount  Capability = "APPLY_DISCOUNT"
	CapRefund         Capability = "REFUND"
)

// StaffPermissions is the fixed-shape permission set attached to a staff
// profile. Every flag is enumerated at compile time so a missing flag is a
// type error, not a silent denial bug.
type StaffPermissions struct {
	CanManageProducts bool `db:"can_manage_products" json:"can_manage_products"`
	CanManageSales    bool `db:"can_manage_sales"    json:"can_manage_sales"`
	CanManageStaff    bool `db:"can_manage_staff"    json:"can_manage_staff"`
	CanViewReports    bool `db:"can_view_reports"    json:"can_view_reports"`
	CanApplyDiscount  bool `db:"can_apply_discount"  json:"can_apply_discount"`
	CanRefund         bool `db:"can_refund"          json:"can_refund"`
}

func (p StaffPermissions) Has(c Capability) bool {
	switch c {
	case CapManageProducts:
		return p.CanManageProducts
	case CapManageSales:
		return p.CanManageSales
	case CapManageStaff:
		return p.CanManageStaff
	case CapViewReports:
		return p.CanViewReports
	case CapApplyDiscount:
		return p.CanApplyDiscount
	case CapRefund:
		return p.CanRefund
	default:
		return false
	}
}

// Principal is the authenticated identity attached to a request. It is
// reloaded from the credential store on every request so suspensions and role
// changes take effect immediately.
type Principal struct {
	UserID      string
	TenantID    string
	Email       string
	Role        Role
	Status      string
	Permissions StaffPermissions
}

func (p Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}

// AccessClaims is the verified payload of an access token.
type AccessClaims struct {
	UserID   string
	TenantID string
	Email    string
	Role     Role
}

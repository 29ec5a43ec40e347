// KaungMyatLinn | 2026
// rbac_test.go

package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaungmyat1inn/digitalmartpos/internal/rbac"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, rbac.RoleSuperAdmin.Valid())
	assert.True(t, rbac.RoleShopAdmin.Valid())
	assert.True(t, rbac.RoleStaff.Valid())
	assert.False(t, rbac.Role("manager").Valid())
	assert.False(t, rbac.Role("").Valid())
}

func TestUnknownRoleRanksBelowEverything(t *testing.T) {
	assert.False(t, rbac.Role("manager").AtLeast(rbac.RoleStaff))
}

func TestStaffPermissionsHas(t *testing.T) {
	perms := rbac.StaffPermissions{
		CanManageProducts: true,
		CanRefund:         true,
	}

	assert.True(t, perms.Has(rbac.CapManageProducts))
	assert.True(t, perms.Has(rbac.CapRefund))
	assert.False(t, perms.Has(rbac.CapManageSales))
	assert.False(t, perms.Has(rbac.Capability("UNKNOWN")))
}

// KaungMyatLinn | 2026
// entity.go

package product

import (
	"time"
)

// Product is a tenant-scoped catalog item. Price is in the smallest currency
// unit.
type Product struct {
	ID        string     `db:"id"`
	TenantID  string     `db:"tenant_id"`
	Name      string     `db:"name"`
	SKU       string     `db:"sku"`
	Price     int64      `db:"price"`
	Stock     int        `db:"stock"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

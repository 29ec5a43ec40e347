// KaungMyatLinn | 2026
// dto.go

package product

import (
	"time"
)

type CreateProductRequest struct {
	Name  string `json:"name"  validate:"required,min=1,max=200"`
	SKU   string `json:"sku"   validate:"required,min=1,max=64"`
	Price int64  `json:"price" validate:"required,min=0"`
	Stock int    `json:"stock" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=1,max=200"`
	SKU   *string `json:"sku"   validate:"omitempty,min=1,max=64"`
	Price *int64  `json:"price" validate:"omitempty,min=0"`
}

type UpdateStockRequest struct {
	Stock int `json:"stock" validate:"min=0"`
}

type ProductView struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

type ListProductsResponse struct {
	Products []ProductView `json:"products"`
	Total    int           `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

func toView(p *Product) ProductView {
	return ProductView{
		ID:        p.ID,
		TenantID:  p.TenantID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
	}
}

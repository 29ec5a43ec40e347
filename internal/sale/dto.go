// KaungMyatLinn | 2026
// dto.go

package sale

import (
	"time"
)

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CreateSaleRequest struct {
	Items    []SaleItemRequest `json:"items"    validate:"required,min=1,dive"`
	Discount int64             `json:"discount" validate:"min=0"`
}

type SaleView struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	Subtotal  int64     `json:"subtotal"`
	Discount  int64     `json:"discount"`
	Total     int64     `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ListSalesResponse struct {
	Sales  []SaleView `json:"sales"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

func toView(s *Sale) (SaleView, error) {
	items, err := s.DecodeItems()
	if err != nil {
		return SaleView{}, err
	}

	return SaleView{
		ID:        s.ID,
		TenantID:  s.TenantID,
		UserID:    s.UserID,
		Items:     items,
		Subtotal:  s.Subtotal,
		Discount:  s.Discount,
		Total:     s.Total,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
	}, nil
}

// KaungMyatLinn | 2026
// entity.go

package sale

import (
	"encoding/json"
	"time"
)

const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

// Item is one sold line. Unit price is captured from the catalog at sale
// time, never taken from the client.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type Sale struct {
	ID        string          `db:"id"`
	TenantID  string          `db:"tenant_id"`
	UserID    string          `db:"user_id"`
	Items     json.RawMessage `db:"items"`
	Subtotal  int64           `db:"subtotal"`
	Discount  int64           `db:"discount"`
	Total     int64           `db:"total"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (s *Sale) DecodeItems() ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(s.Items, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// KaungMyatLinn | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshTokenRecord is one live session in the registry. Only the sha256
// hash of the token is stored; possession of the raw token plus presence of
// its hash here is what makes a refresh valid.
type RefreshTokenRecord struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	IssuedAt  time.Time `db:"issued_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (r *RefreshTokenRecord) Expired() bool {
	return time.Now().After(r.ExpiresAt)
}

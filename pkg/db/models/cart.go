package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zaliant/storefront-backend/pkg/types"
)

// Cart is the server-held cart for one shopper. Anonymous shoppers are keyed
// by an opaque cart token; signed-in shoppers by their user id. Lines are
// stored as a jsonb blob so a malformed payload degrades to an empty cart
// instead of failing the request.
type Cart struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token     string          `gorm:"column:token;not null;uniqueIndex"`
	UserID    *uuid.UUID      `gorm:"column:user_id;type:uuid;index"`
	Lines     types.CartLines `gorm:"column:lines;type:jsonb;serializer:json"`
	PromoCode *string         `gorm:"column:promo_code"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

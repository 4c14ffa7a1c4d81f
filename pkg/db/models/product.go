package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zaliant/storefront-backend/pkg/enums"
)

// Product represents a storefront listing for a downloadable tool.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex"`
	Name        string              `gorm:"column:name;not null"`
	Tagline     *string             `gorm:"column:tagline"`
	Description *string             `gorm:"column:description"`
	Category    string              `gorm:"column:category;not null"`
	Status      enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'available'"`
	Features    pq.StringArray      `gorm:"column:features;type:text[];default:ARRAY[]::text[]"`
	ImageURL    *string             `gorm:"column:image_url"`
	IsFeatured  bool                `gorm:"column:is_featured;not null;default:false"`
	SortOrder   int                 `gorm:"column:sort_order;not null;default:0"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

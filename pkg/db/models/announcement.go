package models

import (
	"time"

	"github.com/google/uuid"
)

// Announcement is the storefront banner managed from the back office. At most
// one announcement is active at a time; activating one deactivates the rest.
type Announcement struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Message   string    `gorm:"column:message;not null"`
	Active    bool      `gorm:"column:active;not null;default:false"`
	CreatedBy *string   `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

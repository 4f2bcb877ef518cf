package models

import "time"

type ResourceStatus string

const (
	ResourceActive      ResourceStatus = "Active"
	ResourceInactive    ResourceStatus = "Inactive"
	ResourceMaintenance ResourceStatus = "Maintenance"
)

// Room is a studio space consumed exclusively by one session per
// overlapping interval.
type Room struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Status    ResourceStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CatalogItem is a local denormalized copy of the catalog service's price
// list, kept in sync by the catalog consumer. Line items freeze a snapshot
// of these rows at add time.
type CatalogItem struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Code           string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name           string         `gorm:"type:varchar(100);not null" json:"name"`
	Description    string         `json:"description,omitempty"`
	UnitPriceCents int64          `gorm:"not null" json:"unit_price_cents"`
	Status         ResourceStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

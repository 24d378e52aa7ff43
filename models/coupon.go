package models

import (
	"time"
)

// Coupon is one issued gift coupon known to the validation dataset.
type Coupon struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
	Barcode   string     `gorm:"size:64;uniqueIndex;not null" json:"barcode"`
	Store     string     `gorm:"size:255" json:"store,omitempty"`
	Menu      string     `gorm:"size:255" json:"menu,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Used      bool       `gorm:"default:false;index" json:"used"`
}

// Valid reports whether the coupon can still be redeemed at now.
func (c Coupon) Valid(now time.Time) bool {
	if c.Used {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}

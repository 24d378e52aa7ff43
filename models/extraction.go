package models

import (
	"time"
)

// Extraction is the audit row written for every processed coupon upload.
// CouponType is empty, ErrorCode set and Result NULL when the upload was
// rejected.
type Extraction struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	RequestID   string  `gorm:"size:36;uniqueIndex;not null"`
	ClientID    string  `gorm:"size:128;index"`
	FileName    string  `gorm:"size:255"`
	ContentType string  `gorm:"size:128"`
	CouponType  string  `gorm:"size:64;index"`
	ErrorCode   string  `gorm:"size:32;index"`
	Result      *string `gorm:"type:jsonb"`
	SortingMs   int64
	Cached      bool `gorm:"default:false"`
}

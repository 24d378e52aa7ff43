package dataset

import (
	"context"
	"errors"

	"couponocr/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GormDataset reads the coupons table. Barcodes are stored normalized.
type GormDataset struct {
	db *gorm.DB
}

func NewGormDataset(db *gorm.DB) *GormDataset {
	return &GormDataset{db: db}
}

func (d *GormDataset) Lookup(ctx context.Context, barcode string) (models.Coupon, bool, error) {
	k := Key(barcode)
	if k == "" {
		return models.Coupon{}, false, nil
	}
	var c models.Coupon
	err := d.db.WithContext(ctx).Where("barcode = ?", k).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Coupon{}, false, nil
	}
	if err != nil {
		return models.Coupon{}, false, err
	}
	return c, true, nil
}

func (d *GormDataset) Len() int {
	var n int64
	if err := d.db.Model(&models.Coupon{}).Count(&n).Error; err != nil {
		log.Warn().Err(err).Msg("count coupons")
		return 0
	}
	return int(n)
}

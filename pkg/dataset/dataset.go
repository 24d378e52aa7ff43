// Package dataset looks up issued coupons by barcode for the check endpoint.
package dataset

import (
	"context"

	"couponocr/models"
	"couponocr/pkg/coupon"
)

// Dataset is a read-only table of issued coupons.
type Dataset interface {
	// Lookup finds the coupon whose barcode matches after normalization.
	Lookup(ctx context.Context, barcode string) (models.Coupon, bool, error)
	Len() int
}

// Key canonicalizes a barcode the same way extracted barcode fields are.
func Key(barcode string) string {
	k := coupon.NormalizeBarcode(barcode)
	if k == "-" {
		return ""
	}
	return k
}

// Empty is a dataset without coupons.
type Empty struct{}

func (Empty) Lookup(context.Context, string) (models.Coupon, bool, error) {
	return models.Coupon{}, false, nil
}

func (Empty) Len() int { return 0 }

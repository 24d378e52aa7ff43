package coupon

import (
	"fmt"

	"couponocr/pkg/ocr"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// BarcodeDecoder reads a barcode symbol inside a region.
type BarcodeDecoder interface {
	Decode(img *ocr.Image, rect ocr.Rect) (string, error)
}

// ZXingDecoder decodes the linear symbologies printed on gift coupons.
type ZXingDecoder struct{}

func (ZXingDecoder) Decode(img *ocr.Image, rect ocr.Rect) (string, error) {
	region, err := img.Crop(rect)
	if err != nil {
		return "", err
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(region)
	if err != nil {
		return "", fmt.Errorf("barcode bitmap: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	readers := []gozxing.Reader{
		oned.NewCode128Reader(),
		oned.NewEAN13Reader(),
		oned.NewITFReader(),
		oned.NewCode39Reader(),
	}
	for _, r := range readers {
		res, err := r.Decode(bmp, hints)
		if err == nil && res.GetText() != "" {
			return res.GetText(), nil
		}
	}
	return "", ErrNoBarcode
}

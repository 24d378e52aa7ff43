package coupon

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"couponocr/pkg/ocr"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

func TestZXingDecoderCode128(t *testing.T) {
	matrix, err := oned.NewCode128Writer().Encode("900012345678", gozxing.BarcodeFormat_CODE_128, 320, 80, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	canvas := imaging.New(400, 300, color.NRGBA{255, 255, 255, 255})
	canvas = imaging.Paste(canvas, matrix, image.Pt(20, 150))
	img := ocr.NewImage(canvas)

	code, err := ZXingDecoder{}.Decode(img, rect(0, 140, 400, 100))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if code != "900012345678" {
		t.Fatalf("unexpected code %q", code)
	}

	if _, err := (ZXingDecoder{}).Decode(img, rect(0, 0, 400, 100)); !errors.Is(err, ErrNoBarcode) {
		t.Fatalf("expected ErrNoBarcode for blank region got %v", err)
	}
	if _, err := (ZXingDecoder{}).Decode(img, rect(300, 250, 200, 100)); !errors.Is(err, ocr.ErrRegionOutOfBounds) {
		t.Fatalf("expected out of bounds error got %v", err)
	}
}

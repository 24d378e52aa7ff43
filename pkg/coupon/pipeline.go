package coupon

import (
	"context"
	"fmt"

	"couponocr/pkg/ocr"
)

// Pipeline decodes, classifies and extracts one uploaded coupon image.
type Pipeline struct {
	Classifier *Classifier
	Extractor  *Extractor
}

// Process returns ErrInvalidImage, ErrNoMatchingTemplate or
// ErrUnknownCouponType for rejected inputs; any other error is an
// infrastructure failure.
func (p *Pipeline) Process(ctx context.Context, buf []byte) (*Extraction, error) {
	img, err := ocr.DecodeImage(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	couponType, ok, err := p.Classifier.Classify(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if !ok {
		return nil, ErrNoMatchingTemplate
	}
	return p.Extractor.Extract(ctx, img, couponType)
}

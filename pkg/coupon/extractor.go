package coupon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"couponocr/pkg/ocr"

	"github.com/rs/zerolog/log"
)

// FieldResult is the normalized text of one field.
type FieldResult struct {
	Name      string `json:"name"`
	InferText string `json:"inferText"`
}

// Extraction is the structured result of one coupon image.
type Extraction struct {
	CouponType string        `json:"couponType"`
	Result     []FieldResult `json:"result"`
	// SortingTime is the wall-clock time of the field fan-out in milliseconds.
	SortingTime int64 `json:"sortingTime"`
	// Degraded is set when at least one field could not be read and holds "".
	Degraded bool `json:"-"`
}

// ExtractorOptions tune field extraction.
type ExtractorOptions struct {
	// FieldTimeout bounds each field recognition. Zero disables the bound.
	FieldTimeout time.Duration
	// Barcode, when set, decodes barcode fields whose OCR failed or came back
	// empty.
	Barcode BarcodeDecoder
}

// Extractor reads every registered field of a coupon type from the pooled
// workers.
type Extractor struct {
	registry *Registry
	pool     *Pool
	opts     ExtractorOptions
}

func NewExtractor(registry *Registry, pool *Pool, opts ExtractorOptions) *Extractor {
	return &Extractor{registry: registry, pool: pool, opts: opts}
}

// Extract recognizes all fields of couponType concurrently. A field whose
// recognition fails gets an empty InferText; only an unknown coupon type is
// an error. Results follow field registration order.
func (x *Extractor) Extract(ctx context.Context, img *ocr.Image, couponType string) (*Extraction, error) {
	if _, ok := x.registry.Profile(couponType); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCouponType, couponType)
	}
	entries := x.pool.Entries(couponType)
	results := make([]FieldResult, len(entries))

	failed := make([]bool, len(entries))

	start := time.Now()
	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, ok := x.field(ctx, img, e)
			results[i] = FieldResult{Name: e.Title, InferText: text}
			failed[i] = !ok
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	degraded := false
	for _, f := range failed {
		degraded = degraded || f
	}
	log.Debug().Str("couponType", couponType).Int("fields", len(results)).Bool("degraded", degraded).Dur("sortingTime", elapsed).Msg("fields extracted")
	return &Extraction{CouponType: couponType, Result: results, SortingTime: elapsed.Milliseconds(), Degraded: degraded}, nil
}

// field returns the normalized text of e, and false when the recognition
// failed and the text is "".
func (x *Extractor) field(ctx context.Context, img *ocr.Image, e *PoolEntry) (string, bool) {
	text, err := recognizeWithin(ctx, e.worker, img, e.Rect, x.opts.FieldTimeout)
	if e.Title == TitleBarcode && x.opts.Barcode != nil && (err != nil || text == "") {
		if code, derr := x.opts.Barcode.Decode(img, e.Rect); derr == nil {
			return Normalize(e.Title, code), true
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("couponType", e.CouponType).Str("title", e.Title).Msg("field recognition failed")
		return "", false
	}
	return Normalize(e.Title, text), true
}

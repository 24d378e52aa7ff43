package coupon

import (
	"context"
	"errors"
	"fmt"

	"couponocr/pkg/ocr"

	"github.com/rs/zerolog/log"
)

// PoolEntry binds one long-lived worker to a (coupon type, field) pair.
type PoolEntry struct {
	CouponType string
	Title      string
	Rect       ocr.Rect

	worker *serialWorker
}

// Recognize runs the entry's worker over its rectangle. Calls on the same
// entry are serialized.
func (e *PoolEntry) Recognize(ctx context.Context, img *ocr.Image) (string, error) {
	return e.worker.Recognize(ctx, img, e.Rect)
}

// Pool owns one configured worker per registered field. It is built once
// before serving and only read afterwards.
type Pool struct {
	entries []*PoolEntry
	byType  map[string][]*PoolEntry
}

// InitializePool creates every worker sequentially. Any failure releases the
// workers created so far and returns a *PoolInitError.
func InitializePool(profiles []Profile, factory ocr.WorkerFactory) (*Pool, error) {
	p := &Pool{byType: make(map[string][]*PoolEntry, len(profiles))}
	seen := make(map[[2]string]struct{})
	for _, prof := range profiles {
		for _, f := range prof.Fields {
			key := [2]string{prof.CouponType, f.Title}
			if _, dup := seen[key]; dup {
				p.Close()
				return nil, &PoolInitError{CouponType: prof.CouponType, Title: f.Title, Cause: errors.New("duplicate field")}
			}
			seen[key] = struct{}{}

			w, err := factory.NewWorker(ocr.WorkerConfig{Languages: f.Languages, Whitelist: f.Whitelist})
			if err != nil {
				p.Close()
				return nil, &PoolInitError{CouponType: prof.CouponType, Title: f.Title, Cause: err}
			}
			e := &PoolEntry{CouponType: prof.CouponType, Title: f.Title, Rect: f.Rect, worker: newSerialWorker(w)}
			p.entries = append(p.entries, e)
			p.byType[prof.CouponType] = append(p.byType[prof.CouponType], e)
			log.Debug().Str("couponType", prof.CouponType).Str("title", f.Title).Strs("langs", f.Languages).Msg("ocr worker ready")
		}
	}
	log.Info().Int("workers", len(p.entries)).Int("couponTypes", len(p.byType)).Msg("ocr worker pool initialized")
	return p, nil
}

// Entries returns the entries of couponType in field registration order.
func (p *Pool) Entries(couponType string) []*PoolEntry {
	return p.byType[couponType]
}

// Len is the number of workers in the pool.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Close terminates every worker. It is meant for process shutdown.
func (p *Pool) Close() error {
	var errs []error
	for _, e := range p.entries {
		if err := e.worker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s/%s: %w", e.CouponType, e.Title, err))
		}
	}
	return errors.Join(errs...)
}

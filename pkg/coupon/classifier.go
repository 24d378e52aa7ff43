package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couponocr/pkg/ocr"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ClassifierOptions tune how templates are probed.
type ClassifierOptions struct {
	// ProbeTimeout bounds each anchor recognition. Zero disables the bound.
	ProbeTimeout time.Duration
	// Parallel probes templates concurrently, each with its own worker.
	Parallel bool
	// Concurrency caps parallel probes. Values below 1 mean 4.
	Concurrency int
}

// Classifier finds the coupon type of an image by reading template anchors.
type Classifier struct {
	registry *Registry
	factory  ocr.WorkerFactory
	opts     ClassifierOptions
}

func NewClassifier(registry *Registry, factory ocr.WorkerFactory, opts ClassifierOptions) *Classifier {
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	return &Classifier{registry: registry, factory: factory, opts: opts}
}

// Classify returns the coupon type of img. ok is false when no template
// matched. When several templates match, the last one in registry order wins.
// Errors are infrastructure failures only; a failed probe counts as a
// mismatch. Workers are created for this call and released before it returns.
func (c *Classifier) Classify(ctx context.Context, img *ocr.Image) (couponType string, ok bool, err error) {
	var matches []bool
	if c.opts.Parallel {
		matches, err = c.probeParallel(ctx, img)
	} else {
		matches, err = c.probeSequential(ctx, img)
	}
	if err != nil {
		return "", false, err
	}
	for i, m := range matches {
		if m {
			couponType, ok = c.registry.Templates[i].CouponType, true
		}
	}
	return couponType, ok, nil
}

func (c *Classifier) newAnchorWorker() (*serialWorker, error) {
	w, err := c.factory.NewWorker(ocr.WorkerConfig{Languages: AnchorLanguages})
	if err != nil {
		return nil, fmt.Errorf("create anchor worker: %w", err)
	}
	return newSerialWorker(w), nil
}

func release(w *serialWorker) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		log.Warn().Err(err).Msg("release anchor worker")
	}
}

func (c *Classifier) probeSequential(ctx context.Context, img *ocr.Image) ([]bool, error) {
	w, err := c.newAnchorWorker()
	if err != nil {
		return nil, err
	}
	defer func() { release(w) }()

	matches := make([]bool, len(c.registry.Templates))
	for i, t := range c.registry.Templates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var perr error
		matches[i], perr = c.probe(ctx, w, img, t)
		if errors.Is(perr, context.DeadlineExceeded) && ctx.Err() == nil {
			// the abandoned recognition still holds w; continue on a fresh worker
			go release(w)
			if w, err = c.newAnchorWorker(); err != nil {
				return nil, err
			}
		}
	}
	return matches, ctx.Err()
}

func (c *Classifier) probeParallel(ctx context.Context, img *ocr.Image) ([]bool, error) {
	matches := make([]bool, len(c.registry.Templates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, t := range c.registry.Templates {
		if !img.Contains(t.Anchor) {
			continue
		}
		g.Go(func() error {
			w, err := c.newAnchorWorker()
			if err != nil {
				return err
			}
			var perr error
			defer func() {
				if errors.Is(perr, context.DeadlineExceeded) {
					go release(w)
					return
				}
				release(w)
			}()
			matches[i], perr = c.probe(gctx, w, img, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, ctx.Err()
}

func (c *Classifier) probe(ctx context.Context, w *serialWorker, img *ocr.Image, t Template) (bool, error) {
	if !img.Contains(t.Anchor) {
		log.Debug().Str("couponType", t.CouponType).Str("anchor", t.Anchor.String()).
			Int("width", img.Width()).Int("height", img.Height()).Msg("anchor outside image, template skipped")
		return false, nil
	}
	text, err := recognizeWithin(ctx, w, img, t.Anchor, c.opts.ProbeTimeout)
	if err != nil {
		log.Warn().Err(err).Str("couponType", t.CouponType).Msg("anchor probe failed")
		return false, err
	}
	return StripLineBreaks(text) == t.ExpectedText, nil
}

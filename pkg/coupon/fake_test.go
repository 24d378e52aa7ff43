package coupon

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"couponocr/pkg/ocr"

	"github.com/disintegration/imaging"
)

// fakeEngine answers recognitions by rectangle.
type fakeEngine struct {
	mu      sync.Mutex
	texts   map[ocr.Rect]string
	errs    map[ocr.Rect]error
	delays  map[ocr.Rect]time.Duration
	configs []ocr.WorkerConfig
	workers []*fakeWorker
	// failOn makes the n-th NewWorker call (1-based) fail.
	failOn int

	calls atomic.Int32
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		texts:  map[ocr.Rect]string{},
		errs:   map[ocr.Rect]error{},
		delays: map[ocr.Rect]time.Duration{},
	}
}

func (f *fakeEngine) NewWorker(cfg ocr.WorkerConfig) (ocr.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, cfg)
	if f.failOn > 0 && len(f.configs) == f.failOn {
		return nil, errors.New("tessdata missing")
	}
	w := &fakeWorker{eng: f, cfg: cfg}
	f.workers = append(f.workers, w)
	return w, nil
}

func (f *fakeEngine) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.workers)
}

func (f *fakeEngine) closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.workers {
		if w.closed.Load() {
			n++
		}
	}
	return n
}

type fakeWorker struct {
	eng       *fakeEngine
	cfg       ocr.WorkerConfig
	closed    atomic.Bool
	active    atomic.Int32
	maxActive atomic.Int32
}

func (w *fakeWorker) Recognize(ctx context.Context, img *ocr.Image, rect ocr.Rect) (string, error) {
	n := w.active.Add(1)
	defer w.active.Add(-1)
	for {
		m := w.maxActive.Load()
		if n <= m || w.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	w.eng.calls.Add(1)

	w.eng.mu.Lock()
	text, err, delay := w.eng.texts[rect], w.eng.errs[rect], w.eng.delays[rect]
	w.eng.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (w *fakeWorker) Close() error {
	w.closed.Store(true)
	return nil
}

func blankImage(w, h int) *ocr.Image {
	return ocr.NewImage(imaging.New(w, h, color.NRGBA{255, 255, 255, 255}))
}

func rect(l, t, w, h int) ocr.Rect {
	return ocr.Rect{Left: l, Top: t, Width: w, Height: h}
}

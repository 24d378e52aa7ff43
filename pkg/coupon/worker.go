package coupon

import (
	"context"
	"sync"
	"time"

	"couponocr/pkg/ocr"
)

// serialWorker allows one recognition at a time on a worker handle. Close
// waits for an in-flight recognition, so a timed-out call never runs against
// a released engine.
type serialWorker struct {
	mu     sync.Mutex
	w      ocr.Worker
	closed bool
}

func newSerialWorker(w ocr.Worker) *serialWorker {
	return &serialWorker{w: w}
}

func (s *serialWorker) Recognize(ctx context.Context, img *ocr.Image, rect ocr.Rect) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errWorkerClosed
	}
	// the caller may have given up while this call waited for the lock
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.w.Recognize(ctx, img, rect)
}

func (s *serialWorker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}

// recognizeWithin bounds a recognition by timeout. The engine call itself may
// not be interruptible; on timeout it finishes in the background and its
// result is dropped.
func recognizeWithin(ctx context.Context, w *serialWorker, img *ocr.Image, rect ocr.Rect, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := w.Recognize(ctx, img, rect)
		done <- outcome{text, err}
	}()
	select {
	case o := <-done:
		return o.text, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

package ocr

import (
	"context"
	"fmt"
	"image"
)

// Rect is an axis-aligned pixel region of a source image.
type Rect struct {
	Left   int `yaml:"left" json:"left"`
	Top    int `yaml:"top" json:"top"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Rectangle converts r to an image.Rectangle anchored at the image origin.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Validate rejects negative origins and empty regions.
func (r Rect) Validate() error {
	if r.Left < 0 || r.Top < 0 {
		return fmt.Errorf("rect origin (%d,%d) is negative", r.Left, r.Top)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("rect size %dx%d is empty", r.Width, r.Height)
	}
	return nil
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.Left, r.Top)
}

// WorkerConfig is fixed when a worker is created.
type WorkerConfig struct {
	Languages []string
	// Whitelist restricts recognized characters. Empty means unrestricted.
	Whitelist string
}

// Worker is a configured OCR engine instance. Implementations are not
// required to be safe for concurrent use.
type Worker interface {
	Recognize(ctx context.Context, img *Image, rect Rect) (string, error)
	Close() error
}

// WorkerFactory creates configured workers.
type WorkerFactory interface {
	NewWorker(cfg WorkerConfig) (Worker, error)
}

// WorkerFactoryFunc adapts a function to WorkerFactory.
type WorkerFactoryFunc func(cfg WorkerConfig) (Worker, error)

func (f WorkerFactoryFunc) NewWorker(cfg WorkerConfig) (Worker, error) {
	return f(cfg)
}

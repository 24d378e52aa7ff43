package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"
)

// TesseractFactory creates gosseract-backed workers.
type TesseractFactory struct {
	// PageSegMode applied to every worker. Zero keeps Tesseract's default.
	PageSegMode gosseract.PageSegMode
}

// NewWorker starts a Tesseract client configured with cfg. The client stays
// bound to cfg for its whole life.
func (f TesseractFactory) NewWorker(cfg WorkerConfig) (Worker, error) {
	if len(cfg.Languages) == 0 {
		return nil, fmt.Errorf("tesseract worker: no languages")
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set languages %v: %w", cfg.Languages, err)
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			client.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if f.PageSegMode != 0 {
		if err := client.SetPageSegMode(f.PageSegMode); err != nil {
			client.Close()
			return nil, fmt.Errorf("set page seg mode: %w", err)
		}
	}
	return &tesseractWorker{client: client, cfg: cfg}, nil
}

type tesseractWorker struct {
	client *gosseract.Client
	cfg    WorkerConfig
}

func (w *tesseractWorker) Recognize(ctx context.Context, img *Image, rect Rect) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	region, err := img.CropPNG(rect)
	if err != nil {
		return "", err
	}
	if err := w.client.SetImageFromBytes(region); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := w.client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract text: %w", err)
	}
	log.Debug().Str("rect", rect.String()).Strs("langs", w.cfg.Languages).Str("text", snippet(text, 80)).Msg("ocr region")
	return text, nil
}

func (w *tesseractWorker) Close() error {
	return w.client.Close()
}

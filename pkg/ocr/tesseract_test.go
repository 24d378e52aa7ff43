package ocr

import (
	"context"
	"image/color"
	"os/exec"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func TestTesseractBlankRegion(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed")
	}
	w, err := TesseractFactory{}.NewWorker(WorkerConfig{Languages: []string{"eng"}, Whitelist: "0123456789"})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	defer w.Close()
	img := NewImage(imaging.New(400, 200, color.NRGBA{255, 255, 255, 255}))
	text, err := w.Recognize(context.Background(), img, Rect{Left: 0, Top: 0, Width: 200, Height: 100})
	if err != nil {
		// some tesseract builds report an empty page as an error
		t.Logf("recognize: %v", err)
		return
	}
	if strings.TrimSpace(text) != "" {
		t.Fatalf("expected no text on blank region got %q", text)
	}
}

func TestTesseractFactoryNeedsLanguage(t *testing.T) {
	if _, err := (TesseractFactory{}).NewWorker(WorkerConfig{}); err == nil {
		t.Fatalf("expected error without languages")
	}
}

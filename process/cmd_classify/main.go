package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"couponocr/pkg/coupon"
	"couponocr/pkg/ocr"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runs the classify + extract pipeline once over a local image with real
// Tesseract workers and prints the extraction as JSON.
func main() {
	img := flag.String("img", "", "coupon image to process")
	registryFile := flag.String("registry", "", "registry YAML (default: embedded)")
	timeout := flag.Duration("timeout", 5*time.Second, "per field timeout")
	barcode := flag.Bool("barcode", true, "decode barcode fields with zxing when OCR fails")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *img == "" {
		log.Fatal().Msg("-img required")
	}
	buf, err := os.ReadFile(*img)
	if err != nil {
		log.Fatal().Err(err).Msg("read image")
	}

	registry, err := coupon.LoadRegistry(*registryFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load registry")
	}
	factory := ocr.TesseractFactory{}
	pool, err := coupon.InitializePool(registry.Profiles, factory)
	if err != nil {
		log.Fatal().Err(err).Msg("ocr worker pool")
	}
	defer pool.Close()

	opts := coupon.ExtractorOptions{FieldTimeout: *timeout}
	if *barcode {
		opts.Barcode = coupon.ZXingDecoder{}
	}
	p := &coupon.Pipeline{
		Classifier: coupon.NewClassifier(registry, factory, coupon.ClassifierOptions{ProbeTimeout: *timeout}),
		Extractor:  coupon.NewExtractor(registry, pool, opts),
	}
	x, err := p.Process(context.Background(), buf)
	if err != nil {
		pool.Close()
		log.Fatal().Err(err).Str("code", string(coupon.Code(err))).Msg("process")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(x)
}

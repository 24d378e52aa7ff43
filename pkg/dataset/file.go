package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"couponocr/models"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// FileDataset serves coupons from a JSON array file. The table is replaced
// atomically on reload; readers never see a partial table.
type FileDataset struct {
	path  string
	table atomic.Pointer[map[string]models.Coupon]
}

// OpenFile loads path. A missing or malformed file is an error.
func OpenFile(path string) (*FileDataset, error) {
	d := &FileDataset{path: path}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload re-reads the file. On failure the current table is kept.
func (d *FileDataset) Reload() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	var rows []models.Coupon
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse dataset %s: %w", d.path, err)
	}
	table := make(map[string]models.Coupon, len(rows))
	for i, c := range rows {
		k := Key(c.Barcode)
		if k == "" {
			return fmt.Errorf("dataset %s: row %d has no barcode", d.path, i)
		}
		if _, dup := table[k]; dup {
			return fmt.Errorf("dataset %s: barcode %s listed twice", d.path, k)
		}
		table[k] = c
	}
	d.table.Store(&table)
	log.Info().Str("path", d.path).Int("coupons", len(table)).Msg("coupon dataset loaded")
	return nil
}

func (d *FileDataset) Lookup(_ context.Context, barcode string) (models.Coupon, bool, error) {
	k := Key(barcode)
	if k == "" {
		return models.Coupon{}, false, nil
	}
	c, ok := (*d.table.Load())[k]
	return c, ok, nil
}

func (d *FileDataset) Len() int {
	return len(*d.table.Load())
}

// Watch reloads the dataset whenever its file settles after a change, until
// ctx is done. The parent directory is watched so editors that replace the
// file by rename are seen too.
func (d *FileDataset) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(d.path)); err != nil {
		return err
	}
	name := filepath.Clean(d.path)
	log.Info().Str("path", d.path).Msg("watching coupon dataset")

	var pending time.Time
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				pending = time.Now()
			}
		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < 250*time.Millisecond {
				continue
			}
			pending = time.Time{}
			if err := d.Reload(); err != nil {
				log.Warn().Err(err).Msg("dataset reload failed, keeping previous table")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("dataset watch error")
		}
	}
}

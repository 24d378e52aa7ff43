package coupon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func testProfiles() []Profile {
	return []Profile{
		{CouponType: "kakao", Fields: []FieldSpec{
			{Title: TitleStore, Rect: rect(0, 0, 100, 20), Languages: []string{"kor", "eng"}},
			{Title: TitleMenu, Rect: rect(0, 30, 100, 20), Languages: []string{"kor", "eng"}},
			{Title: TitleBarcode, Rect: rect(0, 60, 100, 20), Languages: []string{"eng"}, Whitelist: "0123456789 -"},
			{Title: TitleExpire, Rect: rect(0, 90, 100, 20), Languages: []string{"kor", "eng"}},
		}},
		{CouponType: "gifticon", Fields: []FieldSpec{
			{Title: TitleMenu, Rect: rect(10, 0, 100, 20), Languages: []string{"kor"}},
			{Title: TitleBarcode, Rect: rect(10, 30, 100, 20), Languages: []string{"eng"}, Whitelist: "0123456789"},
		}},
	}
}

func TestInitializePoolOneWorkerPerField(t *testing.T) {
	eng := newFakeEngine()
	pool, err := InitializePool(testProfiles(), eng)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if pool.Len() != 6 || eng.created() != 6 {
		t.Fatalf("expected 6 workers got pool=%d created=%d", pool.Len(), eng.created())
	}
	entries := pool.Entries("kakao")
	want := []string{TitleStore, TitleMenu, TitleBarcode, TitleExpire}
	if len(entries) != len(want) {
		t.Fatalf("expected %d kakao entries got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Title != want[i] || e.CouponType != "kakao" {
			t.Fatalf("entry %d: %s/%s", i, e.CouponType, e.Title)
		}
	}
	if cfg := eng.configs[2]; cfg.Whitelist != "0123456789 -" || len(cfg.Languages) != 1 || cfg.Languages[0] != "eng" {
		t.Fatalf("barcode worker misconfigured: %+v", cfg)
	}
	if cfg := eng.configs[0]; cfg.Whitelist != "" {
		t.Fatalf("store worker should not have a whitelist: %+v", cfg)
	}
	if len(pool.Entries("unknown")) != 0 {
		t.Fatalf("expected no entries for unknown type")
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if eng.closed() != 6 {
		t.Fatalf("expected all workers closed got %d", eng.closed())
	}
}

func TestInitializePoolFailureIsFatal(t *testing.T) {
	eng := newFakeEngine()
	eng.failOn = 3
	pool, err := InitializePool(testProfiles(), eng)
	if pool != nil {
		t.Fatalf("expected no pool on failure")
	}
	var pie *PoolInitError
	if !errors.As(err, &pie) {
		t.Fatalf("expected PoolInitError got %v", err)
	}
	if pie.CouponType != "kakao" || pie.Title != TitleBarcode {
		t.Fatalf("unexpected failing field %s/%s", pie.CouponType, pie.Title)
	}
	if eng.created() != 2 || eng.closed() != 2 {
		t.Fatalf("expected the 2 created workers released got created=%d closed=%d", eng.created(), eng.closed())
	}
}

func TestInitializePoolRejectsDuplicateField(t *testing.T) {
	profiles := []Profile{{CouponType: "a", Fields: []FieldSpec{
		{Title: TitleMenu, Rect: rect(0, 0, 5, 5), Languages: []string{"kor"}},
		{Title: TitleMenu, Rect: rect(0, 9, 5, 5), Languages: []string{"kor"}},
	}}}
	var pie *PoolInitError
	if _, err := InitializePool(profiles, newFakeEngine()); !errors.As(err, &pie) {
		t.Fatalf("expected PoolInitError got %v", err)
	}
}

func TestPoolEntrySerializesCalls(t *testing.T) {
	eng := newFakeEngine()
	pool, err := InitializePool(testProfiles(), eng)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	entry := pool.Entries("gifticon")[0]
	eng.delays[entry.Rect] = 5 * time.Millisecond
	img := blankImage(200, 200)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := entry.Recognize(context.Background(), img); err != nil {
				t.Errorf("recognize: %v", err)
			}
		}()
	}
	wg.Wait()

	var w *fakeWorker
	for i, cfg := range eng.configs {
		if len(cfg.Languages) == 1 && cfg.Languages[0] == "kor" {
			w = eng.workers[i]
		}
	}
	if w == nil {
		t.Fatalf("gifticon menu worker not found")
	}
	if got := w.maxActive.Load(); got != 1 {
		t.Fatalf("expected one recognition in flight per worker, saw %d", got)
	}
	if eng.calls.Load() != 8 {
		t.Fatalf("expected 8 calls got %d", eng.calls.Load())
	}
}

func TestClosedPoolEntryRefuses(t *testing.T) {
	pool, err := InitializePool(testProfiles(), newFakeEngine())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	pool.Close()
	if _, err := pool.Entries("kakao")[0].Recognize(context.Background(), blankImage(10, 10)); err == nil {
		t.Fatalf("expected error from closed worker")
	}
}

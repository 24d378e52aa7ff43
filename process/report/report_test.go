package report

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"couponocr/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2024-12")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if !start.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range %s - %s", start, end)
	}
	for _, bad := range []string{"2024-13", "2024/01", ""} {
		if _, _, err := MonthRange(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestRunReport(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gdb, err := gorm.Open(postgres.Open(os.Getenv("DB_DSN")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Extraction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	when := time.Date(1999, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := []models.Extraction{
		{RequestID: "report-1", CreatedAt: when, CouponType: "kakao", SortingMs: 100},
		{RequestID: "report-2", CreatedAt: when, CouponType: "kakao", SortingMs: 300},
		{RequestID: "report-3", CreatedAt: when, ErrorCode: "NO_MATCHING_TEMPLATE"},
	}
	gdb.Where("request_id LIKE ?", "report-%").Delete(&models.Extraction{})
	if err := gdb.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Cleanup(func() { gdb.Where("request_id LIKE ?", "report-%").Delete(&models.Extraction{}) })

	s, err := Summarize(gdb, "kakao", time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(1999, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Total != 2 || s.AvgSortMs != 200 {
		t.Fatalf("unexpected summary %+v", s)
	}

	var out bytes.Buffer
	if err := Run(&out, gdb, "", "1999-01", true); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "uploads=3 rejected=1") || !strings.Contains(out.String(), "NO_MATCHING_TEMPLATE=1") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
}

package report

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"couponocr/models"

	"gorm.io/gorm"
)

// Summary aggregates the audit rows of one month.
type Summary struct {
	Total       int64
	Rejected    int64
	Cached      int64
	AvgSortMs   float64
	ByErrorCode map[string]int64
}

// MonthRange returns the UTC bounds [start, end) of month (YYYY-MM).
func MonthRange(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

func scope(gdb *gorm.DB, couponType string, start, end time.Time) *gorm.DB {
	q := gdb.Model(&models.Extraction{}).Where("created_at >= ? AND created_at < ?", start, end)
	if couponType != "" {
		q = q.Where("coupon_type = ?", couponType)
	}
	return q
}

// Summarize counts extractions of couponType (all types when empty) between
// start and end.
func Summarize(gdb *gorm.DB, couponType string, start, end time.Time) (Summary, error) {
	s := Summary{ByErrorCode: map[string]int64{}}
	var avg sql.NullFloat64
	row := scope(gdb, couponType, start, end).
		Select("COUNT(*), COUNT(*) FILTER (WHERE error_code <> ''), COUNT(*) FILTER (WHERE cached), AVG(sorting_ms) FILTER (WHERE error_code = '' AND NOT cached)").
		Row()
	if err := row.Scan(&s.Total, &s.Rejected, &s.Cached, &avg); err != nil {
		return Summary{}, fmt.Errorf("query failed: %w", err)
	}
	s.AvgSortMs = avg.Float64

	// rejections have no coupon type, so they are only broken down for the whole month
	if couponType == "" {
		rows, err := scope(gdb, "", start, end).Select("error_code, COUNT(*)").Where("error_code <> ''").Group("error_code").Rows()
		if err != nil {
			return Summary{}, fmt.Errorf("query failed: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var code string
			var n int64
			if err := rows.Scan(&code, &n); err != nil {
				return Summary{}, err
			}
			s.ByErrorCode[code] = n
		}
	}
	return s, nil
}

// Run prints a month-bounded report and optionally lists the matching rows.
func Run(w io.Writer, gdb *gorm.DB, couponType, month string, list bool) error {
	start, end, err := MonthRange(month)
	if err != nil {
		return err
	}
	s, err := Summarize(gdb, couponType, start, end)
	if err != nil {
		return err
	}
	label := couponType
	if label == "" {
		label = "all"
	}
	fmt.Fprintf(w, "Report for couponType=%s month=%s (UTC):\n", label, month)
	fmt.Fprintf(w, "  uploads=%d rejected=%d cached=%d avg_sorting_ms=%.1f\n", s.Total, s.Rejected, s.Cached, s.AvgSortMs)
	for code, n := range s.ByErrorCode {
		fmt.Fprintf(w, "  %s=%d\n", code, n)
	}

	if list {
		var rows []models.Extraction
		if err := scope(gdb, couponType, start, end).Order("id").Find(&rows).Error; err != nil {
			return fmt.Errorf("fetch rows failed: %w", err)
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%d|%s|%s|%s|%s|%d|%s\n", r.ID, r.RequestID, r.FileName, r.CouponType, r.ErrorCode, r.SortingMs, r.CreatedAt.Format(time.RFC3339))
		}
	}
	return nil
}

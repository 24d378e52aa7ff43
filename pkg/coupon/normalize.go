package coupon

import "strings"

// Field titles with dedicated normalization.
const (
	TitleBarcode = "barcode"
	TitleMenu    = "menu"
	TitleUsable  = "usable"
	TitleStore   = "store"
	TitleExpire  = "expire"
)

type replacement struct {
	old, new string
}

// menuReplacements run in order; a later rule may match text produced by an
// earlier one. No replacement output contains any pattern of the table, which
// keeps Normalize idempotent.
var menuReplacements = []replacement{
	{"ㅣ", "T"},
	{"ㅜ", "T"},
	{"ㅠ", "T"},
	{"탱스", "땡스"},
	{"팽스", "땡스"},
	{"싱글레글러", "싱글레귤러"},
	{"브루\n더", "브루\nT"},
	{"스타먹스", "스타벅스"},
}

var brandReplacements = []replacement{
	{"스타먹스", "스타벅스"},
}

// Normalize corrects recurring OCR misreads for the field title. Empty input
// yields "-".
func Normalize(title, text string) string {
	if text == "" {
		return "-"
	}
	switch title {
	case TitleBarcode:
		return NormalizeBarcode(text)
	case TitleMenu:
		return replaceAll(text, menuReplacements)
	case TitleUsable, TitleStore:
		return replaceAll(text, brandReplacements)
	}
	return text
}

// NormalizeBarcode strips spaces and hyphens.
func NormalizeBarcode(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "-", "")
}

// StripLineBreaks removes line breaks OCR inserts into anchor text.
func StripLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}

func replaceAll(s string, table []replacement) string {
	for _, r := range table {
		s = strings.ReplaceAll(s, r.old, r.new)
	}
	return s
}

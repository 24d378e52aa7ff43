package coupon

import (
	"strings"
	"testing"
)

func TestNormalizeBarcode(t *testing.T) {
	if got := Normalize(TitleBarcode, " 123-456 -78"); got != "12345678" {
		t.Fatalf("expected 12345678 got %q", got)
	}
	if got := Normalize(TitleBarcode, ""); got != "-" {
		t.Fatalf("expected - got %q", got)
	}
	if got := NormalizeBarcode("9000 1234-5678"); got != "900012345678" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestNormalizeMenu(t *testing.T) {
	cases := map[string]string{
		"스타먹스 아메리카노 Tall": "스타벅스 아메리카노 Tall",
		"탱스기빙 라떼": "땡스기빙 라떼",
		"팽스기빙 라떼": "땡스기빙 라떼",
		"싱글레글러 아이스크림": "싱글레귤러 아이스크림",
		"콜드 브루\n더블샷": "콜드 브루\nT블샷",
		"아이스 카페 아메리카노 ㅣ": "아이스 카페 아메리카노 T",
		"카페 라떼 ㅜall": "카페 라떼 Tall",
		"ㅠ": "T",
		"BHC 뿌링클 콤보": "BHC 뿌링클 콤보",
	}
	for in, want := range cases {
		if got := Normalize(TitleMenu, in); got != want {
			t.Errorf("Normalize(menu, %q)=%q want %q", in, got, want)
		}
	}
}

func TestNormalizeStoreAndUsable(t *testing.T) {
	for _, title := range []string{TitleStore, TitleUsable} {
		if got := Normalize(title, "스타먹스 강남점"); got != "스타벅스 강남점" {
			t.Errorf("%s: got %q", title, got)
		}
		// menu-only rules do not apply
		if got := Normalize(title, "탱스 ㅣ"); got != "탱스 ㅣ" {
			t.Errorf("%s: got %q", title, got)
		}
	}
}

func TestNormalizeOtherTitlesIdentity(t *testing.T) {
	in := "2025년 ㅣ2월 31일\n"
	if got := Normalize(TitleExpire, in); got != in {
		t.Fatalf("expected identity got %q", got)
	}
	if got := Normalize("unknown", "스타먹스"); got != "스타먹스" {
		t.Fatalf("expected identity got %q", got)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, title := range []string{TitleBarcode, TitleMenu, TitleUsable, TitleStore, TitleExpire, "other"} {
		if got := Normalize(title, ""); got != "-" {
			t.Errorf("%s: expected - got %q", title, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"스타먹스 아메리카노",
		"탱스팽스 ㅣㅜㅠ",
		"싱글레글러",
		"브루\n더 브루\nㅜ",
		"스타먹스스타먹스",
		"plain",
	}
	for _, title := range []string{TitleMenu, TitleUsable, TitleStore} {
		for _, in := range inputs {
			once := Normalize(title, in)
			if twice := Normalize(title, once); twice != once {
				t.Errorf("%s: not idempotent for %q: %q -> %q", title, in, once, twice)
			}
		}
	}
}

func TestReplacementTablesDoNotRetrigger(t *testing.T) {
	for _, table := range [][]replacement{menuReplacements, brandReplacements} {
		for _, a := range table {
			for _, b := range table {
				if strings.Contains(a.new, b.old) {
					t.Errorf("replacement %q -> %q produces pattern %q", a.old, a.new, b.old)
				}
			}
		}
	}
}

func TestStripLineBreaks(t *testing.T) {
	if got := StripLineBreaks("gifti\ncon\r\n"); got != "gifticon" {
		t.Fatalf("got %q", got)
	}
}

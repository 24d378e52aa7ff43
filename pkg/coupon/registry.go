package coupon

import (
	_ "embed"
	"fmt"
	"os"

	"couponocr/pkg/ocr"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var embeddedRegistry []byte

// AnchorLanguages are used for every template probe.
var AnchorLanguages = []string{"kor", "eng"}

// Template identifies a coupon layout by the text found in its anchor zone.
type Template struct {
	CouponType   string   `yaml:"couponType"`
	Anchor       ocr.Rect `yaml:"anchor"`
	ExpectedText string   `yaml:"expectedText"`
}

// FieldSpec is one named region extracted from a coupon type.
type FieldSpec struct {
	Title     string   `yaml:"title"`
	Rect      ocr.Rect `yaml:"rect"`
	Languages []string `yaml:"languages"`
	Whitelist string   `yaml:"whitelist,omitempty"`
}

// Profile is the extraction plan of a coupon type. Field order is the order
// of extraction results.
type Profile struct {
	CouponType string      `yaml:"couponType"`
	Fields     []FieldSpec `yaml:"fields"`
}

// Registry holds the template and field extraction tables. It is read-only
// once loaded.
type Registry struct {
	Templates []Template `yaml:"templates"`
	Profiles  []Profile  `yaml:"profiles"`

	byType map[string]int
}

// LoadRegistry reads a registry file, or the embedded registry when path is
// empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return ParseRegistry(embeddedRegistry)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes and validates a YAML registry.
func ParseRegistry(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if err := r.index(); err != nil {
		return nil, err
	}
	return &r, nil
}

// NewRegistry builds a validated registry from in-memory tables.
func NewRegistry(templates []Template, profiles []Profile) (*Registry, error) {
	r := &Registry{Templates: templates, Profiles: profiles}
	if err := r.index(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) index() error {
	for i, t := range r.Templates {
		if t.CouponType == "" {
			return fmt.Errorf("template %d: empty coupon type", i)
		}
		if t.ExpectedText == "" {
			return fmt.Errorf("template %d (%s): empty expected text", i, t.CouponType)
		}
		if err := t.Anchor.Validate(); err != nil {
			return fmt.Errorf("template %d (%s): anchor: %w", i, t.CouponType, err)
		}
	}
	r.byType = make(map[string]int, len(r.Profiles))
	for i, p := range r.Profiles {
		if p.CouponType == "" {
			return fmt.Errorf("profile %d: empty coupon type", i)
		}
		if _, dup := r.byType[p.CouponType]; dup {
			return fmt.Errorf("profile %s: defined twice", p.CouponType)
		}
		if len(p.Fields) == 0 {
			return fmt.Errorf("profile %s: no fields", p.CouponType)
		}
		titles := make(map[string]struct{}, len(p.Fields))
		for _, f := range p.Fields {
			if f.Title == "" {
				return fmt.Errorf("profile %s: field with empty title", p.CouponType)
			}
			if _, dup := titles[f.Title]; dup {
				return fmt.Errorf("profile %s: field %s defined twice", p.CouponType, f.Title)
			}
			titles[f.Title] = struct{}{}
			if len(f.Languages) == 0 {
				return fmt.Errorf("profile %s: field %s has no languages", p.CouponType, f.Title)
			}
			if err := f.Rect.Validate(); err != nil {
				return fmt.Errorf("profile %s: field %s: %w", p.CouponType, f.Title, err)
			}
		}
		r.byType[p.CouponType] = i
	}
	return nil
}

// Profile returns the extraction plan for couponType.
func (r *Registry) Profile(couponType string) (Profile, bool) {
	i, ok := r.byType[couponType]
	if !ok {
		return Profile{}, false
	}
	return r.Profiles[i], true
}

// Package formats holds the catalogue of previously-verified carrier export
// layouts and matches incoming header sets against them.
package formats

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/clearhaul/freight-cli/internal/model"
)

// TransformFunc coerces a raw cell value into its canonical representation.
// Transforms are pure; a value that cannot be coerced passes through as-is.
type TransformFunc func(string) string

// FormatDefinition describes one known carrier export layout. Definitions are
// immutable at runtime; the registry loads them once per resolution pass.
type FormatDefinition struct {
	ID              string                                 `yaml:"id"`
	Name            string                                 `yaml:"name"`
	RequiredHeaders []string                               `yaml:"required_headers"`
	ColumnMapping   map[string]model.CanonicalField        `yaml:"column_mapping"`
	TransformNames  map[model.CanonicalField]string        `yaml:"transforms,omitempty"`
	Transforms      map[model.CanonicalField]TransformFunc `yaml:"-"`
}

// Transform applies the format's coercion for field to value, if one exists.
func (f *FormatDefinition) Transform(field model.CanonicalField, value string) string {
	if fn, ok := f.Transforms[field]; ok {
		return fn(value)
	}
	return value
}

// transformRegistry maps the names usable in YAML definitions to functions.
var transformRegistry = map[string]TransformFunc{
	"trim":  strings.TrimSpace,
	"upper": func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) },
	"date":  normalizeDate,
	"money": normalizeMoney,
}

// normalizeDate re-renders any parseable carrier date as ISO 8601.
func normalizeDate(s string) string {
	if t := model.ParseDate(s); t != nil {
		return t.Format("2006-01-02")
	}
	return s
}

// normalizeMoney strips currency symbols and thousands separators.
func normalizeMoney(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, s)
}

// bindTransforms resolves TransformNames into Transforms, skipping names that
// are not registered.
func (f *FormatDefinition) bindTransforms() {
	if len(f.TransformNames) == 0 {
		return
	}
	f.Transforms = make(map[model.CanonicalField]TransformFunc, len(f.TransformNames))
	for field, name := range f.TransformNames {
		fn, ok := transformRegistry[name]
		if !ok {
			zap.L().Warn("formats: unknown transform",
				zap.String("format", f.ID),
				zap.String("field", string(field)),
				zap.String("transform", name),
			)
			continue
		}
		f.Transforms[field] = fn
	}
}

// LoadFile reads additional format definitions from a YAML file.
func LoadFile(path string) ([]FormatDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "formats: read %s", path)
	}
	var doc struct {
		Formats []FormatDefinition `yaml:"formats"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "formats: parse %s", path)
	}
	for i := range doc.Formats {
		f := &doc.Formats[i]
		if f.ID == "" || len(f.RequiredHeaders) == 0 {
			return nil, eris.Errorf("formats: definition %d in %s missing id or required_headers", i, path)
		}
		f.bindTransforms()
	}
	return doc.Formats, nil
}

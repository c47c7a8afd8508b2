package subcategories

import (
	"encoding/json"
	"strings"
)

// NameExtractor pulls a subcategory name out of a product's subcategory reference.
type NameExtractor interface {
	ExtractName(ref any) (string, bool)
}

// ExtractorFunc adapts a plain function to NameExtractor.
type ExtractorFunc func(ref any) (string, bool)

func (f ExtractorFunc) ExtractName(ref any) (string, bool) {
	return f(ref)
}

// StringName matches references that are already a bare name.
var StringName = ExtractorFunc(func(ref any) (string, bool) {
	s, ok := ref.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
})

// KeyName matches object references carrying the name under key.
func KeyName(key string) NameExtractor {
	return ExtractorFunc(func(ref any) (string, bool) {
		obj, ok := ref.(map[string]any)
		if !ok {
			return "", false
		}
		return StringName(obj[key])
	})
}

// DefaultExtractors is tried in order; the first match wins.
func DefaultExtractors() []NameExtractor {
	return []NameExtractor{
		StringName,
		KeyName("name"),
		KeyName("title"),
		KeyName("value"),
		KeyName("subcategoryName"),
	}
}

// normalizeRef turns raw JSON into the generic shapes the extractors understand.
func normalizeRef(ref any) any {
	var raw []byte
	switch v := ref.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		return ref
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return decoded
}

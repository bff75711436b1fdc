package spec

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Decoder turns the raw contents of a spec file into its field mapping.
type Decoder func(path string, data []byte) (map[string]string, error)

// decoders maps a file extension to the decoder for that format.
var decoders = map[string]Decoder{
	".eno":  DecodeEno,
	".yaml": DecodeYAML,
	".yml":  DecodeYAML,
	".toml": DecodeTOML,
}

// DecoderFor returns the decoder registered for the extension of path.
func DecoderFor(path string) (Decoder, bool) {
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return dec, ok
}

// SupportedExtensions returns every extension that has a decoder, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DecodeYAML parses a spec written as a flat YAML mapping.
func DecodeYAML(path string, data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Msg: err.Error()}
	}
	return flatten(path, raw)
}

// DecodeTOML parses a spec written as a flat TOML table.
func DecodeTOML(path string, data []byte) (map[string]string, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, &ParseError{Path: path, Msg: err.Error()}
	}
	return flatten(path, raw)
}

// flatten converts decoded values to field text. Lists become
// newline-joined text, nulls are dropped, nested tables are rejected.
func flatten(path string, raw map[string]any) (map[string]string, error) {
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		text, err := scalarText(value)
		if err == nil {
			fields[key] = text
			continue
		}

		list, ok := value.([]any)
		if !ok {
			return nil, &ParseError{Path: path, Msg: fmt.Sprintf("field %q: %v", key, err)}
		}
		items := make([]string, 0, len(list))
		for i, item := range list {
			text, err := scalarText(item)
			if err != nil {
				return nil, &ParseError{Path: path, Msg: fmt.Sprintf("field %q[%d]: %v", key, i, err)}
			}
			items = append(items, text)
		}
		fields[key] = strings.Join(items, "\n")
	}
	return fields, nil
}

func scalarText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}

package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension is the authoring format of trackerdb specs.
const DefaultExtension = ".eno"

// Loader discovers spec records under a records root laid out as
// <root>/<kind>/<id><ext>.
type Loader struct {
	root       string
	extensions map[string]bool
}

// NewLoader creates a loader for root. Only files whose extension is in
// extensions are read; an empty list means DefaultExtension only.
func NewLoader(root string, extensions ...string) (*Loader, error) {
	if root == "" {
		return nil, fmt.Errorf("records root cannot be empty")
	}
	if len(extensions) == 0 {
		extensions = []string{DefaultExtension}
	}

	enabled := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := decoders[ext]; !ok {
			return nil, fmt.Errorf("unsupported spec extension %q (supported: %s)",
				ext, strings.Join(SupportedExtensions(), ", "))
		}
		enabled[ext] = true
	}

	return &Loader{root: root, extensions: enabled}, nil
}

// Root returns the records root directory.
func (l *Loader) Root() string {
	return l.root
}

// Dir returns the directory holding records of the given kind.
func (l *Loader) Dir(kind Kind) string {
	return filepath.Join(l.root, string(kind))
}

// Accepts reports whether path has one of the loader's enabled extensions.
func (l *Loader) Accepts(path string) bool {
	return l.extensions[strings.ToLower(filepath.Ext(path))]
}

// ReadRecord reads and decodes a single spec file. The record identifier is
// the filename without its extension.
func ReadRecord(kind Kind, path string) (*Record, error) {
	dec, ok := DecoderFor(path)
	if !ok {
		return nil, fmt.Errorf("no decoder for spec file %s", path)
	}

	// #nosec G304 - path comes from a directory listing of the records root
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file %s: %w", path, err)
	}

	fields, err := dec(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse spec file %s: %w", path, err)
	}

	base := filepath.Base(path)
	return &Record{
		Kind:   kind,
		ID:     strings.TrimSuffix(base, filepath.Ext(base)),
		Path:   path,
		Fields: fields,
	}, nil
}

// Load reads every record of the given kind in filename order.
// A missing kind directory yields no records. Any unreadable or malformed
// file aborts the load.
func (l *Loader) Load(kind Kind) ([]*Record, error) {
	dir := l.Dir(kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Record{}, nil
		}
		return nil, fmt.Errorf("failed to read %s directory: %w", kind, err)
	}

	records := make([]*Record, 0, len(entries))
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !l.Accepts(entry.Name()) {
			continue
		}

		record, err := ReadRecord(kind, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[record.ID]; dup {
			return nil, fmt.Errorf("duplicate %s id %q (%s and %s)", kind, record.ID, prev, entry.Name())
		}
		seen[record.ID] = entry.Name()
		records = append(records, record)
	}

	return records, nil
}

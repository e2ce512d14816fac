package codec

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/primefix/fix-engine/internal/fixmap"
)

// seedDoc mirrors the three-section predefined-message JSON file (§4.1):
// a shared header, and per-message admin/app overrides merged over it.
type seedDoc struct {
	Header *fixmap.FieldMap            `json:"header"`
	Admin  map[string]*fixmap.FieldMap `json:"admin"`
	App    map[string]*fixmap.FieldMap `json:"app"`
}

// LoadTemplates reads the seed JSON file at path and merges each admin/app
// entry over the header section, producing one ready-to-send template per
// message name. A missing file yields an empty template set.
func LoadTemplates(path string) (map[string]*fixmap.FieldMap, error) {
	templates := make(map[string]*fixmap.FieldMap)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return templates, nil
		}
		return nil, fmt.Errorf("reading seed templates %s: %w", path, err)
	}

	var doc seedDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed templates %s: %w", path, err)
	}

	header := doc.Header
	if header == nil {
		header = fixmap.New()
	}

	for name, overrides := range doc.Admin {
		merged := header.Clone()
		merged.Merge(overrides)
		templates[name] = merged
	}
	for name, overrides := range doc.App {
		merged := header.Clone()
		merged.Merge(overrides)
		templates[name] = merged
	}

	return templates, nil
}

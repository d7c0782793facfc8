package catalog

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Replacements maps provider values to the user's preferred values.
type Replacements struct {
	Titles  map[string]string `json:"titles"`
	Artists map[string]string `json:"artists"`
	Authors map[string]string `json:"authors"`
}

// KindOverrides groups the replacement and search assistance tables of one kind.
// Search assistance aliases are only used for enrichment lookups and never persisted.
type KindOverrides struct {
	Replacements     Replacements `json:"replacements"`
	SearchAssistance Replacements `json:"searchAssistance"`
}

// Overrides is the user-supplied override table.
type Overrides struct {
	Records    KindOverrides `json:"records"`
	BoardGames KindOverrides `json:"boardGames"`
	Books      KindOverrides `json:"books"`
}

// LoadOverrides reads the override table from a JSON file.
// An empty path yields an empty table. Keys are matched case-sensitively.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{}
	if path == "" {
		return o, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("failed to decode overrides: %w", err)
	}
	return o, nil
}

// Replace returns the replacement for value in table, or value itself.
func Replace(table map[string]string, value string) string {
	if r, ok := table[value]; ok && r != "" {
		return r
	}
	return value
}

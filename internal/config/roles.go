package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// RoleEntry is one canonical role category with its alias strings.
// The file is a JSON array because entry order is significant: the keyword
// tier resolves ties by configuration order, and Go JSON objects do not
// preserve key order.
type RoleEntry struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// LoadRoles reads and validates the role table. A missing or invalid file
// is a configuration error and aborts startup.
func LoadRoles(path string) ([]RoleEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read roles file %s: %w", path, err)
	}

	var entries []RoleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("cannot parse roles file %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("roles file %s contains no categories", path)
	}

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("roles file %s: entry %d has no name", path, i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("roles file %s: duplicate category %q", path, e.Name)
		}
		seen[e.Name] = true
	}
	return entries, nil
}

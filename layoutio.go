package coilplan

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadLayout reads a previously saved layout, typically to pin it as
// fixed neighbors for a follow-up optimization. This is the single
// blocking I/O call of a run; it happens before iteration starts.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("layout: parse %s: %w", path, err)
	}
	if len(l.Circles) != len(l.Coils) {
		return nil, fmt.Errorf("layout: %s holds %d circles but %d coils", path, len(l.Circles), len(l.Coils))
	}
	return &l, nil
}

// SaveLayout writes a layout as indented JSON.
func SaveLayout(path string, l *Layout) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("layout: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

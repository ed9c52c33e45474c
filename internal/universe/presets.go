package universe

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed data/*.txt
var presetFS embed.FS

// Preset decodes a built-in dataset by name.
func Preset(name string) (*Universe, error) {
	data, err := presetFS.ReadFile(path.Join("data", name+".txt"))
	if err != nil {
		return nil, fmt.Errorf("unknown universe preset: %s (available: %v)", name, Presets())
	}
	return Read(bytes.NewReader(data))
}

// Presets lists the built-in dataset names in sorted order.
func Presets() []string {
	entries, err := presetFS.ReadDir("data")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(names)
	return names
}

package config

import "sort"

// Presets pairs each built-in universe with step parameters suited to it.
var Presets = map[string]*Config{
	// One earth year at dt = 25000.
	"planets": {
		Preset: "planets", Solver: "direct", Dt: 25000, TotalTime: 157788000, Theta: DefaultTheta,
	},
	"earthmoon": {
		Preset: "earthmoon", Solver: "direct", Dt: 25000, TotalTime: 100000, Theta: DefaultTheta,
	},
	// About one orbital period.
	"binary": {
		Preset: "binary", Solver: "direct", Dt: 10000, TotalTime: 3.44e7, Theta: DefaultTheta,
	},
	"figure8": {
		Preset: "figure8", Solver: "direct", Dt: 1000, TotalTime: 2.45e7, Theta: DefaultTheta, RecordEvery: 100,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

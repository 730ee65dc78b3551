package config

import (
	"fmt"
	"sort"
)

type Preset struct {
	Palette []float64
	Bands   int
}

var Presets = map[string]Preset{
	"corridor": {Palette: []float64{0.6, 0.2, 0.3}, Bands: 16},
	"lagoon":   {Palette: []float64{0.5, 0.6, 0.7}, Bands: 16},
	"ember":    {Palette: []float64{0.0, 0.1, 0.2}, Bands: 12},
	"moss":     {Palette: []float64{0.3, 0.2, 0.2}, Bands: 20},
	"terraced": {Palette: []float64{0.6, 0.2, 0.3}, Bands: 6},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("%w: unknown preset %q (available: %v)", ErrInvalid, name, ListPresets())
	}
	c.Preset = name
	c.Palette = append([]float64(nil), p.Palette...)
	c.Bands = p.Bands
	return nil
}

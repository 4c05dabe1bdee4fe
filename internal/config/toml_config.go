package config

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// ApplyTOML decodes a .lsr.toml document onto cfg. Keys absent from the
// document keep their current values; unknown keys are an error so typos
// do not pass silently.
func ApplyTOML(cfg *Config, data []byte) error {
	layer := *cfg
	layer.Include, layer.Exclude = nil, nil

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&layer); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}

	include, exclude := layer.Include, layer.Exclude
	layer.Include, layer.Exclude = cfg.Include, cfg.Exclude
	*cfg = layer
	mergeLists(cfg, include, exclude)
	return nil
}

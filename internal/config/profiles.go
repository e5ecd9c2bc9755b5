// internal/config/profiles.go

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// profileFile is the YAML layout of SAFETAILS_CONFIG.
// Only keys present in the file override the environment values.
type profileFile struct {
	Proximity struct {
		Alerts        *collectionOverride `yaml:"alerts"`
		Posts         *collectionOverride `yaml:"posts"`
		Vets          *collectionOverride `yaml:"vets"`
		VetsEmergency *collectionOverride `yaml:"vetsEmergency"`
	} `yaml:"proximity"`
}

type collectionOverride struct {
	DefaultRadiusKm *float64 `yaml:"defaultRadiusKm"`
	MinRadiusKm     *float64 `yaml:"minRadiusKm"`
	MaxRadiusKm     *float64 `yaml:"maxRadiusKm"`
	DefaultLimit    *int     `yaml:"defaultLimit"`
	MaxLimit        *int     `yaml:"maxLimit"`
}

func applyProfileFile(cfg *ProximityConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading profile file: %w", err)
	}
	return applyProfiles(cfg, data)
}

func applyProfiles(cfg *ProximityConfig, data []byte) error {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing profile file: %w", err)
	}

	file.Proximity.Alerts.apply(&cfg.Alerts)
	file.Proximity.Posts.apply(&cfg.Posts)
	file.Proximity.Vets.apply(&cfg.Vets)
	file.Proximity.VetsEmergency.apply(&cfg.VetsEmergency)

	return nil
}

func (o *collectionOverride) apply(c *CollectionConfig) {
	if o == nil {
		return
	}
	if o.DefaultRadiusKm != nil {
		c.DefaultRadiusKm = *o.DefaultRadiusKm
	}
	if o.MinRadiusKm != nil {
		c.MinRadiusKm = *o.MinRadiusKm
	}
	if o.MaxRadiusKm != nil {
		c.MaxRadiusKm = *o.MaxRadiusKm
	}
	if o.DefaultLimit != nil {
		c.DefaultLimit = *o.DefaultLimit
	}
	if o.MaxLimit != nil {
		c.MaxLimit = *o.MaxLimit
	}
}

// Package config loads the simulator's device/transport configuration
// from YAML, in the teacher's configuration style (flat structs bound
// directly to a config file, no env-var layering).
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the simulator's top-level configuration document.
type Config struct {
	Device struct {
		DevEUI string `yaml:"dev_eui"`
		AppEUI string `yaml:"app_eui"`
		AppKey string `yaml:"app_key"`
		Region string `yaml:"region"` // "EU868" or "US915"
		ClassC bool   `yaml:"class_c"`
	} `yaml:"device"`

	Transport struct {
		NATSURL    string `yaml:"nats_url"`
		UplinkSubj string `yaml:"uplink_subject"`
		DownSubj   string `yaml:"downlink_subject"`
	} `yaml:"transport"`

	Status struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"status"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

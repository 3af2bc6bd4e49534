package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Version is the version of the node, set at build time.
var Version string

// Config top level struct representing the config for the node.
type Config struct {
	ProtocolConfiguration    ProtocolConfiguration    `yaml:"ProtocolConfiguration"`
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Load attempts to load the config from the given path.
func Load(path string) (Config, error) {
	configData, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Config{
		ProtocolConfiguration: DefaultProtocolConfiguration(),
	}
	err = yaml.Unmarshal(configData, &config)
	if err != nil {
		return Config{}, fmt.Errorf("problem unmarshaling config data: %w", err)
	}

	if err = config.ProtocolConfiguration.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

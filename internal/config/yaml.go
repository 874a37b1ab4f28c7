package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func parseYAML(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a yaml file: %w", err)
	}

	var fileCfg StructuredFileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("error decoding yaml configs: %w", err)
	}

	return fileCfg.toStructured(), nil
}

// UnmarshalYAML accepts durations as "30s"-style strings or raw nanosecond
// integers, matching the JSON behavior.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var asInt int64
	if err := node.Decode(&asInt); err == nil {
		*d = Duration(time.Duration(asInt))
		return nil
	}

	var asString string
	if err := node.Decode(&asString); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", asString, err)
	}
	*d = Duration(parsed)
	return nil
}

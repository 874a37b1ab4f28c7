package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredFileConfig mirrors StructuredConfig for file-based sources. It is
// shared by the JSON and YAML parsers; durations are accepted both as
// human-readable strings ("30s", "5m") and as raw nanosecond numbers.
type StructuredFileConfig struct {
	App struct {
		Version string `json:"version" yaml:"version"`
	} `json:"app,omitempty" yaml:"app,omitempty"`

	Remote struct {
		BaseURL        string   `json:"base_url" yaml:"base_url"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"remote,omitempty" yaml:"remote,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn" yaml:"dsn"`
		} `json:"db,omitempty" yaml:"db,omitempty"`

		Local struct {
			Driver string `json:"driver" yaml:"driver"`
			Path   string `json:"path" yaml:"path"`
		} `json:"local,omitempty" yaml:"local,omitempty"`
	} `json:"storage,omitempty" yaml:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"server,omitempty" yaml:"server,omitempty"`

	Sync struct {
		Collection string   `json:"collection" yaml:"collection"`
		Interval   Duration `json:"interval" yaml:"interval"`
		MaxAge     Duration `json:"max_age" yaml:"max_age"`
		Strategy   string   `json:"strategy" yaml:"strategy"`
	} `json:"sync,omitempty" yaml:"sync,omitempty"`

	Monitor struct {
		ProbeInterval Duration `json:"probe_interval" yaml:"probe_interval"`
		Grace         Duration `json:"grace" yaml:"grace"`
	} `json:"monitor,omitempty" yaml:"monitor,omitempty"`
}

func parseJSON(path string) (*StructuredConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer f.Close()

	var fileCfg StructuredFileConfig
	if err := json.NewDecoder(f).Decode(&fileCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return fileCfg.toStructured(), nil
}

// toStructured converts the file representation to the canonical config type.
func (f *StructuredFileConfig) toStructured() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			Version: f.App.Version,
		},
		Remote: Remote{
			BaseURL:        f.Remote.BaseURL,
			RequestTimeout: time.Duration(f.Remote.RequestTimeout),
		},
		Storage: Storage{
			DB: DB{
				DSN: f.Storage.DB.DSN,
			},
			Local: Local{
				Driver: f.Storage.Local.Driver,
				Path:   f.Storage.Local.Path,
			},
		},
		Server: Server{
			HTTPAddress:    f.Server.HTTPAddress,
			RequestTimeout: time.Duration(f.Server.RequestTimeout),
		},
		Sync: Sync{
			Collection: f.Sync.Collection,
			Interval:   time.Duration(f.Sync.Interval),
			MaxAge:     time.Duration(f.Sync.MaxAge),
			Strategy:   f.Sync.Strategy,
		},
		Monitor: Monitor{
			ProbeInterval: time.Duration(f.Monitor.ProbeInterval),
			Grace:         time.Duration(f.Monitor.Grace),
		},
	}
}

// Duration is a wrapper around time.Duration that supports unmarshaling from
// strings like "1h" or "30s" in JSON and YAML config files.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Config is the YAML config file of the run command. Flags given on the
// command line take precedence over it.
//
//	concurrency: 8
//	rateLimit:
//	  maxExecutions: 10
//	  window: 1s
//	timeout: 30s
//	metricsAddr: ":9090"
//	logLevel: info
type Config struct {
	Concurrency int              `yaml:"concurrency"`
	RateLimit   *batch.RateLimit `yaml:"rateLimit,omitempty"`
	Budget      *batch.Budget    `yaml:"budget,omitempty"`
	// Timeout bounds each command run. Zero means no bound.
	Timeout     time.Duration `yaml:"timeout"`
	MetricsAddr string        `yaml:"metricsAddr"`
	LogLevel    string        `yaml:"logLevel"`
}

// LoadConfig reads a config file. Unknown keys are rejected. An empty file
// yields the zero Config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the settings that batch.Options does not cover.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if _, err := batch.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Options().Validate()
}

// Options maps the config onto engine options.
func (c *Config) Options() *batch.Options {
	return &batch.Options{
		AutoStart:      true,
		MaxConcurrency: c.Concurrency,
		RateLimit:      c.RateLimit,
		Budget:         c.Budget,
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nixpig/tsh/internal/jobs"
)

type config struct {
	Prompt  string `yaml:"prompt"`
	MaxJobs int    `yaml:"max_jobs"`
	Verbose bool   `yaml:"verbose"`
}

func defaultConfig() *config {
	return &config{
		Prompt:  "tsh> ",
		MaxJobs: jobs.DefaultCapacity,
	}
}

// loadFile overlays values from a YAML config file onto the config.
func (c *config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	return nil
}

func (c *config) validate() error {
	if c.Prompt == "" {
		return errors.New("prompt cannot be empty")
	}

	if c.MaxJobs < 1 {
		return errors.New("max_jobs must be at least 1")
	}

	return nil
}

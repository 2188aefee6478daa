// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config defines the review session configuration: capability
// provider settings, workflow bounds, and the critic panel. Configs go
// through the PreProcess -> SetDefaults -> Validate pipeline before use.
package config

import (
	"fmt"
)

// Config is the root configuration for a review session host.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Critics  []CriticConfig `yaml:"critics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProcessConfigPipeline runs the full preprocessing pipeline on a config.
func ProcessConfigPipeline(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ProcessConfigPipeline: config cannot be nil")
	}

	cfg.PreProcess()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ProcessConfigPipeline: validation failed: %w", err)
	}

	return cfg, nil
}

// PreProcess normalizes shorthand forms before defaults are applied.
func (c *Config) PreProcess() {
	// Bare critic names expand to builtin roles.
	for i := range c.Critics {
		if c.Critics[i].Name == "" && c.Critics[i].Role != "" {
			c.Critics[i].Name = c.Critics[i].Role
		}
		if c.Critics[i].Role == "" && c.Critics[i].Name != "" {
			c.Critics[i].Role = c.Critics[i].Name
		}
	}
}

// SetDefaults applies default values to all sections.
func (c *Config) SetDefaults() {
	c.Provider.SetDefaults()
	c.Workflow.SetDefaults()
	c.Logging.SetDefaults()
	for i := range c.Critics {
		c.Critics[i].SetDefaults()
	}
}

// Validate checks the whole config for consistency.
func (c *Config) Validate() error {
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := c.Workflow.Validate(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	seen := make(map[string]bool, len(c.Critics))
	for i := range c.Critics {
		if err := c.Critics[i].Validate(); err != nil {
			return fmt.Errorf("critics[%d]: %w", i, err)
		}
		if seen[c.Critics[i].Name] {
			return fmt.Errorf("critics[%d]: duplicate critic name %q", i, c.Critics[i].Name)
		}
		seen[c.Critics[i].Name] = true
	}
	return nil
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is "simple" (level + message) or "verbose" (adds time).
	Format string `yaml:"format,omitempty"`
}

// SetDefaults applies default values.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

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

package config

import (
	"fmt"
)

// WorkflowConfig bounds the iteration workflow.
type WorkflowConfig struct {
	// MaxIterations caps the number of stored iterations per session.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// ConfidenceThreshold is the score at which finalization is
	// suggested. Finalization still requires the explicit human action.
	ConfidenceThreshold float64 `yaml:"confidence_threshold,omitempty"`

	// MaxConcurrentCritics bounds the critique fan-out.
	MaxConcurrentCritics int `yaml:"max_concurrent_critics,omitempty"`

	// CriticTimeout bounds one critic's capability call, in seconds.
	CriticTimeout int `yaml:"critic_timeout,omitempty"`
}

// SetDefaults applies default values.
func (c *WorkflowConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 10
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.82
	}
	if c.MaxConcurrentCritics == 0 {
		c.MaxConcurrentCritics = 5
	}
	if c.CriticTimeout == 0 {
		c.CriticTimeout = 120
	}
}

// Validate checks the workflow configuration.
func (c *WorkflowConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be within [0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.MaxConcurrentCritics < 1 {
		return fmt.Errorf("max_concurrent_critics must be at least 1, got %d", c.MaxConcurrentCritics)
	}
	if c.CriticTimeout < 1 {
		return fmt.Errorf("critic_timeout must be at least 1 second, got %d", c.CriticTimeout)
	}
	return nil
}

// CriticConfig configures one critic on the review panel. A critic is
// either a builtin role referenced by name (technical, clarity,
// security, business, ux) or a custom role with its own description and
// focus areas.
type CriticConfig struct {
	// Name uniquely identifies the critic within the panel.
	Name string `yaml:"name,omitempty"`

	// Role is the builtin role key, defaults to Name.
	Role string `yaml:"role,omitempty"`

	// Description overrides the builtin role description.
	Description string `yaml:"description,omitempty"`

	// FocusAreas overrides what the critic concentrates on.
	FocusAreas string `yaml:"focus_areas,omitempty"`

	// Temperature overrides the provider default for this critic.
	Temperature *float64 `yaml:"temperature,omitempty"`

	// MaxTokens overrides the output cap for this critic.
	MaxTokens int `yaml:"max_tokens,omitempty"`
}

// SetDefaults applies default values.
func (c *CriticConfig) SetDefaults() {
	if c.Temperature == nil {
		t := 0.5
		c.Temperature = &t
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1500
	}
}

// Validate checks the critic configuration.
func (c *CriticConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("critic name cannot be empty")
	}
	if c.Description == "" && c.Role == "" {
		return fmt.Errorf("critic %q needs a builtin role or a description", c.Name)
	}
	return nil
}

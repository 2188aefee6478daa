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
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML config file, expands environment references,
// and runs the processing pipeline.
func LoadFromFile(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses raw YAML config content.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := ExpandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return ProcessConfigPipeline(&cfg)
}

// ZeroConfig produces a ready-to-use configuration without a config
// file: provider inferred from the environment, the default critic
// panel, default workflow bounds.
func ZeroConfig() (*Config, error) {
	cfg := &Config{
		Critics: []CriticConfig{
			{Name: "technical"},
			{Name: "clarity"},
			{Name: "security"},
		},
	}
	return ProcessConfigPipeline(cfg)
}

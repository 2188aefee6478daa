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

package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/quorum/pkg/config"
)

// ValidateCmd validates a configuration file.
type ValidateCmd struct {
	// Config is the configuration file path (positional argument)
	Config string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`

	// PrintConfig prints the expanded configuration
	PrintConfig bool `short:"p" name:"print-config" help:"Print the expanded configuration (with defaults applied and env vars resolved)."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.LoadFromFile(c.Config)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Printf("Configuration is valid: %s\n", c.Config)
	fmt.Printf("  Provider:  %s (%s)\n", cfg.Provider.Type, cfg.Provider.Model)
	fmt.Printf("  Reviewers: %d\n", len(cfg.Critics))
	for _, critic := range cfg.Critics {
		fmt.Printf("    - %s\n", critic.Name)
	}
	fmt.Printf("  Max iterations: %d, threshold: %.2f\n", cfg.Workflow.MaxIterations, cfg.Workflow.ConfidenceThreshold)

	if c.PrintConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(string(out))
	}
	return nil
}

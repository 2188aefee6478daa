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

package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kadirpekel/quorum/pkg/config"
)

// CriticSpec describes one critic on the review panel.
type CriticSpec struct {
	// Name uniquely identifies the critic within one iteration.
	Name string

	// RoleDescription is who the critic is ("senior technical reviewer
	// with expertise in ...").
	RoleDescription string

	// FocusAreas is what the critic concentrates on.
	FocusAreas string

	// Temperature for the critique call.
	Temperature float64

	// MaxTokens caps the critique length.
	MaxTokens int
}

// builtinRoles are the specialist reviewer personas shipped with the
// engine. Custom roles come in through config.
var builtinRoles = map[string]CriticSpec{
	"technical": {
		RoleDescription: "senior technical reviewer with expertise in software architecture, system design, and engineering best practices",
		FocusAreas:      "technical accuracy, architectural soundness, scalability, maintainability, performance considerations, and technical feasibility",
	},
	"clarity": {
		RoleDescription: "professional editor specialized in technical communication, clarity, and audience comprehension",
		FocusAreas:      "readability, clarity of expression, logical flow, completeness, consistency, and accessibility to the target audience",
	},
	"security": {
		RoleDescription: "security and privacy expert specializing in threat modeling, data protection, and security best practices",
		FocusAreas:      "security vulnerabilities, data privacy, authentication and authorization, encryption, compliance requirements, and potential attack vectors",
	},
	"business": {
		RoleDescription: "business analyst with expertise in product strategy, market analysis, and business value assessment",
		FocusAreas:      "business value, ROI, market fit, user needs, competitive positioning, resource requirements, and strategic alignment",
	},
	"ux": {
		RoleDescription: "UX designer with expertise in user experience, usability, and human-centered design principles",
		FocusAreas:      "user experience, usability, accessibility, user workflows, interaction design, and user satisfaction",
	},
}

// BuiltinRoleNames lists the shipped critic roles.
func BuiltinRoleNames() []string {
	names := make([]string, 0, len(builtinRoles))
	for name := range builtinRoles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CriticsFromConfig resolves critic configs into specs, expanding
// builtin roles and applying overrides.
func CriticsFromConfig(configs []config.CriticConfig) ([]CriticSpec, error) {
	specs := make([]CriticSpec, 0, len(configs))
	for _, cc := range configs {
		spec, ok := builtinRoles[cc.Role]
		if !ok && cc.Description == "" {
			return nil, fmt.Errorf("critic %q: unknown builtin role %q and no description given", cc.Name, cc.Role)
		}
		spec.Name = cc.Name
		if cc.Description != "" {
			spec.RoleDescription = cc.Description
		}
		if cc.FocusAreas != "" {
			spec.FocusAreas = cc.FocusAreas
		}
		if spec.FocusAreas == "" {
			spec.FocusAreas = "quality and accuracy"
		}
		if cc.Temperature != nil {
			spec.Temperature = *cc.Temperature
		} else {
			spec.Temperature = 0.5
		}
		spec.MaxTokens = cc.MaxTokens
		if spec.MaxTokens == 0 {
			spec.MaxTokens = 1500
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

const critiquePromptTemplate = `You are a %s.

Your task is to review the content below from your specialized perspective and provide structured feedback.

Provide your feedback in the following format:

VERDICT: [Choose ONE: APPROVE / NEEDS REVISION / REJECT]

FINDINGS:
1. [Severity: CRITICAL/HIGH/MEDIUM/LOW] Finding description and specific issue
2. [Severity: CRITICAL/HIGH/MEDIUM/LOW] Finding description and specific issue
...
(Provide 5-8 specific, actionable findings)

SUGGESTED IMPROVEMENTS:
- Specific improvement 1
- Specific improvement 2
...

Be specific, actionable, and constructive. Focus on %s.`

const improvementTrackingTemplate = `

This is a revised version. Your previous review of the earlier version was:

%s

First, under the heading IMPROVEMENT TRACKING, classify each issue you previously raised as one of:
- FIXED: the issue is resolved
- PARTIALLY FIXED: the issue is improved but not resolved
- NOT ADDRESSED: the issue remains

Then list any newly discovered issues under the heading NEW FINDINGS, each with a [Severity: CRITICAL/HIGH/MEDIUM/LOW] marker.`

// RolePrompt builds the critic's role instructions. When priorCritique
// is non-empty (iteration > 1) the prompt additionally instructs the
// critic to classify its previously raised issues.
func (s CriticSpec) RolePrompt(priorCritique string) string {
	var b strings.Builder
	fmt.Fprintf(&b, critiquePromptTemplate, s.RoleDescription, s.FocusAreas)
	if priorCritique != "" {
		fmt.Fprintf(&b, improvementTrackingTemplate, priorCritique)
	}
	return b.String()
}

// ReviewInput formats the artifact into the critique call's input
// context.
func ReviewInput(artifact string) string {
	return "CONTENT TO REVIEW:\n" + artifact
}

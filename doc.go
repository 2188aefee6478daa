// Package quorum is an iterative review board for problem statements.
//
// A writer drafts a structured summary from the user's requirements, a
// panel of specialist reviewers critiques the draft in parallel, the
// critiques merge into a single board decision with a deterministic
// confidence score, and a human approves or rejects every round before
// the next one may start. Approved feedback drives the next revision;
// the session finalizes only on an approved iteration.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/kadirpekel/quorum/cmd/quorum@latest
//
// Run a review session straight from a requirements string:
//
//	quorum run "Design a rate limiter for the public API"
//
// Or configure the panel in YAML:
//
//	provider:
//	  type: anthropic
//	  api_key: ${ANTHROPIC_API_KEY}
//
//	workflow:
//	  max_iterations: 10
//	  confidence_threshold: 0.82
//
//	critics:
//	  - name: technical
//	  - name: security
//	  - name: auditor
//	    role: security
//	    focus_areas: "credential handling and data retention"
//
// and run it:
//
//	quorum run --config review.yaml --requirements-file problem.txt
//
// # Library Use
//
// The pkg/builder package assembles a review engine from a processed
// configuration:
//
//	engine, err := builder.NewEngine(cfg).
//	    WithRequirements("Design a rate limiter for the public API").
//	    Build()
//
// See pkg/review for the engine, the critic panel, aggregation, and
// confidence scoring.
package quorum

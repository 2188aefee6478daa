package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
provider:
  type: mock
  model: mock

workflow:
  max_iterations: 5
  confidence_threshold: 0.9

critics:
  - name: technical
  - name: auditor
    role: security
    focus_areas: "credential handling"
`

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes() error = %v", err)
	}

	if cfg.Provider.Type != ProviderMock {
		t.Errorf("Type = %q, want mock", cfg.Provider.Type)
	}
	if cfg.Workflow.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5", cfg.Workflow.MaxIterations)
	}
	if cfg.Workflow.MaxConcurrentCritics != 5 {
		t.Error("unset fields still get defaults")
	}
	if len(cfg.Critics) != 2 {
		t.Fatalf("critics = %d, want 2", len(cfg.Critics))
	}
	if cfg.Critics[1].Role != "security" || cfg.Critics[1].Name != "auditor" {
		t.Errorf("critic override lost: %+v", cfg.Critics[1])
	}
}

func TestLoadFromBytesInvalidYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("provider: [not a mapping"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestLoadFromBytesExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REVIEW_KEY", "sk-test-123")

	cfg, err := LoadFromBytes([]byte(`
provider:
  type: anthropic
  api_key: ${TEST_REVIEW_KEY}
critics:
  - name: technical
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.APIKey != "sk-test-123" {
		t.Errorf("APIKey = %q, want the expanded env value", cfg.Provider.APIKey)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quorum.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Workflow.ConfidenceThreshold != 0.9 {
		t.Errorf("ConfidenceThreshold = %v, want 0.9", cfg.Workflow.ConfidenceThreshold)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file must fail")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("QUORUM_TEST_SET", "value")
	t.Setenv("QUORUM_TEST_EMPTY", "")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"braced", "key: ${QUORUM_TEST_SET}", "key: value"},
		{"simple", "key: $QUORUM_TEST_SET", "key: value"},
		{"default used", "key: ${QUORUM_TEST_EMPTY:-fallback}", "key: fallback"},
		{"default unused", "key: ${QUORUM_TEST_SET:-fallback}", "key: value"},
		{"unset braced", "key: ${QUORUM_TEST_UNSET}", "key: "},
		{"no references", "key: plain", "key: plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnvVars(tt.in); got != tt.want {
				t.Errorf("ExpandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

package provider

import (
	"strings"
	"testing"

	"github.com/kadirpekel/quorum/pkg/config"
)

func TestRegisterProvider(t *testing.T) {
	reg := NewRegistry()

	if err := reg.RegisterProvider("primary", NewMockProvider()); err != nil {
		t.Fatalf("RegisterProvider failed: %v", err)
	}
	if err := reg.RegisterProvider("", NewMockProvider()); err == nil {
		t.Error("expected error for empty name")
	}
	if err := reg.RegisterProvider("nil", nil); err == nil {
		t.Error("expected error for nil provider")
	}
	if err := reg.RegisterProvider("primary", NewMockProvider()); err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestCreateFromConfigRegisters(t *testing.T) {
	reg := NewRegistry()

	created, err := reg.CreateFromConfig("mock", &config.ProviderConfig{Type: config.ProviderMock})
	if err != nil {
		t.Fatalf("CreateFromConfig failed: %v", err)
	}

	got, err := reg.GetProvider("mock")
	if err != nil {
		t.Fatalf("GetProvider failed: %v", err)
	}
	if got != created {
		t.Error("registry must hand back the provider it created")
	}
}

func TestCreateFromConfigErrors(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.CreateFromConfig("", &config.ProviderConfig{Type: config.ProviderMock}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := reg.CreateFromConfig("bad", &config.ProviderConfig{Type: "watsonx"}); err == nil {
		t.Error("expected error for unsupported provider type")
	}
	if _, err := reg.CreateFromConfig("bad", nil); err == nil {
		t.Error("expected error for nil config")
	}
	if reg.Count() != 0 {
		t.Errorf("failed creations must not register, got %d entries", reg.Count())
	}
}

func TestGetProviderMissing(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.GetProvider("absent")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("GetProvider error = %v, want not-found", err)
	}
}

package provider

import (
	"fmt"

	"github.com/kadirpekel/quorum/pkg/config"
	"github.com/kadirpekel/quorum/pkg/registry"
)

// Registry holds named capability providers.
type Registry struct {
	*registry.BaseRegistry[Provider]
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Provider]()}
}

// RegisterProvider adds a provider under a unique name.
func (r *Registry) RegisterProvider(name string, p Provider) error {
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	return r.Register(name, p)
}

// CreateFromConfig constructs the provider the config selects and
// registers it under name.
func (r *Registry) CreateFromConfig(name string, cfg *config.ProviderConfig) (Provider, error) {
	if name == "" {
		return nil, fmt.Errorf("provider name cannot be empty")
	}
	p, err := NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterProvider(name, p); err != nil {
		return nil, fmt.Errorf("failed to register provider: %w", err)
	}
	return p, nil
}

// GetProvider returns the provider registered under name.
func (r *Registry) GetProvider(name string) (Provider, error) {
	p, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("provider %q not found", name)
	}
	return p, nil
}

// NewFromConfig constructs the provider the config selects.
func NewFromConfig(cfg *config.ProviderConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config cannot be nil")
	}

	switch cfg.Type {
	case config.ProviderOpenAI:
		return NewOpenAIProviderFromConfig(cfg)
	case config.ProviderAnthropic:
		return NewAnthropicProviderFromConfig(cfg)
	case config.ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", cfg.Type)
	}
}

package provider

import (
	"fmt"
	"sync"
)

// Config describes one reasoning-backend endpoint.
type Config struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"` // ollama, openai, local, custom, mock
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model    string `json:"model" yaml:"model"`
}

// Registry manages registered plan providers keyed by id.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]PlanProvider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]PlanProvider)}
}

// Register constructs a provider from config and stores it under its id.
func (r *Registry) Register(cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.ID == "" {
		return fmt.Errorf("provider config missing id")
	}
	if _, exists := r.providers[cfg.ID]; exists {
		return fmt.Errorf("provider %s already registered", cfg.ID)
	}

	var p PlanProvider
	switch cfg.Type {
	case "ollama":
		p = NewOllamaProvider(cfg.Endpoint, cfg.Model)
	case "openai", "local", "custom":
		// All speak the OpenAI-compatible protocol.
		p = NewOpenAIProvider(cfg.Endpoint, cfg.APIKey, cfg.Model)
	case "mock":
		p = NewMock()
	default:
		return fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}

	r.providers[cfg.ID] = p
	return nil
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (PlanProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s not registered", id)
	}
	return p, nil
}

// List returns the ids of all registered providers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes all registered providers.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[string]PlanProvider)
}

package platform

import (
	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/models"
)

// Registry resolves a platform name to its adapter.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(cfg config.Config) *Registry {
	return &Registry{
		adapters: map[string]Adapter{
			models.PlatformGoogle:   NewGoogleAdapter(cfg),
			models.PlatformFacebook: NewFacebookAdapter(cfg),
			models.PlatformTiktok:   NewTiktokAdapter(cfg),
		},
	}
}

// NewRegistryWith builds a registry from explicit adapters, used by tests to
// install fakes.
func NewRegistryWith(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Platform()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Get(platform string) (Adapter, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, ErrUnsupported
	}
	return adapter, nil
}

func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

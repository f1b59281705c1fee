package decoder

import "fmt"

// Auto selects a backend by file extension.
const Auto = "auto"

// Registry holds the known decoder backends.
// Registration order is the lookup order for Auto selection.
type Registry struct {
	backends []Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make([]Backend, 0),
	}
}

// DefaultRegistry returns a registry with mpg123, aplay and ffplay.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(MPG123())
	r.Register(Aplay())
	r.Register(FFplay())
	return r
}

// Register adds a backend. A backend with the same name is replaced.
func (r *Registry) Register(b Backend) {
	for i, existing := range r.backends {
		if existing.Name() == b.Name() {
			r.backends[i] = b
			return
		}
	}
	r.backends = append(r.backends, b)
}

// FindBackend finds the first backend that can handle path.
func (r *Registry) FindBackend(path string) Backend {
	for _, b := range r.backends {
		if b.CanHandle(path) {
			return b
		}
	}
	return nil
}

// GetBackendByName finds a backend by name.
func (r *Registry) GetBackendByName(name string) Backend {
	for _, b := range r.backends {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Resolve returns the backend to use for path: by extension when name is
// Auto, otherwise the named backend.
func (r *Registry) Resolve(name, path string) (Backend, error) {
	if name == Auto {
		if b := r.FindBackend(path); b != nil {
			return b, nil
		}
		return nil, fmt.Errorf("no decoder handles %s", path)
	}
	if b := r.GetBackendByName(name); b != nil {
		return b, nil
	}
	return nil, fmt.Errorf("unknown decoder %q", name)
}

// ListBackends returns all registered backend names.
func (r *Registry) ListBackends() []string {
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Name()
	}
	return names
}

// Binaries returns the executables of all registered backends.
func (r *Registry) Binaries() []string {
	bins := make([]string, len(r.backends))
	for i, b := range r.backends {
		bins[i] = b.Binary()
	}
	return bins
}

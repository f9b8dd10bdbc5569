package personas

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogFile embed.FS

// Persona is one expert viewpoint the model can be asked to embody.
// The catalog is fixed at build time and never mutated.
type Persona struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Emoji       string `yaml:"emoji" json:"emoji"`
}

// Registry is the immutable persona catalog, initialized once at
// startup and injected where needed so prompt assembly stays a pure
// function.
type Registry struct {
	ordered []Persona
	byID    map[string]Persona
}

// NewRegistry loads the embedded catalog.
func NewRegistry() (*Registry, error) {
	data, err := catalogFile.ReadFile("catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read persona catalog: %w", err)
	}

	var doc struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal persona catalog: %w", err)
	}
	if len(doc.Personas) == 0 {
		return nil, fmt.Errorf("persona catalog is empty")
	}

	r := &Registry{
		ordered: doc.Personas,
		byID:    make(map[string]Persona, len(doc.Personas)),
	}
	for _, p := range doc.Personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona catalog entry without id")
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id: %s", p.ID)
		}
		r.byID[p.ID] = p
	}
	return r, nil
}

// List returns all personas in catalog order.
func (r *Registry) List() []Persona {
	out := make([]Persona, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get looks up a persona by id.
func (r *Registry) Get(id string) (Persona, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Resolve maps the requested ids to personas, preserving catalog order.
// Unknown ids are silently dropped.
func (r *Registry) Resolve(ids []string) []Persona {
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	var out []Persona
	for _, p := range r.ordered {
		if requested[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

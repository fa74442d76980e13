package template

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrTemplateNotFound indicates no template is registered under the name.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateAlreadyRegistered indicates a name collision on registration.
	ErrTemplateAlreadyRegistered = errors.New("template already registered")

	// ErrMissingParams indicates required template parameters were not provided.
	ErrMissingParams = errors.New("missing required parameters")
)

// Registry is a thread-safe catalog of workflow templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*WorkflowTemplate
	order     []string
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*WorkflowTemplate),
	}
}

// Register adds a template. Names must be unique.
func (r *Registry) Register(template *WorkflowTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[template.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTemplateAlreadyRegistered, template.Name)
	}

	r.templates[template.Name] = template
	r.order = append(r.order, template.Name)

	return nil
}

// Get returns a template by name.
func (r *Registry) Get(name string) (*WorkflowTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	return template, nil
}

// List returns all templates in registration order.
func (r *Registry) List() []*WorkflowTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]*WorkflowTemplate, 0, len(r.order))
	for _, name := range r.order {
		templates = append(templates, r.templates[name])
	}

	return templates
}

// ByCategory returns all templates in the given category.
func (r *Registry) ByCategory(category Category) []*WorkflowTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]*WorkflowTemplate, 0)

	for _, name := range r.order {
		if r.templates[name].Category == category {
			templates = append(templates, r.templates[name])
		}
	}

	return templates
}

// SearchByTags returns templates carrying at least one of the given tags.
func (r *Registry) SearchByTags(tags []string) []*WorkflowTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]*WorkflowTemplate, 0)

	for _, name := range r.order {
		template := r.templates[name]

		for _, tag := range tags {
			if slices.Contains(template.Tags, tag) {
				templates = append(templates, template)

				break
			}
		}
	}

	return templates
}

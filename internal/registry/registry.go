package registry

import "fmt"

// Descriptor identifies one plugin and where it lives.
type Descriptor struct {
	ID   string `json:"id" yaml:"id"`
	Root string `json:"root" yaml:"root"`
}

// Registry lists plugins in processing order.
type Registry interface {
	List() ([]Descriptor, error)
}

// Static is a fixed, ordered list of descriptors.
type Static []Descriptor

// List implements Registry. It returns a copy, so callers may not reorder
// the underlying list.
func (s Static) List() ([]Descriptor, error) {
	if err := validate(s); err != nil {
		return nil, err
	}
	out := make([]Descriptor, len(s))
	copy(out, s)
	return out, nil
}

// validate checks that every descriptor has a unique, non-empty id.
func validate(ds []Descriptor) error {
	seen := make(map[string]struct{}, len(ds))
	for i, d := range ds {
		if d.ID == "" {
			return fmt.Errorf("descriptor %d: %w", i, ErrEmptyID)
		}
		if _, ok := seen[d.ID]; ok {
			return fmt.Errorf("plugin %q: %w", d.ID, ErrDuplicateID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileRegistry reads plugins from a YAML mapping of id to root path:
//
//	hello: ./hello
//	formatter: /opt/plugins/formatter
//
// The mapping order in the file is the processing order. Relative paths
// resolve against the directory containing the file.
type FileRegistry struct {
	path string
}

// NewFileRegistry creates a registry backed by the YAML file at path.
func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{path: path}
}

// Path returns the registry file path.
func (r *FileRegistry) Path() string {
	return r.path
}

// List implements Registry. The file is re-read on every call.
func (r *FileRegistry) List() ([]Descriptor, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	base, err := filepath.Abs(filepath.Dir(r.path))
	if err != nil {
		return nil, fmt.Errorf("resolve registry dir: %w", err)
	}

	ds, err := Parse(data, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return ds, nil
}

// Parse decodes a YAML registry document. Relative roots are joined to base.
func Parse(data []byte, base string) ([]Descriptor, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}

	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping of plugin id to path", ErrInvalidRegistry, root.Line)
	}

	ds := make([]Descriptor, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: plugin entries must be scalar id: path pairs", ErrInvalidRegistry, key.Line)
		}
		if value.Value == "" {
			return nil, fmt.Errorf("%w: line %d: plugin %q has no path", ErrInvalidRegistry, value.Line, key.Value)
		}

		path := value.Value
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		ds = append(ds, Descriptor{ID: key.Value, Root: filepath.Clean(path)})
	}

	if err := validate(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

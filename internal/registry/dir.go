package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirRegistry discovers plugins as the sub-directories of its roots.
//
// Each sub-directory is one plugin whose id is the directory name. Roots are
// checked in order and the first root wins when two roots hold the same id.
// Hidden directories are skipped. Ids are listed sorted by name.
type DirRegistry struct {
	roots []string
}

// DirOption configures a DirRegistry.
type DirOption func(*DirRegistry)

// WithRoots sets the plugin roots.
func WithRoots(roots ...string) DirOption {
	return func(r *DirRegistry) {
		r.roots = roots
	}
}

// NewDirRegistry creates a directory-backed registry.
func NewDirRegistry(opts ...DirOption) *DirRegistry {
	r := &DirRegistry{
		roots: DefaultRoots(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// DefaultRoots returns the default plugin roots.
func DefaultRoots() []string {
	roots := make([]string, 0, 2)

	// User plugins: ~/.config/plugeval/plugins/
	if dir, err := os.UserConfigDir(); err == nil {
		roots = append(roots, filepath.Join(dir, "plugeval", "plugins"))
	}

	// Project plugins: .plugeval/plugins/
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, filepath.Join(cwd, ".plugeval", "plugins"))
	}

	return roots
}

// Roots returns the configured roots.
func (r *DirRegistry) Roots() []string {
	return r.roots
}

// List implements Registry. A root that does not exist contributes nothing.
func (r *DirRegistry) List() ([]Descriptor, error) {
	found := make(map[string]Descriptor)

	for _, root := range r.roots {
		if err := r.discoverInRoot(root, found); err != nil {
			return nil, err
		}
	}

	out := make([]Descriptor, 0, len(found))
	for _, d := range found {
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// discoverInRoot adds the plugin directories of one root.
func (r *DirRegistry) discoverInRoot(root string, found map[string]Descriptor) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read plugin root %s: %w", root, err)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve plugin root %s: %w", root, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !isDir(filepath.Join(abs, name), entry) {
			continue
		}

		// First root wins
		if _, exists := found[name]; !exists {
			found[name] = Descriptor{ID: name, Root: filepath.Join(abs, name)}
		}
	}

	return nil
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

package scaffold

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

// FS is the filesystem access file creation needs.
type FS interface {
	Stat(path string) (fs.FileInfo, error)
	// CreateFile writes data to a new file. It fails if path exists or its
	// directory does not.
	CreateFile(path string, data []byte) error
}

// OSFS creates files on the operating system's filesystem.
type OSFS struct{}

var _ FS = OSFS{}

// Stat returns file information.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// CreateFile creates path exclusively and writes data.
func (OSFS) CreateFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// MemFS is an in-memory FS with slash-separated paths.
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

var _ FS = (*MemFS)(nil)

// NewMemFS returns a MemFS holding only the root directory.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true},
	}
}

// MkdirAll creates dir and its parents.
func (m *MemFS) MkdirAll(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for p := m.clean(dir); ; p = path.Dir(p) {
		m.dirs[p] = true
		if p == "/" {
			return
		}
	}
}

// Stat returns file information.
func (m *MemFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = m.clean(name)
	if m.dirs[name] {
		return memInfo{name: path.Base(name), dir: true}, nil
	}
	if data, ok := m.files[name]; ok {
		return memInfo{name: path.Base(name), size: int64(len(data))}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// CreateFile stores data at name.
func (m *MemFS) CreateFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = m.clean(name)
	if _, ok := m.files[name]; ok || m.dirs[name] {
		return &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
	}
	if !m.dirs[path.Dir(name)] {
		return &fs.PathError{Op: "create", Path: name, Err: syscall.ENOENT}
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// ReadFile returns the content of name.
func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[m.clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// Files lists stored files, sorted.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.files))
	for name := range m.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *MemFS) clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return path.Clean(name)
}

type memInfo struct {
	name string
	size int64
	dir  bool
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }

func (i memInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}

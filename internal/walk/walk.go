// Package walk enumerates regular files beneath a directory.
//
// Traversal is depth-first and pre-order: within a directory, entries are
// visited in name order and a sub-directory is fully expanded before its
// next sibling. The work-list is an explicit stack, so deeply nested trees
// never grow the goroutine stack, and the sequence is lazy: directories are
// read only as the consumer pulls paths.
//
//	for path, err := range walk.Files(root) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(path)
//	}
//
// Each range over the returned sequence restarts the walk from root.
package walk

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// node is a pending work-list item.
type node struct {
	path string
	dir  bool
}

// Files returns a lazy, restartable sequence of the regular files under root.
//
// Paths are joined onto root unchanged, so an absolute root yields absolute
// paths. A read failure is yielded once as (dir, err) and the walk continues
// with the remaining work-list. If root is itself a regular file it is the
// only element. Symbolic links are followed for files but not for
// directories.
func Files(root string) iter.Seq2[string, error] {
	return FilesFS(osFS{}, root)
}

// FS is the subset of filesystem access the walker needs.
type FS interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	Stat(name string) (fs.FileInfo, error)
}

// FilesFS is Files over an arbitrary filesystem.
func FilesFS(fsys FS, root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		info, err := fsys.Stat(root)
		if err != nil {
			yield(root, err)
			return
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				yield(root, nil)
			}
			return
		}

		stack := []node{{path: root, dir: true}}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !n.dir {
				if !yield(n.path, nil) {
					return
				}
				continue
			}

			entries, err := fsys.ReadDir(n.path)
			if err != nil {
				if !yield(n.path, err) {
					return
				}
				continue
			}

			// Push in reverse so entries pop in name order.
			for i := len(entries) - 1; i >= 0; i-- {
				child, ok := classify(fsys, n.path, entries[i])
				if ok {
					stack = append(stack, child)
				}
			}
		}
	}
}

// classify turns a directory entry into a work-list node.
// Entries that are neither regular files nor directories are skipped.
func classify(fsys FS, parent string, entry fs.DirEntry) (node, bool) {
	path := filepath.Join(parent, entry.Name())
	mode := entry.Type()
	switch {
	case mode.IsDir():
		return node{path: path, dir: true}, true
	case mode.IsRegular():
		return node{path: path}, true
	case mode&fs.ModeSymlink != 0:
		info, err := fsys.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return node{}, false
		}
		return node{path: path}, true
	default:
		return node{}, false
	}
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var paths []string
	for path, err := range seq {
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

type osFS struct{}

func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (osFS) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }

package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/plugeval/internal/walk"
)

// DefaultDirective marks a classpath line in an entry script.
const DefaultDirective = "-- classpath:"

// Directive is one classpath line of an entry script.
type Directive struct {
	// Line is the 1-based line number.
	Line int
	// Expr is the trimmed text after the first occurrence of the sentinel.
	Expr string
}

// ParseDirectives scans r line by line and returns every line containing
// sentinel, in file order. The sentinel may appear anywhere on the line,
// including inside a string literal or after code. Lines whose expression
// is empty are skipped.
func ParseDirectives(r io.Reader, sentinel string) ([]Directive, error) {
	var directives []Directive

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		idx := strings.Index(text, sentinel)
		if idx < 0 {
			continue
		}
		expr := strings.TrimSpace(text[idx+len(sentinel):])
		if expr == "" {
			continue
		}
		directives = append(directives, Directive{Line: line, Expr: expr})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return directives, nil
}

// Resolver expands the classpath directives of an entry script into files.
type Resolver struct {
	sentinel string
}

// NewResolver creates a resolver for the given directive sentinel. An empty
// sentinel selects DefaultDirective.
func NewResolver(sentinel string) *Resolver {
	if sentinel == "" {
		sentinel = DefaultDirective
	}
	return &Resolver{sentinel: sentinel}
}

// Resolve reads the entry script's directives and expands each one in order.
//
// A directive naming a regular file contributes that file; one naming a
// directory contributes every regular file beneath it, depth first. A path
// that does not exist is recorded as a *MissingDependencyError in problems,
// one that cannot be examined as a *DependencyError, and resolution
// continues with the next directive either way. err is set only when the
// entry script itself cannot be read.
func (r *Resolver) Resolve(entry EntryScript) (entries []string, problems []error, err error) {
	f, err := os.Open(entry.Path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	directives, err := ParseDirectives(f, r.sentinel)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", entry.Path, err)
	}

	for _, d := range directives {
		path := d.Expr
		if !filepath.IsAbs(path) {
			path = filepath.Join(entry.Dir, path)
		}
		path = filepath.Clean(path)

		info, statErr := os.Stat(path)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				problems = append(problems, &MissingDependencyError{Expr: d.Expr, Path: path})
				continue
			}
			problems = append(problems, &DependencyError{Line: d.Line, Expr: d.Expr, Err: statErr})
			continue
		}

		if !info.IsDir() {
			if info.Mode().IsRegular() {
				entries = append(entries, path)
			}
			continue
		}

		// A directory that fails part way contributes nothing.
		var files []string
		for file, walkErr := range walk.Files(path) {
			if walkErr != nil {
				problems = append(problems, &DependencyError{Line: d.Line, Expr: d.Expr, Err: walkErr})
				files = nil
				break
			}
			files = append(files, file)
		}
		entries = append(entries, files...)
	}

	return entries, problems, nil
}

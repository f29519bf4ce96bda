// Package scaffold creates new plugin files.
//
// A Creator asks a Prompter for a file name, retrying on blank input or a
// failed create, and writes the initial text once a name works. It shares
// no state with the evaluation engine.
package scaffold

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Creation errors.
var (
	ErrCancelled    = errors.New("file creation cancelled")
	ErrNotDirectory = errors.New("parent is not a directory")
)

// Messages shown through Prompter.ShowError.
const (
	msgEmptyName    = "File name cannot be empty"
	msgCreateFailed = "Could not create file %s"
)

// Kind selects the extension and template of a new file.
type Kind int

const (
	// KindText is a plain file written as given.
	KindText Kind = iota
	// KindScript is a Lua plugin script.
	KindScript
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Ext returns the extension appended to names that lack one.
func (k Kind) Ext() string {
	if k == KindScript {
		return ".lua"
	}
	return ""
}

// Prompter is the interactive side of file creation.
type Prompter interface {
	// AskName returns the requested file name. ok is false when the user
	// cancelled.
	AskName(kind Kind) (name string, ok bool, err error)

	// ShowError reports a problem before the next AskName.
	ShowError(message string)
}

// Creator creates files under a parent directory.
type Creator struct {
	prompter Prompter
	fs       FS
}

// Option configures a Creator.
type Option func(*Creator)

// WithFS sets the filesystem files are created in.
func WithFS(fs FS) Option {
	return func(c *Creator) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// NewCreator returns a Creator that asks p for names.
func NewCreator(p Prompter, opts ...Option) *Creator {
	c := &Creator{prompter: p, fs: OSFS{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create prompts for a name until a file is created under parentDir and
// returns its path. Cancelling returns ErrCancelled and creates nothing.
// An empty initialText for KindScript uses the plugin template.
func (c *Creator) Create(parentDir string, kind Kind, initialText string) (string, error) {
	info, err := c.fs.Stat(parentDir)
	if err != nil {
		return "", fmt.Errorf("scaffold %s: %w", parentDir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scaffold %s: %w", parentDir, ErrNotDirectory)
	}

	text := initialText
	if text == "" && kind == KindScript {
		text = ScriptTemplate
	}

	for {
		name, ok, err := c.prompter.AskName(kind)
		if err != nil {
			return "", fmt.Errorf("ask file name: %w", err)
		}
		if !ok {
			return "", ErrCancelled
		}

		name = strings.TrimSpace(name)
		if name == "" {
			c.prompter.ShowError(msgEmptyName)
			continue
		}
		if filepath.Ext(name) == "" {
			name += kind.Ext()
		}

		path := filepath.Join(parentDir, name)
		if err := c.fs.CreateFile(path, []byte(text)); err != nil {
			c.prompter.ShowError(fmt.Sprintf(msgCreateFailed, name))
			continue
		}
		return path, nil
	}
}

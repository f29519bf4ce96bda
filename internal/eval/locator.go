package eval

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/dshills/plugeval/internal/walk"
)

// EntryScript is a located entry script.
type EntryScript struct {
	// Path is the absolute path of the script.
	Path string
	// Dir is the directory containing it.
	Dir string
}

// LocateEntryScript searches the whole tree under root for files named name.
//
// No match, including a root that does not exist, returns
// ErrEntryScriptNotFound. More than one match returns an
// error wrapping ErrMultipleEntryScripts. Any I/O error met while walking is
// returned as is.
func LocateEntryScript(root, name string) (EntryScript, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return EntryScript{}, fmt.Errorf("resolve plugin root: %w", err)
	}

	var matches []string
	for path, err := range walk.Files(abs) {
		if err != nil {
			// A root that is not there holds no entry script.
			if path == abs && errors.Is(err, fs.ErrNotExist) {
				return EntryScript{}, ErrEntryScriptNotFound
			}
			return EntryScript{}, err
		}
		if filepath.Base(path) == name {
			matches = append(matches, path)
		}
	}

	switch len(matches) {
	case 0:
		return EntryScript{}, ErrEntryScriptNotFound
	case 1:
		return EntryScript{Path: matches[0], Dir: filepath.Dir(matches[0])}, nil
	default:
		return EntryScript{}, fmt.Errorf("found %d %s files under %s (%s): %w",
			len(matches), name, abs, strings.Join(matches, ", "), ErrMultipleEntryScripts)
	}
}

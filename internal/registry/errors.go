package registry

import "errors"

// Registry errors.
var (
	// ErrDuplicateID is returned when two descriptors share an id.
	ErrDuplicateID = errors.New("duplicate plugin id")

	// ErrEmptyID is returned for a descriptor without an id.
	ErrEmptyID = errors.New("empty plugin id")

	// ErrInvalidRegistry is returned when a registry file is not a mapping
	// of plugin id to path.
	ErrInvalidRegistry = errors.New("invalid registry file")
)

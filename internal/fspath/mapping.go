package fspath

import "maps"

// PathMapping binds a logical path to the physical location of its bytes.
// It is immutable once constructed; accessors hand out copies.
type PathMapping struct {
	logical      LogicalPath
	physical     string
	allowMoveOut bool
	properties   map[string]string
}

// MappingOption configures optional PathMapping fields.
type MappingOption func(*PathMapping)

// WithAllowMoveOut marks the mapping as allowed to resolve outside its root.
func WithAllowMoveOut() MappingOption {
	return func(m *PathMapping) { m.allowMoveOut = true }
}

// WithProperties attaches reader-supplied properties to the mapping.
func WithProperties(props map[string]string) MappingOption {
	return func(m *PathMapping) {
		if len(props) > 0 {
			m.properties = maps.Clone(props)
		}
	}
}

// NewPathMapping creates a mapping. physical may contain unexpanded
// environment variables; see ExpandEnv.
func NewPathMapping(logical LogicalPath, physical string, opts ...MappingOption) PathMapping {
	m := PathMapping{logical: logical, physical: physical}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m PathMapping) Logical() LogicalPath { return m.logical }
func (m PathMapping) Physical() string     { return m.physical }
func (m PathMapping) AllowMoveOut() bool   { return m.allowMoveOut }

// IsFolder is derived from the logical path.
func (m PathMapping) IsFolder() bool { return m.logical.IsFolder() }

// Properties returns a copy of the mapping's properties, nil when there are none.
func (m PathMapping) Properties() map[string]string {
	return maps.Clone(m.properties)
}

// Property looks up a single property.
func (m PathMapping) Property(key string) (string, bool) {
	v, ok := m.properties[key]
	return v, ok
}

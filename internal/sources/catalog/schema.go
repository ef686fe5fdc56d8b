package catalog

// Document is the top-level structure of one service file.
//
// The service block is kept loosely typed: it is validated before it is
// mapped onto domain.ServiceRecord.
type Document struct {
	SchemaVersion      string         `yaml:"schema_version,omitempty"`
	Service            map[string]any `yaml:"service"`
	ExampleMountpoints []any          `yaml:"example_mountpoints,omitempty"`
}

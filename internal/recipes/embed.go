package recipes

import _ "embed"

// DefaultRegistry is the built-in target registry, used when no kiln.yaml is found.
//
//go:embed registry.yaml
var DefaultRegistry []byte

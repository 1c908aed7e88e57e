package scopes

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed builtins.yaml
var builtinsYAML []byte

// builtinNames is the fixed builtin namespace used as the last resolution
// fallback.
var builtinNames = mustLoadBuiltins()

func mustLoadBuiltins() map[string]bool {
	var names []string
	if err := yaml.Unmarshal(builtinsYAML, &names); err != nil {
		panic(fmt.Sprintf("scopes: invalid builtins catalog: %v", err))
	}
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = true
	}
	return out
}

// IsBuiltin reports whether name belongs to the builtin namespace.
func IsBuiltin(name string) bool {
	return builtinNames[name]
}

package config

import (
	"os"
	"strings"
)

// deepMerge combines base and overlay: maps merge key-by-key recursively;
// slices and scalars in overlay replace the corresponding base value
// wholesale (spec.md §6.1, SPEC_FULL.md §4.7 edge case: "an overlay array
// always fully replaces a base array of the same key").
func deepMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range overlay {
		if bv, ok := out[k]; ok {
			bvMap, bIsMap := bv.(map[string]any)
			ovMap, oIsMap := ov.(map[string]any)
			if bIsMap && oIsMap {
				out[k] = deepMerge(bvMap, ovMap)
				continue
			}
		}
		out[k] = ov
	}
	return out
}

// applyEnvOverrides walks namespace's subtree and replaces any leaf whose
// corresponding BASECORE_{NAMESPACE}_{KEY} environment variable is set,
// using a double underscore to join nested key segments (SPEC_FULL.md
// §4.7: "upper-cased, double-underscore for nesting").
func applyEnvOverrides(namespace string, tree map[string]any) map[string]any {
	return applyEnvNode(strings.ToUpper(namespace), "_", tree).(map[string]any)
}

// applyEnvNode recurses through node, joining prefix to each key with sep.
// The first join (namespace -> top-level key) uses a single underscore;
// every join below that uses a double underscore, per SPEC_FULL.md §4.7.
func applyEnvNode(prefix, sep string, node any) any {
	m, ok := node.(map[string]any)
	if !ok {
		return node
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		envKey := prefix + sep + strings.ToUpper(k)
		if child, isMap := v.(map[string]any); isMap {
			out[k] = applyEnvNode(envKey, "__", child)
			continue
		}
		if raw, present := os.LookupEnv("BASECORE_" + envKey); present {
			out[k] = raw
			continue
		}
		out[k] = v
	}
	return out
}

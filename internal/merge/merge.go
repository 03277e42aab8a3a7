// SPDX-License-Identifier: MPL-2.0

// Package merge deep-merges configuration fragments.
package merge

import (
	"maps"
	"slices"
)

// Merge combines base and fragments left to right into a new tree.
//
// Nested maps are merged key by key; any other value, slices included,
// replaces the earlier one wholesale. Inputs are never modified and the
// result shares no map or slice with them. Nil fragments are skipped.
func Merge(base map[string]any, fragments ...map[string]any) map[string]any {
	result := deepCopyMap(base)
	for _, frag := range fragments {
		mergeInto(result, frag)
	}
	return result
}

// Fold merges a single fragment onto acc, returning a new tree.
// Merge(a, b, c) equals Fold(Fold(a, b), c).
func Fold(acc, fragment map[string]any) map[string]any {
	return Merge(acc, fragment)
}

// mergeInto merges src into dst. dst is owned by the caller and src is
// copied as it is read.
func mergeInto(dst, src map[string]any) {
	for _, key := range slices.Sorted(maps.Keys(src)) {
		value := src[key]
		if existing, ok := dst[key].(map[string]any); ok {
			if valueMap, ok := value.(map[string]any); ok {
				mergeInto(existing, valueMap)
				continue
			}
		}
		dst[key] = deepCopy(value)
	}
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return deepCopyMap(x)
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		return slices.Clone(x)
	case map[string]string:
		return maps.Clone(x)
	default:
		return v
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

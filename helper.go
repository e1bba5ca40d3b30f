// FILE: lixenwraith/bridge/helper.go
package bridge

import (
	"fmt"
	"strings"
)

// flattenMap converts a nested map[string]any to a flat map with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)
	for key, value := range nested {
		path := joinPath(prefix, key)
		if sub, ok := value.(map[string]any); ok {
			for subPath, subValue := range flattenMap(sub, path) {
				flat[subPath] = subValue
			}
			continue
		}
		flat[path] = value
	}
	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path,
// replacing any non-map value found on the way.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// isValidKeySegment checks that s is a TOML bare key (A-Za-z0-9_-).
func isValidKeySegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// parseArgs turns "--a.b=v", "--a.b v" and "--flag" arguments into a nested map.
// Non-flag arguments and a bare "--" are skipped.
func parseArgs(args []string) (map[string]any, error) {
	result := make(map[string]any)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		content := strings.TrimPrefix(arg, "--")
		if content == "" {
			continue
		}

		keyPath, valueStr, hasValue := strings.Cut(content, "=")
		if !hasValue {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				valueStr = args[i+1]
				i++
			} else {
				valueStr = "true"
			}
		}
		if keyPath == "" {
			continue
		}

		for _, segment := range strings.Split(keyPath, ".") {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid command-line key segment %q in path %q", segment, keyPath)
			}
		}
		setNestedValue(result, keyPath, valueStr)
	}
	return result, nil
}

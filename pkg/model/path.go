package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SetPath writes value at a dotted path such as "links.1.url". Numeric
// segments index into lists; missing maps are created.
func SetPath(root map[string]any, path string, value any) error {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return fmt.Errorf("model: empty field path")
	}
	var current any = root
	for idx, segment := range segments {
		last := idx == len(segments)-1
		switch container := current.(type) {
		case map[string]any:
			if last {
				container[segment] = value
				return nil
			}
			next, ok := container[segment]
			if !ok || next == nil {
				next = map[string]any{}
				container[segment] = next
			}
			current = next
		case []any:
			pos, err := strconv.Atoi(segment)
			if err != nil || pos < 0 || pos >= len(container) {
				return fmt.Errorf("model: index %q out of range at %q", segment, path)
			}
			if last {
				container[pos] = value
				return nil
			}
			current = container[pos]
		default:
			return fmt.Errorf("model: cannot descend into %T at %q", current, path)
		}
	}
	return nil
}

// GetPath reads the value at a dotted path.
func GetPath(root map[string]any, path string) (any, bool) {
	var current any = root
	for _, segment := range SplitPath(path) {
		switch container := current.(type) {
		case map[string]any:
			next, ok := container[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			pos, err := strconv.Atoi(segment)
			if err != nil || pos < 0 || pos >= len(container) {
				return nil, false
			}
			current = container[pos]
		default:
			return nil, false
		}
	}
	return current, true
}

// SplitPath splits a dotted path, dropping empty segments.
func SplitPath(path string) []string {
	var out []string
	for _, segment := range strings.Split(strings.TrimSpace(path), ".") {
		if segment = strings.TrimSpace(segment); segment != "" {
			out = append(out, segment)
		}
	}
	return out
}

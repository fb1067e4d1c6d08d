package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// RejectedError is returned by page stores that refuse a write with per-field
// messages, typically relayed from an upstream API. Paths may be JSON
// pointers, bracketed or dotted; MapErrorPayload normalises them.
type RejectedError struct {
	Fields map[string][]string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("forms: values rejected for %d field(s)", len(e.Fields))
}

// ErrorMapping splits an error payload into field-level and form-level
// messages keyed by the dotted field paths used by FieldView.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload normalises a server error payload (JSON pointer, bracket or
// dotted paths) into field paths of schema. Paths that do not resolve to a
// field become form-level messages so nothing is lost.
func MapErrorPayload(schema []model.FieldSchema, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{})
	collectFieldPaths(schema, "", known)

	for _, rawPath := range model.SortedKeys(payload) {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		mapped, ok := mapErrorPath(rawPath, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[mapped] = append(mapping.Fields[mapped], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// collectFieldPaths records paths with repeater indexes removed, for example
// "items.label".
func collectFieldPaths(schema []model.FieldSchema, prefix string, known map[string]struct{}) {
	for _, field := range schema {
		switch field.Kind {
		case model.FieldKindGroup:
			collectFieldPaths(field.Fields, prefix, known)
			continue
		case model.FieldKindRepeater:
			collectFieldPaths(field.Fields, joinPath(prefix, field.Name), known)
		}
		if field.Name != "" {
			known[joinPath(prefix, field.Name)] = struct{}{}
		}
	}
}

func mapErrorPath(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", false
	}
	segments := dropWrapperSegments(parsePathSegments(trimmed))
	for len(segments) > 0 {
		if _, ok := known[strings.Join(stripNumericSegments(segments), ".")]; ok {
			return strings.Join(segments, "."), true
		}
		// Fall back to the nearest known ancestor.
		segments = segments[:len(segments)-1]
	}
	return "", false
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(key) {
	case "", "_", "#", "/", "$", "form", "_form", "base", "__all__", "non_field_errors":
		return true
	}
	return false
}

var (
	pointerUnescape = strings.NewReplacer("~1", "/", "~0", "~")
	bracketsToDots  = strings.NewReplacer("[", ".", "]", "")
)

// wrapperSegments are envelope keys APIs put in front of the submitted
// config, as in "body.config.title".
var wrapperSegments = map[string]bool{"body": true, "request": true, "payload": true, "data": true, "config": true}

func parsePathSegments(path string) []string {
	clean := strings.TrimLeft(strings.TrimSpace(path), "#/.$")
	parts := strings.FieldsFunc(bracketsToDots.Replace(clean), func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, pointerUnescape.Replace(part))
		}
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	for len(segments) > 1 && wrapperSegments[strings.ToLower(segments[0])] {
		segments = segments[1:]
	}
	return segments
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func normalizeMessages(messages []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" || seen[message] {
			continue
		}
		seen[message] = true
		out = append(out, message)
	}
	return out
}

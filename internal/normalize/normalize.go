// Package normalize translates upstream response bodies (snake_case keys,
// numeric foreign keys, nested status objects) into the shape the rest of
// the service works with. It is the single point of renaming: no other
// layer re-implements any of these rules.
package normalize

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Apply walks a decoded JSON value and normalizes every object in it.
// Arrays are mapped element-wise, primitives pass through unchanged.
// The transformation is pure and idempotent: applying it to its own
// output produces no further changes.
func Apply(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = Apply(el)
		}
		return out
	case map[string]any:
		return applyObject(t)
	default:
		return v
	}
}

// applyObject runs the ordered rule set over a single object. Key renaming
// to camelCase happens first; the remaining rules see the renamed key set.
// Rule order matters and must not be rearranged.
func applyObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[toCamel(k)] = v
	}

	renameName(out)
	renameIfAbsent(out, "endAppDate", "applyDeadline")
	coerceRename(out, "event", "eventId")
	coerceRename(out, "direction", "directionId")
	coerceExpose(out, "project", "projectId")
	coerceRename(out, "leader", "organizer")
	coerceInPlace(out, "curator")
	renameIfAbsent(out, "message", "about")
	renameIfAbsent(out, "dateSub", "createdAt")
	coerceExpose(out, "user", "ownerId")
	flattenStatus(out)

	for k, v := range out {
		out[k] = Apply(v)
	}
	return out
}

// renameName moves "name" to "title" for event/direction/project-like
// objects: either the object carries a shape marker, or it has a name
// without startDate/questionCount (quiz payloads keep their name).
func renameName(obj map[string]any) {
	name, ok := obj["name"]
	if !ok {
		return
	}
	marked := hasAny(obj, "startDate", "stage", "endDate", "eventId", "directionId")
	_, hasStart := obj["startDate"]
	_, hasQuestions := obj["questionCount"]
	if marked || (!hasStart && !hasQuestions) {
		obj["title"] = name
		delete(obj, "name")
	}
}

// renameIfAbsent moves from → to unless the target key already exists.
func renameIfAbsent(obj map[string]any, from, to string) {
	v, ok := obj[from]
	if !ok {
		return
	}
	if _, exists := obj[to]; !exists {
		obj[to] = v
	}
	delete(obj, from)
}

// coerceRename replaces a numeric-or-string foreign key with its coerced
// form under a new name, dropping the original key.
func coerceRename(obj map[string]any, from, to string) {
	v, ok := obj[from]
	if !ok {
		return
	}
	if n, ok := toNumber(v); ok {
		obj[to] = n
		delete(obj, from)
	}
}

// coerceExpose mirrors a foreign key under a second name, keeping the
// original key in place.
func coerceExpose(obj map[string]any, from, to string) {
	v, ok := obj[from]
	if !ok {
		return
	}
	if n, ok := toNumber(v); ok {
		if _, exists := obj[to]; !exists {
			obj[to] = n
		}
	}
}

// coerceInPlace converts a numeric string to a number under the same key.
func coerceInPlace(obj map[string]any, key string) {
	v, ok := obj[key]
	if !ok {
		return
	}
	if n, ok := toNumber(v); ok {
		obj[key] = n
	}
}

// flattenStatus replaces a status object by its name field. Handled before
// recursion so the nested object never sees the name→title rename.
func flattenStatus(obj map[string]any) {
	m, ok := obj["status"].(map[string]any)
	if !ok {
		return
	}
	if name, ok := m["name"]; ok {
		obj["status"] = name
	}
}

func hasAny(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// toNumber coerces JSON numbers and numeric strings to float64, which is
// how encoding/json represents numbers in untyped documents.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// toCamel converts snake_case keys to camelCase; keys without underscores
// are returned unchanged.
func toCamel(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	parts := strings.Split(s, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() == 0 && i == 0 {
			b.WriteString(p)
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}
	return b.String()
}

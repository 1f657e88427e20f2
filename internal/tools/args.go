package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// arguments wraps the loosely typed MCP argument map. Callers send numbers
// as strings and strings as numbers, so every accessor accepts both.
type arguments map[string]any

// argError is an invalid or missing argument.
type argError struct {
	key string
	msg string
}

func (e *argError) Error() string { return fmt.Sprintf("%s: %s", e.key, e.msg) }

func missing(key string) error { return &argError{key: key, msg: "is required"} }

func invalid(key, msg string) error { return &argError{key: key, msg: msg} }

// str returns the first present key as a trimmed string.
func (a arguments) str(keys ...string) string {
	for _, k := range keys {
		v, ok := a[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			s = strconv.Itoa(t)
		case json.Number:
			s = t.String()
		case bool:
			s = strconv.FormatBool(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// require is str that fails when nothing is present. The error names the
// first key.
func (a arguments) require(keys ...string) (string, error) {
	if s := a.str(keys...); s != "" {
		return s, nil
	}
	return "", missing(keys[0])
}

func (a arguments) integer(key string, def int) (int, error) {
	s := a.str(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, invalid(key, "must be a whole number")
	}
	return int(f), nil
}

// optBool is nil when key is absent.
func (a arguments) optBool(key string) (*bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	var b bool
	switch t := v.(type) {
	case bool:
		b = t
	default:
		switch strings.ToLower(a.str(key)) {
		case "":
			return nil, nil
		case "true", "yes", "y", "1", "نعم":
			b = true
		case "false", "no", "n", "0", "لا":
			b = false
		default:
			return nil, invalid(key, "must be true or false")
		}
	}
	return &b, nil
}

// strings accepts an array of strings or a single string.
func (a arguments) strings(key string) []string {
	switch t := a[key].(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := (arguments{"v": item}).str("v"); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	}
	if s := a.str(key); s != "" {
		return []string{s}
	}
	return nil
}

// decode converts an object or array argument into v via JSON.
func (a arguments) decode(key string, v any) error {
	raw, ok := a[key]
	if !ok || raw == nil {
		return missing(key)
	}
	if s, isString := raw.(string); isString {
		// Some clients send nested structures as JSON text.
		if err := json.Unmarshal([]byte(s), v); err != nil {
			return invalid(key, "must be valid JSON")
		}
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return invalid(key, err.Error())
	}
	if err := json.Unmarshal(b, v); err != nil {
		return invalid(key, "has the wrong shape")
	}
	return nil
}

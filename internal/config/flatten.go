package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Settings are addressed on the command line by dot-separated keys built from
// the JSON field names, e.g. "notion.student_id_property".

var secretKeys = map[string]bool{
	"discord.token":  true,
	"telegram.token": true,
	"notion.api_key": true,
}

// IsSecretKey reports whether the value under key is masked by MaskSecrets.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// Flatten maps every leaf of a settings tree to its dot-separated key.
// Empty sections contribute no keys.
func Flatten(tree map[string]any) map[string]any {
	flat := make(map[string]any)
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for name, v := range node {
			key := name
			if prefix != "" {
				key = prefix + "." + name
			}
			if section, ok := v.(map[string]any); ok {
				walk(key, section)
				continue
			}
			flat[key] = v
		}
	}
	walk("", tree)
	return flat
}

// Unflatten rebuilds the settings tree from dot-separated keys. A scalar
// standing where a section is needed is replaced by the section.
func Unflatten(flat map[string]any) map[string]any {
	tree := make(map[string]any)
	for key, v := range flat {
		path := strings.Split(key, ".")
		node := tree
		for _, name := range path[:len(path)-1] {
			section, ok := node[name].(map[string]any)
			if !ok {
				section = make(map[string]any)
				node[name] = section
			}
			node = section
		}
		node[path[len(path)-1]] = v
	}
	return tree
}

// MaskSecrets returns a copy of flat with secret strings reduced to their
// last four characters, e.g. "***5678".
func MaskSecrets(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for key, v := range flat {
		if s, ok := v.(string); ok && secretKeys[key] {
			v = mask(s)
		}
		out[key] = v
	}
	return out
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 4:
		return "***" + s
	}
	return "***" + s[len(s)-4:]
}

// knownKeys returns the keys of Config with their default values, which
// give each key its type.
func knownKeys() map[string]any {
	m, err := ToMap(Defaults())
	if err != nil {
		return nil
	}
	return Flatten(m)
}

// ParseValue converts a command-line value for key. Keys of Config take the
// type of their field: strings are kept verbatim and numbers or booleans must
// parse. Other keys are stored typed when the value is valid JSON and as a
// string otherwise.
func ParseValue(key, value string) (any, error) {
	def, known := knownKeys()[key]
	if !known {
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			return value, nil
		}
		return parsed, nil
	}

	switch def.(type) {
	case float64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a whole number, got %q", key, value)
		}
		return float64(n), nil
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	default:
		return value, nil
	}
}

// checkTree reports whether tree still decodes into a Config.
func checkTree(tree map[string]any) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	var cfg Config
	return json.Unmarshal(data, &cfg)
}

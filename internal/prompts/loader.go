// Package prompts holds the mentor's prompt templates, embedded from
// mentor.json and keyed by name. Templates use {{.Name}} placeholders.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed mentor.json
var mentorJSON []byte

// Template keys.
const (
	KeyPersona       = "persona"
	KeyChat          = "chat"
	KeyDailyFeedback = "daily-feedback"
)

// personaField is filled from KeyPersona by Mentor.
const personaField = "Persona"

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

var templates = sync.OnceValues(func() (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal(mentorJSON, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mentor prompts: %w", err)
	}
	return m, nil
})

// Lookup returns the raw template for key.
func Lookup(key string) (string, error) {
	m, err := templates()
	if err != nil {
		return "", err
	}
	t, ok := m[key]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", key)
	}
	return t, nil
}

// Keys lists the template keys in sorted order.
func Keys() ([]string, error) {
	m, err := templates()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Fields returns the distinct placeholder names in template, in order of
// first use.
func Fields(template string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Format substitutes data into template in a single pass, so placeholders
// that appear inside values stay literal. Unknown placeholders are kept.
func Format(template string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(ph string) string {
		if v, ok := data[ph[3:len(ph)-2]]; ok {
			return v
		}
		return ph
	})
}

// Mentor renders the template at key with the persona and data. Every
// placeholder in the template must have a value.
func Mentor(key string, data map[string]string) (string, error) {
	t, err := Lookup(key)
	if err != nil {
		return "", err
	}
	persona, err := Lookup(KeyPersona)
	if err != nil {
		return "", err
	}
	values := make(map[string]string, len(data)+1)
	for k, v := range data {
		values[k] = v
	}
	values[personaField] = persona

	var missing []string
	for _, f := range Fields(t) {
		if _, ok := values[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %q: no value for %s", key, strings.Join(missing, ", "))
	}
	return Format(t, values), nil
}

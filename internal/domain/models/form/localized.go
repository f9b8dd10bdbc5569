package form

import "sort"

// LocalizedText maps a language code to a translated string.
// A nil map behaves like an empty one for reads.
type LocalizedText map[string]string

// Get returns the string bound to lang, or "" when the map is nil
// or the language is missing. It never falls back to another language;
// use Resolve for display purposes.
func (t LocalizedText) Get(lang string) string {
	return t[lang]
}

// Set returns a new map equal to t with lang rebound to value,
// preserving all other keys. The receiver is never mutated.
func (t LocalizedText) Set(lang, value string) LocalizedText {
	out := make(LocalizedText, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[lang] = value
	return out
}

// Resolve returns the best display string for lang: the exact language
// if present, then the "default" key, then the lexicographically first
// entry. Returns "" for an empty map. Deterministic for a given map.
func (t LocalizedText) Resolve(lang string) string {
	if v, ok := t[lang]; ok {
		return v
	}
	if v, ok := t["default"]; ok {
		return v
	}
	if len(t) == 0 {
		return ""
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return t[keys[0]]
}

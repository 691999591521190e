// Package entities contains core domain data structures.
package entities

import "time"

// Well-known attribute keys written by the current tools. The mapping is
// intentionally open: new tools may add keys without migrating stored
// characters.
const (
	AttrName             = "name"
	AttrOrigin           = "origin"
	AttrSocialStatus     = "social_status"
	AttrPowerSource      = "power_source"
	AttrTraits           = "traits"
	AttrBackstorySeeds   = "backstory_seeds"
	AttrPowerSuggestions = "power_suggestions"
	AttrMood             = "mood"
	AttrPersonaSummary   = "persona_summary"
	AttrArchetypeTags    = "archetype_tags"
	AttrGenre            = "genre"
)

// Attributes is the open attribute mapping of a character. Values are
// JSON-shaped: scalars, []any, or nested map[string]any.
type Attributes map[string]any

// Character is the central persisted entity a user develops across tools.
// Characters are never hard-deleted, only archived, since beat sheets and
// trope analyses may still reference them by id.
type Character struct {
	ID             string     `json:"id"`
	Attributes     Attributes `json:"attributes"`
	CurrentVersion int        `json:"current_version"`
	Archived       bool       `json:"archived"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Trait is one entry of the "traits" attribute.
type Trait struct {
	Category   string  `json:"category"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// PowerSuggestion is one entry of the "power_suggestions" attribute.
// CostLevel ranges 0-10.
type PowerSuggestion struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CostLevel   float64  `json:"cost_level"`
	Limitations []string `json:"limitations,omitempty"`
}

// Clone returns a deep copy of the attribute mapping, so callers can hold a
// snapshot that later merges will not alias.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a new mapping with patch applied on top of a. The merge is
// shallow: top-level keys in patch overwrite, keys absent from patch are
// preserved. Neither input is modified.
func (a Attributes) Merge(patch Attributes) Attributes {
	out := a.Clone()
	if out == nil {
		out = make(Attributes, len(patch))
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the named attribute coerced to a string, or "" when the key
// is absent or not string-like.
func (a Attributes) String(key string) string {
	return coerceString(a[key])
}

// Strings returns the named attribute as a string slice. A bare string value
// is returned as a single-element slice.
func (a Attributes) Strings(key string) []string {
	switch v := a[key].(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Traits parses the "traits" attribute tolerantly. Entries may use "text" or
// the older "trait" key; a missing confidence is treated as fully asserted.
func (a Attributes) Traits() []Trait {
	items, ok := a[AttrTraits].([]any)
	if !ok {
		return nil
	}
	traits := make([]Trait, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			if s := coerceString(item); s != "" {
				traits = append(traits, Trait{Text: s, Confidence: 1})
			}
			continue
		}
		t := Trait{
			Category:   coerceString(m["category"]),
			Text:       coerceString(m["text"]),
			Confidence: 1,
		}
		if t.Text == "" {
			t.Text = coerceString(m["trait"])
		}
		if c, ok := coerceNumber(m["confidence"]); ok {
			t.Confidence = c
		}
		if t.Text != "" {
			traits = append(traits, t)
		}
	}
	return traits
}

// PowerSuggestions parses the "power_suggestions" attribute tolerantly.
func (a Attributes) PowerSuggestions() []PowerSuggestion {
	items, ok := a[AttrPowerSuggestions].([]any)
	if !ok {
		return nil
	}
	powers := make([]PowerSuggestion, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := PowerSuggestion{
			Name:        coerceString(m["name"]),
			Description: coerceString(m["description"]),
		}
		if c, ok := coerceNumber(m["cost_level"]); ok {
			p.CostLevel = c
		}
		switch lim := m["limitations"].(type) {
		case string:
			if lim != "" {
				p.Limitations = []string{lim}
			}
		case []any:
			for _, l := range lim {
				if s := coerceString(l); s != "" {
					p.Limitations = append(p.Limitations, s)
				}
			}
		}
		if p.Name != "" || p.Description != "" {
			powers = append(powers, p)
		}
	}
	return powers
}

// cloneValue deep-copies JSON-shaped values. Scalars are returned as-is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case Attributes:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

// coerceNumber accepts float64 (JSON) and int (Go literals in tests).
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

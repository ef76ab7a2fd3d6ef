package language

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// DefaultTag is the content language assumed when nothing else is known.
const DefaultTag = "zh-Hans"

// NormalizeTag canonicalizes a language tag: lower-cases and hyphenates,
// collapses traditional Chinese variants to zh-Hant, simplified variants and
// bare zh to zh-Hans, and every English variant to en. Blank input maps to
// the default tag; anything else passes through trimmed.
func NormalizeTag(tag string) string {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	switch {
	case normalized == "":
		return DefaultTag
	case strings.HasPrefix(normalized, "zh-hant"),
		strings.HasPrefix(normalized, "zh-tw"),
		strings.HasPrefix(normalized, "zh-hk"):
		return "zh-Hant"
	case strings.HasPrefix(normalized, "zh-hans"),
		strings.HasPrefix(normalized, "zh-cn"),
		normalized == "zh":
		return "zh-Hans"
	case strings.HasPrefix(normalized, "en"):
		return "en"
	default:
		return strings.TrimSpace(tag)
	}
}

// ParseSupported parses a source's supported-language declaration, which may
// be a JSON array or a comma-separated list. An empty result means the
// source accepts any language.
func ParseSupported(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var tags []string
		if err := json.Unmarshal([]byte(trimmed), &tags); err == nil {
			parsed := make([]string, 0, len(tags))
			for _, tag := range tags {
				if tag = strings.TrimSpace(tag); tag != "" {
					parsed = append(parsed, tag)
				}
			}
			return parsed
		}
	}

	parts := strings.Split(trimmed, ",")
	parsed := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), "\"[]")
		if part != "" {
			parsed = append(parsed, part)
		}
	}
	return parsed
}

// Negotiate picks the entry of supported that should satisfy the current
// content language: an exact canonical match first, then a primary-subtag
// match. An empty supported set accepts any language and yields current
// itself. It reports false when no entry matches; callers must skip the
// source rather than invent a fallback.
func Negotiate(current string, supported []string) (string, bool) {
	if len(supported) == 0 {
		return current, true
	}
	target := NormalizeTag(current)
	for _, candidate := range supported {
		if NormalizeTag(candidate) == target {
			return candidate, true
		}
	}
	targetPrefix := primarySubtag(target)
	for _, candidate := range supported {
		if primarySubtag(NormalizeTag(candidate)) == targetPrefix {
			return candidate, true
		}
	}
	return "", false
}

func primarySubtag(tag string) string {
	if idx := strings.IndexByte(tag, '-'); idx >= 0 {
		return tag[:idx]
	}
	return tag
}

var displayNames = map[string]string{
	"zh-Hans": "Simplified Chinese",
	"zh-Hant": "Traditional Chinese",
	"en":      "English",
}

// DisplayName renders a human-readable name for a normalized tag, title-cased
// for CLI output. Unknown tags are shown as their title-cased form.
func DisplayName(tag string) string {
	canonical := NormalizeTag(tag)
	if name, ok := displayNames[canonical]; ok {
		return name
	}
	return cases.Title(xlanguage.English).String(canonical)
}

// Package sources owns source extraction configuration: the request template
// and field-mapping paths stored alongside each source, the embedded builtin
// manifest, and constructors for user-defined sources.
package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"jokebox/internal/language"
	"jokebox/internal/store"
)

// Default field-mapping paths applied when a source has no extraction config
// or the owning source is gone.
const (
	DefaultItemsPath     = "items"
	DefaultContentPath   = "content"
	DefaultLanguagePath  = "language"
	DefaultSourceURLPath = "url"
)

// Extraction describes how to fetch and flatten a source's payloads: the URL
// template with {{lang}}/{{limit}}/{{cursor}} placeholders, the path to the
// item array in the response, and the field-mapping paths within each item.
type Extraction struct {
	URLTemplate   string `json:"urlTemplate,omitempty" yaml:"url_template,omitempty"`
	ItemsPath     string `json:"itemsPath,omitempty" yaml:"items_path,omitempty"`
	ContentPath   string `json:"contentPath,omitempty" yaml:"content_path,omitempty"`
	TitlePath     string `json:"titlePath,omitempty" yaml:"title_path,omitempty"`
	LanguagePath  string `json:"languagePath,omitempty" yaml:"language_path,omitempty"`
	SourceURLPath string `json:"sourceUrlPath,omitempty" yaml:"source_url_path,omitempty"`
}

// WithDefaults fills unset mapping paths with the default literals.
func (e Extraction) WithDefaults() Extraction {
	if strings.TrimSpace(e.ItemsPath) == "" {
		e.ItemsPath = DefaultItemsPath
	}
	if strings.TrimSpace(e.ContentPath) == "" {
		e.ContentPath = DefaultContentPath
	}
	if strings.TrimSpace(e.LanguagePath) == "" {
		e.LanguagePath = DefaultLanguagePath
	}
	if strings.TrimSpace(e.SourceURLPath) == "" {
		e.SourceURLPath = DefaultSourceURLPath
	}
	return e
}

// DefaultExtraction returns the mapping used when no source config exists.
func DefaultExtraction() Extraction {
	return Extraction{}.WithDefaults()
}

// ParseExtraction decodes a stored extraction document. An empty document
// yields the zero Extraction.
func ParseExtraction(raw string) (Extraction, error) {
	var extraction Extraction
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return extraction, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &extraction); err != nil {
		return Extraction{}, fmt.Errorf("parse extraction config: %w", err)
	}
	return extraction, nil
}

// ExtractionFor resolves the extraction config for a source, falling back to
// defaults when the source is nil or carries no usable config.
func ExtractionFor(source *store.Source) Extraction {
	if source == nil {
		return DefaultExtraction()
	}
	extraction, err := ParseExtraction(source.ExtractionJSON)
	if err != nil {
		return DefaultExtraction()
	}
	return extraction.WithDefaults()
}

// Encode serializes an extraction config for storage.
func (e Extraction) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode extraction config: %w", err)
	}
	return string(data), nil
}

// NewUserOnline builds a user-defined remote source with a generated ID.
func NewUserOnline(name, urlTemplate string, languages []string, extraction Extraction) (*store.Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("source name is empty")
	}
	if strings.TrimSpace(urlTemplate) == "" {
		return nil, errors.New("source url template is empty")
	}
	extraction.URLTemplate = strings.TrimSpace(urlTemplate)
	encoded, err := extraction.WithDefaults().Encode()
	if err != nil {
		return nil, err
	}
	return &store.Source{
		ID:                 "user-online-" + uuid.NewString(),
		Kind:               store.KindUserOnline,
		Name:               name,
		Enabled:            true,
		SupportedLanguages: normalizeLanguages(languages),
		ExtractionJSON:     encoded,
	}, nil
}

// NewUserOffline builds a source record that owns pasted offline imports.
func NewUserOffline(name string) (*store.Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("source name is empty")
	}
	return &store.Source{
		ID:      "user-offline-" + uuid.NewString(),
		Kind:    store.KindUserOffline,
		Name:    name,
		Enabled: true,
	}, nil
}

func normalizeLanguages(languages []string) []string {
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		if strings.TrimSpace(lang) == "" {
			continue
		}
		tag := language.NormalizeTag(lang)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}

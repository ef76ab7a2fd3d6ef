// Package importer turns user-pasted offline text into raw queue items. Four
// formats are supported: plain lines, JSON documents, CSV with a header row,
// and tag-stripped HTML.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"jokebox/internal/language"
	"jokebox/internal/logging"
	"jokebox/internal/services"
	"jokebox/internal/store"
)

// Format identifies how pasted text should be parsed.
type Format string

const (
	FormatTxt  Format = "txt"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat converts a string into a known Format.
func ParseFormat(value string) (Format, bool) {
	normalized := Format(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case FormatTxt, FormatJSON, FormatCSV, FormatHTML:
		return normalized, true
	default:
		return "", false
	}
}

// minHTMLLineRunes filters markup fragments left over after tag stripping.
const minHTMLLineRunes = 6

// Importer parses offline text and enqueues the extracted lines.
type Importer struct {
	store  *store.Store
	logger *slog.Logger
}

// New constructs an Importer.
func New(st *store.Store, logger *slog.Logger) *Importer {
	return &Importer{
		store:  st,
		logger: logging.NewComponentLogger(logger, "importer"),
	}
}

// ImportText parses text in the given format and enqueues every extracted
// entry as a pending raw item owned by sourceID. Returns the number enqueued.
func (i *Importer) ImportText(ctx context.Context, sourceID, text, lang string, format Format) (int, error) {
	if strings.TrimSpace(sourceID) == "" {
		return 0, services.Wrap(services.ErrValidation, "import", "parse", "source id is empty", nil)
	}

	var (
		lines []string
		err   error
	)
	switch format {
	case FormatTxt:
		lines = parseTxt(text)
	case FormatJSON:
		lines, err = parseJSON(text)
	case FormatCSV:
		lines, err = parseCSV(text)
	case FormatHTML:
		lines = parseHTML(text)
	default:
		return 0, services.Wrap(services.ErrValidation, "import", "parse", "unsupported format "+string(format), nil)
	}
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}

	hint := ""
	if strings.TrimSpace(lang) != "" {
		hint = language.NormalizeTag(lang)
	}

	items := make([]store.NewRawItem, 0, len(lines))
	for _, line := range lines {
		payload, marshalErr := json.Marshal(map[string]string{"content": line})
		if marshalErr != nil {
			return 0, services.Wrap(services.ErrValidation, "import", "encode", "marshal payload", marshalErr)
		}
		items = append(items, store.NewRawItem{
			OwnerSourceID:   sourceID,
			OwnerSourceKind: store.KindUserOffline,
			LanguageHint:    hint,
			Payload:         string(payload),
		})
	}

	count, err := i.store.InsertRawItems(ctx, items)
	if err != nil {
		return 0, err
	}
	log := logging.WithContext(services.WithSourceID(ctx, sourceID), i.logger)
	log.Info("imported items", logging.Int64("count", count), logging.String("format", string(format)))
	return int(count), nil
}

func parseTxt(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// parseJSON accepts a bare array of strings or objects with a content field,
// an object with an items array of the same, or a single content object.
func parseJSON(text string) ([]string, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, services.Wrap(services.ErrValidation, "import", "parse", "invalid json", err)
	}

	switch v := value.(type) {
	case []any:
		return jsonEntries(v), nil
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return jsonEntries(items), nil
		}
		if content := stringField(v, "content"); content != "" {
			return []string{content}, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func jsonEntries(values []any) []string {
	var lines []string
	for _, value := range values {
		switch entry := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(entry); trimmed != "" {
				lines = append(lines, trimmed)
			}
		case map[string]any:
			if content := stringField(entry, "content"); content != "" {
				lines = append(lines, content)
			}
		}
	}
	return lines
}

func stringField(obj map[string]any, key string) string {
	if value, ok := obj[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// parseCSV discards the header row and takes the first field of each
// remaining record.
func parseCSV(text string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		lines []string
		first = true
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "import", "parse", "invalid csv", err)
		}
		if first {
			first = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		if trimmed := strings.TrimSpace(record[0]); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines, nil
}

// parseHTML strips tags and keeps text lines long enough to plausibly be
// content rather than leftover markup.
func parseHTML(text string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	var builder strings.Builder
	skipDepth := 0

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}
		switch tokenType {
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isNonContentTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isNonContentTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				builder.Write(tokenizer.Text())
				builder.WriteByte('\n')
			}
		}
	}

	var lines []string
	for _, line := range strings.Split(builder.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if utf8.RuneCountInString(trimmed) >= minHTMLLineRunes {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func isNonContentTag(name string) bool {
	switch name {
	case "script", "style", "head":
		return true
	default:
		return false
	}
}

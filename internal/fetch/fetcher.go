// Package fetch pulls candidate items from configured sources into the raw
// queue. Each source negotiates a request language, renders its URL template,
// and enqueues the extracted items; per-source failures are logged and never
// abort the remaining sources.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jokebox/internal/config"
	"jokebox/internal/jsontree"
	"jokebox/internal/language"
	"jokebox/internal/logging"
	"jokebox/internal/services"
	"jokebox/internal/sources"
	"jokebox/internal/store"
)

const localScheme = "local://cn-jokes/"

// maxResponseBytes bounds how much of an HTTP response body is read.
const maxResponseBytes = 4 << 20

// Fetcher pulls items from enabled fetchable sources into the raw queue.
type Fetcher struct {
	cfg    *config.Config
	store  *store.Store
	client *http.Client
	logger *slog.Logger
}

// New constructs a Fetcher with a timeout-bounded HTTP client.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Fetcher {
	timeout := time.Duration(cfg.Fetch.RequestTimeout) * time.Second
	return &Fetcher{
		cfg:    cfg,
		store:  st,
		client: &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(logger, "fetcher"),
	}
}

// FetchOnce pulls up to limit items from every enabled fetchable source and
// enqueues them as pending raw items. Returns the total enqueued. Per-source
// failures are logged and skipped; only configuration-level problems fail the
// whole operation.
func (f *Fetcher) FetchOnce(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = f.cfg.Fetch.DefaultLimit
	}
	current := strings.TrimSpace(f.cfg.Content.Language)
	if current == "" {
		return 0, services.Wrap(services.ErrConfiguration, "fetch", "language", "content language is not configured", nil)
	}

	fetchable, err := f.store.ListFetchable(ctx)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "fetch", "list sources", "cannot load source configs", err)
	}

	total := 0
	for _, source := range fetchable {
		sourceCtx := services.WithSourceID(ctx, source.ID)
		log := logging.WithContext(sourceCtx, f.logger)

		lang, ok := language.Negotiate(current, source.SupportedLanguages)
		if !ok {
			log.Debug("skipping source, no language match", logging.String("language", current))
			continue
		}

		items, err := f.pull(sourceCtx, source, lang, limit)
		if err != nil {
			log.Warn("source fetch failed", logging.Error(err))
			continue
		}
		if len(items) == 0 {
			log.Warn("source yielded no items")
			continue
		}

		count, err := f.store.InsertRawItems(sourceCtx, items)
		if err != nil {
			log.Warn("enqueue failed", logging.Error(err))
			continue
		}
		total += int(count)
		log.Info("fetched items", logging.Int64("count", count), logging.String("language", lang))
	}

	if err := f.store.SetLastFetchAt(ctx, time.Now()); err != nil {
		f.logger.Warn("record last fetch time", logging.Error(err))
	}
	return total, nil
}

// Probe validates a source definition by fetching once and checking the
// item and content paths yield usable text. Nothing is enqueued.
func (f *Fetcher) Probe(ctx context.Context, source *store.Source, limit int) error {
	if source == nil {
		return services.Wrap(services.ErrValidation, "fetch", "probe", "source is nil", nil)
	}
	if limit <= 0 {
		limit = 1
	}
	lang, ok := language.Negotiate(f.cfg.Content.Language, source.SupportedLanguages)
	if !ok {
		return services.Wrap(services.ErrValidation, "fetch", "probe", "source supports none of the configured languages", nil)
	}

	items, err := f.pull(ctx, source, lang, limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return services.Wrap(services.ErrValidation, "fetch", "probe", "item path matched nothing", nil)
	}

	extraction := sources.ExtractionFor(source)
	for _, item := range items {
		tree, err := jsontree.Decode([]byte(item.Payload))
		if err != nil {
			continue
		}
		if content, ok := jsontree.String(tree, extraction.ContentPath); ok && strings.TrimSpace(content) != "" {
			return nil
		}
	}
	return services.Wrap(services.ErrValidation, "fetch", "probe", "content path yielded no text", nil)
}

// pull retrieves and flattens one source's items into raw queue entries.
func (f *Fetcher) pull(ctx context.Context, source *store.Source, lang string, limit int) ([]store.NewRawItem, error) {
	extraction := sources.ExtractionFor(source)
	template := strings.TrimSpace(extraction.URLTemplate)
	if template == "" {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", source.ID, "source has no url template", nil)
	}
	url := renderTemplate(template, lang, limit, "")

	var (
		root jsontree.Node
		err  error
	)
	if strings.HasPrefix(url, localScheme) {
		root, err = f.localCatalog(url, lang, limit)
	} else {
		root, err = f.fetchHTTP(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	objects := jsontree.Items(root, extraction.ItemsPath)
	items := make([]store.NewRawItem, 0, len(objects))
	for _, obj := range objects {
		payload, err := jsontree.Encode(obj)
		if err != nil {
			continue
		}
		items = append(items, store.NewRawItem{
			OwnerSourceID:   source.ID,
			OwnerSourceKind: source.Kind,
			LanguageHint:    lang,
			Payload:         string(payload),
		})
	}
	return items, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) (jsontree.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "fetch", "request", "build request", err)
	}
	req.Header.Set("User-Agent", f.cfg.Fetch.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "fetch", "request", "http get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, services.Wrap(services.ErrUnavailable, "fetch", "request", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "fetch", "request", "read body", err)
	}
	return decodeBody(body), nil
}

// decodeBody turns a response body into an extraction tree: a bare array is
// wrapped under "items", and a non-JSON body becomes a single content item.
func decodeBody(body []byte) jsontree.Node {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return jsontree.FromValue(map[string]any{
			"items": []any{map[string]any{"content": string(body)}},
		})
	}
	if arr, ok := value.([]any); ok {
		value = map[string]any{"items": arr}
	}
	return jsontree.FromValue(value)
}

func renderTemplate(template, lang string, limit int, cursor string) string {
	return strings.NewReplacer(
		"{{lang}}", lang,
		"{{limit}}", strconv.Itoa(limit),
		"{{cursor}}", cursor,
	).Replace(template)
}

var errUnknownCatalog = errors.New("unknown local catalog")

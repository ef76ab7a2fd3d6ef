// Package process drains the raw queue: it normalizes each item, applies the
// content policy, performs exact and near-duplicate detection, and commits
// accepted items to the canonical store. It is the sole consumer of the raw
// queue and the sole producer into the canonical store.
package process

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jokebox/internal/config"
	"jokebox/internal/jsontree"
	"jokebox/internal/language"
	"jokebox/internal/logging"
	"jokebox/internal/policy"
	"jokebox/internal/services"
	"jokebox/internal/sources"
	"jokebox/internal/store"
	"jokebox/internal/textutil"
)

// Processor runs batches of the dedup/policy state machine.
type Processor struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// New constructs a Processor.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		store:  st,
		logger: logging.NewComponentLogger(logger, "processor"),
	}
}

// outcome is the terminal decision for one raw item.
type outcome struct {
	accepted   bool
	dropReason string
}

// ProcessBatch pulls up to the configured batch size of pending items, oldest
// first, and resolves each to done, dropped, or a retry. Returns the number
// of newly accepted canonical items. Re-running over a drained queue is a
// no-op returning 0.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	tier := policy.TierFromValue(p.cfg.Content.AgeTier)
	defaultLanguage := strings.TrimSpace(p.cfg.Content.Language)
	if defaultLanguage == "" {
		return 0, services.Wrap(services.ErrConfiguration, "process", "language", "content language is not configured", nil)
	}

	// Recovery sweep: anything still marked processing was abandoned by a
	// crashed or interrupted batch.
	if reset, err := p.store.ResetStuckProcessing(ctx); err != nil {
		return 0, services.Wrap(services.ErrUnavailable, "process", "recovery sweep", "reset stale items", err)
	} else if reset > 0 {
		p.logger.Warn("reset stale processing items", logging.Int64("count", reset))
	}

	items, err := p.store.ListPending(ctx, p.cfg.Process.BatchSize)
	if err != nil {
		return 0, services.Wrap(services.ErrUnavailable, "process", "list pending", "load batch", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	accepted := 0
	for _, item := range items {
		itemCtx := services.WithItemID(services.WithSourceID(ctx, item.OwnerSourceID), item.ID)
		log := logging.WithContext(itemCtx, p.logger)

		claimed, err := p.store.MarkProcessing(itemCtx, item.ID)
		if err != nil {
			return accepted, services.Wrap(services.ErrUnavailable, "process", "claim", "mark processing", err)
		}
		if !claimed {
			continue
		}

		result, evalErr := p.evaluate(itemCtx, item, tier, defaultLanguage)
		if evalErr != nil {
			status, failErr := p.store.RecordFailure(itemCtx, item.ID, evalErr.Error(), p.cfg.Process.FailCap)
			if failErr != nil {
				return accepted, services.Wrap(services.ErrUnavailable, "process", "record failure", "persist item failure", failErr)
			}
			if status == store.StatusFailed {
				log.Warn("item quarantined", logging.Error(evalErr))
			} else {
				log.Debug("item failed, will retry", logging.Error(evalErr))
			}
			continue
		}

		if result.accepted {
			if err := p.store.MarkDone(itemCtx, item.ID); err != nil {
				return accepted, services.Wrap(services.ErrUnavailable, "process", "resolve", "mark done", err)
			}
			accepted++
			log.Debug("item accepted")
		} else {
			if err := p.store.MarkDropped(itemCtx, item.ID, result.dropReason); err != nil {
				return accepted, services.Wrap(services.ErrUnavailable, "process", "resolve", "mark dropped", err)
			}
			log.Debug("item dropped", logging.String("reason", result.dropReason))
		}
	}

	p.logger.Info("batch processed",
		logging.Int("batch", len(items)),
		logging.Int("accepted", accepted),
	)
	return accepted, nil
}

// evaluate runs one claimed item through extraction, normalization, policy,
// and dedup. A returned error means the item should be retried or
// quarantined; a nil error always carries a terminal outcome.
func (p *Processor) evaluate(ctx context.Context, item *store.RawItem, tier policy.AgeTier, defaultLanguage string) (outcome, error) {
	source, err := p.store.GetSource(ctx, item.OwnerSourceID)
	if err != nil {
		return outcome{}, fmt.Errorf("resolve source: %w", err)
	}
	extraction := sources.ExtractionFor(source)

	tree, err := jsontree.Decode([]byte(item.Payload))
	if err != nil {
		return outcome{}, fmt.Errorf("decode payload: %w", err)
	}

	content, ok := jsontree.String(tree, extraction.ContentPath)
	if !ok || strings.TrimSpace(content) == "" {
		return outcome{dropReason: store.DropReasonPolicy}, nil
	}

	normalized := textutil.Normalize(content)
	if normalized == "" {
		return outcome{dropReason: store.DropReasonPolicy}, nil
	}
	if !policy.Allow(normalized, tier) {
		return outcome{dropReason: store.DropReasonPolicy}, nil
	}

	hash := textutil.ContentHash(normalized, p.cfg.Process.HashLength)
	exists, err := p.store.JokeExists(ctx, hash)
	if err != nil {
		return outcome{}, fmt.Errorf("exact dedup lookup: %w", err)
	}
	if exists {
		return outcome{dropReason: store.DropReasonDuplicate}, nil
	}

	lang, ok := jsontree.String(tree, extraction.LanguagePath)
	if !ok || strings.TrimSpace(lang) == "" {
		lang = item.LanguageHint
	}
	if strings.TrimSpace(lang) == "" {
		lang = defaultLanguage
	}
	lang = language.NormalizeTag(lang)

	fingerprint := textutil.SimHash(normalized)
	bucket := textutil.BucketKey(fingerprint, textutil.DefaultBucketPrefix)

	mates, err := p.store.ListBucket(ctx, int(tier), lang, bucket)
	if err != nil {
		return outcome{}, fmt.Errorf("near dedup lookup: %w", err)
	}
	for _, mate := range mates {
		distance, err := textutil.HammingDistance(mate.Fingerprint, fingerprint)
		if err != nil {
			continue
		}
		if distance <= p.cfg.Process.NearDupThreshold {
			return outcome{dropReason: store.DropReasonDuplicate}, nil
		}
	}

	sourceURL, _ := jsontree.String(tree, extraction.SourceURLPath)

	inserted, err := p.store.InsertJoke(ctx, &store.Joke{
		ID:                hash,
		AgeTier:           int(tier),
		Language:          lang,
		Content:           content,
		ContentNormalized: normalized,
		Fingerprint:       fingerprint,
		Bucket:            bucket,
		OwnerSourceID:     item.OwnerSourceID,
		OwnerSourceKind:   item.OwnerSourceKind,
		SourceURL:         sourceURL,
	})
	if err != nil {
		return outcome{}, fmt.Errorf("insert joke: %w", err)
	}
	if !inserted {
		// Lost a check-then-insert race; the content is already canonical.
		return outcome{dropReason: store.DropReasonDuplicate}, nil
	}
	return outcome{accepted: true}, nil
}

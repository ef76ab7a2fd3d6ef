package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a raw queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusDropped    Status = "dropped"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusDone,
	StatusDropped,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDone, StatusDropped, StatusFailed:
		return true
	default:
		return false
	}
}

// Kind classifies where a source's content comes from.
type Kind string

const (
	KindBuiltin     Kind = "builtin"
	KindUserOnline  Kind = "user_online"
	KindUserOffline Kind = "user_offline"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case KindBuiltin, KindUserOnline, KindUserOffline:
		return normalized, true
	default:
		return "", false
	}
}

// Fetchable reports whether the fetcher should pull from sources of this kind.
// Offline sources only receive items through the importer.
func (k Kind) Fetchable() bool {
	return k == KindBuiltin || k == KindUserOnline
}

// Drop reasons recorded on dropped raw items.
const (
	DropReasonPolicy    = "policy"
	DropReasonDuplicate = "duplicate"
)

// RawItem is an unprocessed candidate awaiting dedup and policy evaluation.
type RawItem struct {
	ID              int64
	OwnerSourceID   string
	OwnerSourceKind Kind
	LanguageHint    string
	Payload         string
	Status          Status
	FailCount       int
	LastError       string
	DropReason      string
	FetchedAt       time.Time
	UpdatedAt       time.Time
}

// NewRawItem carries the caller-supplied fields for enqueueing a raw item.
type NewRawItem struct {
	OwnerSourceID   string
	OwnerSourceKind Kind
	LanguageHint    string
	Payload         string
}

// Joke is an accepted, deduplicated, policy-cleared content record. Its ID is
// the hash of the normalized content, which makes inserts naturally idempotent.
type Joke struct {
	ID                string
	AgeTier           int
	Language          string
	Content           string
	ContentNormalized string
	Fingerprint       string
	Bucket            string
	OwnerSourceID     string
	OwnerSourceKind   Kind
	SourceURL         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Source describes a configured content source. ExtractionJSON holds the
// request template and field-mapping paths as an opaque document owned by the
// sources package.
type Source struct {
	ID                 string
	Kind               Kind
	Name               string
	Enabled            bool
	SupportedLanguages []string
	ExtractionJSON     string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

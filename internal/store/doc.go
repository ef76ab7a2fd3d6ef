// Package store persists the ingestion pipeline state in SQLite: the raw
// item queue and its retry state machine, the canonical joke records keyed by
// content hash, source configurations, the played/favorites ledgers, and a
// small meta key/value table.
//
// All writes go through a busy-retry wrapper so concurrent CLI invocations
// degrade to short waits instead of hard SQLITE_BUSY failures. Schema changes
// ship as embedded migrations tracked in a schema_migrations table.
package store

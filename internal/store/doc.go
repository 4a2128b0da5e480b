// Package store implements the observation store on PostgreSQL.
//
// Table:
//   - blocks: append-only, one row per successful ingestion cycle.
//     id (BIGSERIAL) orders rows for "most recent" queries; observed_at holds
//     the time the observation was finalized.
//
// The store never updates or deletes rows. Append failures are returned to the
// caller as *StoreError; the store does not retry or reconnect on its own.
package store

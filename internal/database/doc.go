// Package database provides connection pool management for the PostgreSQL observation store.
//
// The ingester holds one pgxpool.Pool for its lifetime. The pool is shared by the
// ingestion loop (appends) and the history handler (reads); each caller acquires its
// own connection, so no additional locking is needed around the handle.
//
// Startup uses ConnectWithRetry, which blocks until the database accepts a connection.
package database

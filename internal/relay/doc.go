// Package relay mirrors live observations into Redis.
//
// Each published message is sent on a pub/sub channel and stored under a
// "latest" key with a TTL, so consumers outside this process can follow the
// feed or read the most recent observation without touching Postgres.
//
// The relay is optional. Failures are returned to the caller, which logs
// them; they never affect persistence or in-process broadcast.
package relay

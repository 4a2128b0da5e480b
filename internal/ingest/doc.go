// Package ingest implements the ingestion loop.
//
// Every cycle the loop:
//   - Fetches network statistics, then the spot price (either failure skips the cycle)
//   - Stamps the merged observation with the current time
//   - Appends it to the store (failure skips the publish)
//   - Publishes the serialized observation to the broadcast hub
//
// Cycles run back to back with a fixed delay between the end of one cycle and the
// start of the next. Missed cycles are not caught up. No failure stops the loop.
package ingest

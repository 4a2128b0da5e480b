// Package model defines the data types that flow through the ingestion pipeline.
//
// Conventions:
//   - Fees: satoshis per kilobyte, as reported by the network source
//   - Prices: floating-point units of the quote currency (USD by default)
//   - Timestamps: time.Time in UTC, assigned when an observation is finalized
package model

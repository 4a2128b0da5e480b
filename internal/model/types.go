package model

import (
	"encoding/json"
	"time"
)

// Observation is one merged sample of network statistics and spot price.
// Created once per ingestion cycle and never modified afterwards.
type Observation struct {
	ID             int64     // Store identity (0 until appended)
	PeerCount      int       // Network peer count at fetch time
	MediumFeePerKb float64   // Median fee estimate (medium_fee_per_kb upstream)
	Price          float64   // Spot price at fetch time
	ObservedAt     time.Time // Set when the observation is finalized
}

// NetworkStats is the result of a single network statistics fetch.
type NetworkStats struct {
	PeerCount      int
	MediumFeePerKb float64
}

// LiveMessage is the JSON pushed to live-update subscribers.
type LiveMessage struct {
	PeerCount      int     `json:"peer_count"`
	MediumFeePerKb float64 `json:"medium_fee_per_kb"`
	Price          float64 `json:"price"`
}

// HistoryRow is one element of the history query response.
type HistoryRow struct {
	PeerCount      int     `json:"peer_count"`
	MediumFeePerKb float64 `json:"medium_fee_per_kb"`
	Price          float64 `json:"price"`
	Time           string  `json:"time"` // RFC 3339
}

// NewObservation merges fetched values into an Observation stamped at now.
func NewObservation(stats NetworkStats, price float64, now time.Time) Observation {
	return Observation{
		PeerCount:      stats.PeerCount,
		MediumFeePerKb: stats.MediumFeePerKb,
		Price:          price,
		ObservedAt:     now.UTC(),
	}
}

// LiveMessage converts the observation to its live-update form.
func (o Observation) LiveMessage() LiveMessage {
	return LiveMessage{
		PeerCount:      o.PeerCount,
		MediumFeePerKb: o.MediumFeePerKb,
		Price:          o.Price,
	}
}

// Encode serializes the live-update form of the observation.
func (o Observation) Encode() ([]byte, error) {
	return json.Marshal(o.LiveMessage())
}

// HistoryRow converts the observation to its history query form.
func (o Observation) HistoryRow() HistoryRow {
	return HistoryRow{
		PeerCount:      o.PeerCount,
		MediumFeePerKb: o.MediumFeePerKb,
		Price:          o.Price,
		Time:           o.ObservedAt.UTC().Format(time.RFC3339),
	}
}

package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/rickgao/bitcoin-explorer/internal/model"
)

// chainResponse is the subset of the Blockcypher chain endpoint we consume.
// Pointer fields distinguish an absent field from a zero value.
type chainResponse struct {
	PeerCount      *int     `json:"peer_count"`
	MediumFeePerKb *float64 `json:"medium_fee_per_kb"`
}

// FetchNetworkStats returns the current peer count and fee estimate.
func (c *Client) FetchNetworkStats(ctx context.Context) (model.NetworkStats, error) {
	var resp chainResponse
	if err := c.get(ctx, SourceNetwork, c.networkURL, nil, &resp); err != nil {
		return model.NetworkStats{}, err
	}

	if resp.PeerCount == nil {
		return model.NetworkStats{}, &FetchError{Source: SourceNetwork, Err: errors.New("peer_count field missing")}
	}
	if resp.MediumFeePerKb == nil {
		return model.NetworkStats{}, &FetchError{Source: SourceNetwork, Err: errors.New("medium_fee_per_kb field missing")}
	}
	if *resp.PeerCount < 0 {
		return model.NetworkStats{}, &FetchError{Source: SourceNetwork, Err: fmt.Errorf("peer_count is negative: %d", *resp.PeerCount)}
	}
	if *resp.MediumFeePerKb < 0 {
		return model.NetworkStats{}, &FetchError{Source: SourceNetwork, Err: fmt.Errorf("medium_fee_per_kb is negative: %v", *resp.MediumFeePerKb)}
	}

	return model.NetworkStats{
		PeerCount:      *resp.PeerCount,
		MediumFeePerKb: *resp.MediumFeePerKb,
	}, nil
}

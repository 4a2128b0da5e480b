// Package api provides the clients for the external data sources polled by the ingester.
//
// Sources:
//   - Network statistics: Blockcypher chain endpoint (https://api.blockcypher.com/v1/btc/main)
//     yields peer_count and medium_fee_per_kb.
//   - Spot price: Coingecko simple price endpoint
//     (https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd).
//
// Each fetch is a single request/response bounded by the client timeout. Fetchers never
// retry; a failed fetch is reported as a *FetchError and the caller decides what to do.
package api

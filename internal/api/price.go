package api

import (
	"context"
	"fmt"
	"net/url"
)

// FetchPrice returns the spot price of the configured coin in the configured currency.
// The response shape is {"<coin>": {"<currency>": <price>}}.
func (c *Client) FetchPrice(ctx context.Context) (float64, error) {
	query := url.Values{}
	query.Set("ids", c.coin)
	query.Set("vs_currencies", c.currency)

	var resp map[string]map[string]*float64
	if err := c.get(ctx, SourcePrice, c.priceURL, query, &resp); err != nil {
		return 0, err
	}

	quotes, ok := resp[c.coin]
	if !ok {
		return 0, &FetchError{Source: SourcePrice, Err: fmt.Errorf("%s field missing", c.coin)}
	}
	price, ok := quotes[c.currency]
	if !ok || price == nil {
		return 0, &FetchError{Source: SourcePrice, Err: fmt.Errorf("%s.%s field missing", c.coin, c.currency)}
	}
	if *price < 0 {
		return 0, &FetchError{Source: SourcePrice, Err: fmt.Errorf("price is negative: %v", *price)}
	}

	return *price, nil
}

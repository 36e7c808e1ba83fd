package sidechannel

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetOrderbook fetches the current orderbook for a market by ticker. Used
// by the Snapshot Poller to capture periodic REST-sourced snapshots
// alongside the streamed deltas.
func (c *Client) GetOrderbook(ctx context.Context, ticker string, depth int) (*OrderbookResponse, error) {
	query := url.Values{}
	if depth > 0 {
		query.Set("depth", strconv.Itoa(depth))
	}

	var resp OrderbookResponse
	if err := c.get(ctx, "/markets/"+ticker+"/orderbook", query, &resp); err != nil {
		return nil, fmt.Errorf("get orderbook %s: %w", ticker, err)
	}
	return &resp, nil
}

// GetMarket fetches a single market by ticker. Used by the Enricher when a
// market_lifecycle frame reports a determined/settled event.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*Market, error) {
	var resp SingleMarketResponse
	if err := c.get(ctx, "/markets/"+ticker, nil, &resp); err != nil {
		return nil, fmt.Errorf("get market %s: %w", ticker, err)
	}
	return &resp.Market, nil
}

// GetAllMarkets fetches every market by paginating through results. Used
// once at startup to reseed the Markets table and Discovery's pending set.
func (c *Client) GetAllMarkets(ctx context.Context) ([]Market, error) {
	var all []Market
	cursor := ""

	for {
		query := url.Values{"limit": {strconv.Itoa(1000)}}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp MarketsResponse
		if err := c.get(ctx, "/markets", query, &resp); err != nil {
			return nil, fmt.Errorf("get markets: %w", err)
		}

		all = append(all, resp.Markets...)
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	return all, nil
}

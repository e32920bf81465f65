package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetTopChannels fetches the channels with the most chat messages,
// most active first.
func (c *Client) GetTopChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	if err := c.get(ctx, "/chatstats", nil, &channels); err != nil {
		return nil, fmt.Errorf("get top channels: %w", err)
	}

	return channels, nil
}

// GetChannelStats fetches the chat stats for a single channel. Pass
// "global" for the site-wide aggregate.
func (c *Client) GetChannelStats(ctx context.Context, channel string) (*ChatStats, error) {
	var stats ChatStats
	if err := c.get(ctx, "/chatstats/"+url.PathEscape(channel)+"/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("get chat stats %s: %w", channel, err)
	}

	return &stats, nil
}

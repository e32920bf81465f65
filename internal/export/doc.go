// Package export publishes chat stats as Prometheus gauges.
//
// Gauges exported (selected via Config):
//   - sestats_total_messages: total messages per channel
//   - sestats_chatter: top chatters
//   - sestats_hashtag: top hashtags
//   - sestats_command: top commands
//   - sestats_emote: top emotes by provider (bttv, ffz, twitch)
//   - sestats_channel: top channels by message count
//
// Live feed counters are always registered:
//   - sestats_feed_changes_total: stat changes applied from the feed
//   - sestats_feed_decode_errors_total: feed messages that failed to decode
package export

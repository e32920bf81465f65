// Package recorder persists feed stat changes to PostgreSQL.
//
// Rows land in the stat_changes table (observed_at, message_id, channel,
// kind, key, emote_id, provider, amount), keyed by message_id plus the
// change identity so redelivered feed messages insert nothing.
//
// Inserts are append-only and batched: rows accumulate in memory and
// flush on batch size or a timer, whichever comes first.
package recorder

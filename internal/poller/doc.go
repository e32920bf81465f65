// Package poller implements the chat stats poll loop.
//
// The poller:
//   - Fetches the top channel list and per-channel stats every 10 seconds
//   - Polls each tracked channel concurrently with a bounded semaphore
//   - Feeds the top channel list back into the tracked set (TrackTop)
//   - Hands results to a StatsHandler; failed fetches are logged and
//     counted, never fatal
package poller

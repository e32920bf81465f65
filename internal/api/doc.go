// Package api provides the client for the StreamElements chat-stats
// REST API.
//
// Base URL: https://api.streamelements.com/kappa/v2
//
// Endpoints:
//   - GET /chatstats                       top channels by message count
//   - GET /chatstats/<channel>/stats       full stats for one channel
//
// The channel "global" returns the site-wide totals. No authentication
// is required.
package api

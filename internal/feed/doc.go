// Package feed implements the websocket bridge to the StreamElements
// twitch-stats feed.
//
// A Session owns one connection:
//   - a pair of bounded FIFO queues decouples callers from socket I/O
//     (32 outgoing commands, 1024 incoming frames)
//   - background pump goroutines own every read and write; a full
//     incoming queue pauses reading instead of dropping frames
//   - Subscribe and Receive never touch the socket; messages are decoded
//     in Receive, so one malformed message never kills the session
//   - Join reports how the pump ended once the connection winds down
//
// There is no reconnection: when a session terminates, callers decide
// whether to dial a new one.
package feed

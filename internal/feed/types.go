package feed

import (
	"errors"
	"log/slog"
	"time"
)

// Errors
var (
	// ErrDisconnected reports that the peer side of a session queue is
	// gone: the pump has terminated (Subscribe/Receive) or the caller has
	// closed the session. Match with errors.Is.
	ErrDisconnected = errors.New("session disconnected")
)

// DefaultURL is the public StreamElements twitch-stats feed endpoint.
const DefaultURL = "wss://twitchstats-ws.streamelements.com"

// frame is one raw websocket frame queued between the pump and the
// caller. Conversion and decoding happen on the Receive side.
type frame struct {
	messageType int
	data        []byte
}

// Config configures a feed session.
type Config struct {
	URL              string        // WebSocket URL (default DefaultURL)
	HandshakeTimeout time.Duration // Dial handshake deadline
	OutgoingBuffer   int           // Commands awaiting write (default 32)
	IncomingBuffer   int           // Frames awaiting Receive (default 1024)
	Logger           *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:              DefaultURL,
		HandshakeTimeout: 10 * time.Second,
		OutgoingBuffer:   32,
		IncomingBuffer:   1024,
	}
}

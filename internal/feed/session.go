package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Session is a live subscription to the stats feed. It is created
// running by Dial and stays usable until its pump terminates: after a
// local Close, a close handshake from the peer, or an I/O failure.
//
// Subscribe and Receive are safe for concurrent use. The pump's terminal
// state is reported by Join; in-flight calls see ErrDisconnected instead.
type Session struct {
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn
	out  *queue[frame] // commands awaiting write
	in   *queue[frame] // frames awaiting Receive

	done     chan struct{} // closed when the session starts terminating
	finished chan struct{} // closed when both pump loops have exited

	closeOnce sync.Once
	err       error // terminal pump result, written once inside closeOnce

	wg sync.WaitGroup
}

// Dial connects to the stats feed and starts the session's pump. Zero
// Config fields fall back to DefaultConfig values. On error nothing is
// left running.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.OutgoingBuffer <= 0 {
		cfg.OutgoingBuffer = def.OutgoingBuffer
	}
	if cfg.IncomingBuffer <= 0 {
		cfg.IncomingBuffer = def.IncomingBuffer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	s := &Session{
		cfg:      cfg,
		logger:   logger,
		conn:     conn,
		out:      newQueue[frame](cfg.OutgoingBuffer),
		in:       newQueue[frame](cfg.IncomingBuffer),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	go func() {
		s.wg.Wait()
		close(s.finished)
	}()

	logger.Debug("feed connected", "url", cfg.URL)

	return s, nil
}

// Subscribe enqueues a subscribe command for the given room (see Room
// for the room name format). It blocks while the outgoing queue is full
// and fails with ErrDisconnected once the session has terminated.
func (s *Session) Subscribe(room string) error {
	if err := s.out.Send(frame{websocket.TextMessage, EncodeSubscribe(room)}); err != nil {
		return fmt.Errorf("subscribe %s: %w", room, err)
	}
	return nil
}

// Receive blocks for the next feed message, decodes it and returns its
// stat changes. A non-text frame or a decode failure is local to the
// offending message: the error names the problem and later calls keep
// working. Once the pump has terminated and buffered messages are
// drained, Receive fails with ErrDisconnected.
func (s *Session) Receive() ([]StatChange, error) {
	env, err := s.ReceiveEnvelope()
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ReceiveEnvelope is Receive keeping the envelope metadata (message id,
// event, destination room).
func (s *Session) ReceiveEnvelope() (*Envelope, error) {
	f, err := s.in.Receive()
	if err != nil {
		return nil, err
	}
	if f.messageType != websocket.TextMessage {
		return nil, fmt.Errorf("non-text frame (type %d)", f.messageType)
	}
	env, err := DecodeEnvelope(f.data)
	if err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return env, nil
}

// Join waits for the pump to finish and reports its terminal state: nil
// after a clean shutdown (local Close or the peer's close handshake),
// the read/write failure otherwise. If ctx expires first, Join returns
// the context's error; the session keeps winding down in the background.
func (s *Session) Join(ctx context.Context) error {
	select {
	case <-s.finished:
		return s.err
	case <-ctx.Done():
		return fmt.Errorf("join session: %w", ctx.Err())
	}
}

// Close shuts the session down: best-effort close handshake, socket
// closed, both queues closed. Idempotent; a session that already failed
// keeps its failure as the Join result.
func (s *Session) Close() error {
	if !s.closing() {
		// Tell the server we are leaving before dropping the socket.
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
	}
	s.terminate(nil)
	return nil
}

// terminate records the pump's terminal state and tears the session
// down. The first caller wins; nil means a clean shutdown.
func (s *Session) terminate(err error) {
	s.closeOnce.Do(func() {
		s.err = err
		close(s.done)
		s.out.Close()
		s.in.Close()
		s.conn.Close()

		if err != nil {
			s.logger.Warn("feed session failed", "error", err)
		} else {
			s.logger.Debug("feed session closed")
		}
	})
}

// closing reports whether termination has started.
func (s *Session) closing() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// readLoop owns all socket reads. Each frame is pushed into the incoming
// queue as-is; when the queue is full the push blocks, which pauses
// reading until Receive catches up.
func (s *Session) readLoop() {
	defer s.wg.Done()

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closing() || isCleanClose(err) {
				s.terminate(nil)
			} else {
				s.terminate(fmt.Errorf("read message: %w", err))
			}
			return
		}

		if err := s.in.Send(frame{messageType, data}); err != nil {
			// Incoming queue closed: the session is shutting down.
			return
		}
	}
}

// writeLoop owns all socket writes, draining the outgoing queue one
// command at a time.
func (s *Session) writeLoop() {
	defer s.wg.Done()

	for {
		f, err := s.out.Receive()
		if err != nil {
			// Outgoing queue closed: the session is shutting down.
			return
		}

		if err := s.conn.WriteMessage(f.messageType, f.data); err != nil {
			if s.closing() {
				s.terminate(nil)
			} else {
				s.terminate(fmt.Errorf("write message: %w", err))
			}
			return
		}
	}
}

// isCleanClose reports whether a read error is the peer's side of a
// normal close handshake.
func isCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

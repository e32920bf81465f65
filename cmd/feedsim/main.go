// feedsim runs a local stand-in for the StreamElements stats feed. It
// accepts subscribe commands and publishes synthetic stat changes to
// subscribed rooms, so the exporter and streamwatch can be exercised
// without network access.
//
// Usage:
//
//	go run ./cmd/feedsim --address 127.0.0.1:9002
//	go run ./cmd/streamwatch --url ws://127.0.0.1:9002
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/twitchstats/sestats/internal/feed"
)

var chatters = []string{"fishpat", "line171", "samsone", "cosmos__", "nobaqui"}

var emotes = []struct {
	key      string
	id       string
	provider string
}{
	{"DuckerZ", "573d38b50ffbf6cc5cc38dc9", "bttv"},
	{"KEKW", "5ff647e635fd7d2fe19a5d42", "bttv"},
	{"monkaS", "56e9f494fff3cc5c35e5287e", "ffz"},
	{"LUL", "425618", "twitch"},
	{"Kappa", "25", "twitch"},
}

type client struct {
	conn  *websocket.Conn
	rooms map[string]struct{}
}

type simulator struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	totals  map[string]uint64 // running amount per room and key

	upgrader websocket.Upgrader
}

func newSimulator(logger *slog.Logger) *simulator {
	return &simulator{
		logger:  logger,
		clients: make(map[*client]struct{}),
		totals:  make(map[string]uint64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// handleWebSocket upgrades the connection and tracks subscribe commands
// until the client disconnects.
func (s *simulator) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, rooms: make(map[string]struct{})}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("client connected", "remote", conn.RemoteAddr())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var cmd struct {
			Command string `json:"command"`
			Data    struct {
				Room string `json:"room"`
			} `json:"data"`
		}
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Command != "subscribe" {
			s.logger.Warn("ignoring command", "payload", string(data))
			continue
		}

		s.mu.Lock()
		c.rooms[cmd.Data.Room] = struct{}{}
		s.mu.Unlock()

		s.logger.Info("subscribed", "remote", conn.RemoteAddr(), "room", cmd.Data.Room)
	}

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	conn.Close()

	s.logger.Info("client disconnected", "remote", conn.RemoteAddr())
}

// publish sends one synthetic message per subscribed room to every
// client. All socket writes happen here, on a single goroutine.
func (s *simulator) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		for room := range c.rooms {
			env := feed.Envelope{
				ID:          uuid.NewString(),
				Type:        "message",
				Destination: &feed.Destination{Type: "room", Value: room},
				Data:        s.makeChanges(room),
			}
			data, err := json.Marshal(&env)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("write failed", "remote", c.conn.RemoteAddr(), "error", err)
			}
		}
	}
}

// makeChanges produces one chatter and one emote change with running
// totals, the way the live feed reports them.
func (s *simulator) makeChanges(room string) []feed.StatChange {
	chatter := chatters[rand.IntN(len(chatters))]
	emote := emotes[rand.IntN(len(emotes))]

	chatterKey := room + "/" + chatter
	emoteKey := room + "/" + emote.key
	s.totals[chatterKey]++
	s.totals[emoteKey]++

	return []feed.StatChange{
		feed.ChatterChange{Key: chatter, Amount: s.totals[chatterKey]},
		feed.EmoteChange{Key: emote.key, ID: emote.id, Provider: emote.provider, Amount: s.totals[emoteKey]},
	}
}

func main() {
	address := flag.String("address", "127.0.0.1:9002", "listen address")
	interval := flag.Duration("interval", time.Second, "publish interval")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	sim := newSimulator(logger)

	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for range ticker.C {
			sim.publish()
		}
	}()

	http.HandleFunc("/", sim.handleWebSocket)

	logger.Info("feed simulator listening", "address", *address)
	if err := http.ListenAndServe(*address, nil); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

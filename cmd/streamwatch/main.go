// streamwatch connects to the StreamElements stats feed and streams
// parsed stat changes to console.
// Usage: go run ./cmd/streamwatch --channels global,forsen
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/twitchstats/sestats/internal/feed"
)

func main() {
	url := flag.String("url", feed.DefaultURL, "feed websocket url")
	channels := flag.String("channels", "global", "comma-separated channels to watch")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	cfg := feed.DefaultConfig()
	cfg.URL = *url
	cfg.Logger = logger

	session, err := feed.Dial(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	// Unblock Receive on shutdown
	go func() {
		<-ctx.Done()
		session.Close()
	}()

	for _, channel := range strings.Split(*channels, ",") {
		channel = strings.TrimSpace(channel)
		if channel == "" {
			continue
		}
		if err := session.Subscribe(feed.Room(channel)); err != nil {
			logger.Error("subscribe failed", "channel", channel, "error", err)
			os.Exit(1)
		}
		logger.Info("subscribed", "room", feed.Room(channel))
	}

	var messages, changes, dropped atomic.Int64

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("stats",
					"messages", messages.Load(),
					"changes", changes.Load(),
					"dropped", dropped.Load(),
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	for {
		env, err := session.ReceiveEnvelope()
		if err != nil {
			if errors.Is(err, feed.ErrDisconnected) {
				break
			}
			dropped.Add(1)
			logger.Warn("message dropped", "error", err)
			continue
		}

		messages.Add(1)
		changes.Add(int64(len(env.Data)))

		if *verbose {
			data, _ := json.MarshalIndent(env, "", "  ")
			fmt.Printf("[MESSAGE] %s\n", data)
			continue
		}

		channel, ok := feed.ParseRoom(env.Room())
		if !ok {
			channel = env.Room()
		}

		for _, change := range env.Data {
			switch c := change.(type) {
			case feed.ChatterChange:
				fmt.Printf("[CHATTER] channel=%s key=%s amount=%d\n",
					channel, c.Key, c.Amount)
			case feed.EmoteChange:
				fmt.Printf("[EMOTE] channel=%s provider=%s key=%s id=%s amount=%d\n",
					channel, c.Provider, c.Key, c.ID, c.Amount)
			}
		}
	}

	// Report why the pump stopped
	joinCtx, joinCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer joinCancel()
	if err := session.Join(joinCtx); err != nil {
		logger.Warn("session ended with error", "error", err)
	}

	logger.Info("shutdown complete",
		"messages", messages.Load(),
		"changes", changes.Load(),
		"dropped", dropped.Load(),
	)
}

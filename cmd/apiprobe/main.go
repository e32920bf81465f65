// apiprobe exercises the StreamElements chat stats endpoints and prints
// the results. No credentials are required.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/twitchstats/sestats/internal/api"
)

func main() {
	channel := flag.String("channel", "global", "channel to probe")
	flag.Parse()

	client := api.NewClient(
		"https://api.streamelements.com/kappa/v2",
		api.WithTimeout(30*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Test 1: Top channels
	fmt.Println("=== Testing GetTopChannels ===")
	channels, err := client.GetTopChannels(ctx)
	if err != nil {
		log.Fatalf("GetTopChannels failed: %v", err)
	}
	fmt.Printf("Fetched %d channels\n", len(channels))
	for i, c := range channels {
		if i >= 5 {
			break
		}
		fmt.Printf("  %d. %s - %d messages\n", i+1, c.Channel, c.Messages)
	}

	// Test 2: Channel stats
	fmt.Printf("\n=== Testing GetChannelStats (%s) ===\n", *channel)
	stats, err := client.GetChannelStats(ctx, *channel)
	if err != nil {
		log.Fatalf("GetChannelStats failed: %v", err)
	}
	fmt.Printf("Channel: %s\n", stats.Channel)
	fmt.Printf("Total messages: %d\n", stats.TotalMessages)
	fmt.Printf("Chatters: %d, Hashtags: %d, Commands: %d\n",
		len(stats.Chatters), len(stats.Hashtags), len(stats.Commands))
	fmt.Printf("Emotes: bttv=%d ffz=%d twitch=%d\n",
		len(stats.BTTVEmotes), len(stats.FFZEmotes), len(stats.TwitchEmotes))

	if len(stats.Chatters) > 0 {
		fmt.Println("Top chatters:")
		for i, c := range stats.Chatters {
			if i >= 3 {
				break
			}
			fmt.Printf("  %s: %d\n", c.Name, c.Amount)
		}
	}

	if len(stats.BTTVEmotes) > 0 {
		fmt.Println("Top BTTV emotes:")
		for i, e := range stats.BTTVEmotes {
			if i >= 3 {
				break
			}
			fmt.Printf("  %s: %d\n", e.Emote, e.Amount)
		}
	}

	fmt.Println("\n=== All API tests passed! ===")
}

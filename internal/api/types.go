package api

// Channel is one entry from GET /chatstats: a channel name and its
// total message count.
type Channel struct {
	Channel  string `json:"channel"`
	Messages uint64 `json:"messages"`
}

// ChatStats from GET /chatstats/{channel}/stats. The named channel
// "global" aggregates stats across all of Twitch.
type ChatStats struct {
	Channel       string `json:"channel"`
	TotalMessages uint64 `json:"totalMessages"`

	Chatters []ChatterStats `json:"chatters"`
	Hashtags []HashtagStats `json:"hashtags"`
	Commands []CommandStats `json:"commands"`

	BTTVEmotes   []EmoteStats `json:"bttvEmotes"`
	FFZEmotes    []EmoteStats `json:"ffzEmotes"`
	TwitchEmotes []EmoteStats `json:"twitchEmotes"`
}

// ChatterStats counts messages sent by one chatter.
type ChatterStats struct {
	Name   string `json:"name"`
	Amount uint64 `json:"amount"`
}

// HashtagStats counts uses of one hashtag.
type HashtagStats struct {
	Hashtag string `json:"hashtag"`
	Amount  uint64 `json:"amount"`
}

// CommandStats counts uses of one chat command.
type CommandStats struct {
	Command string `json:"command"`
	Amount  uint64 `json:"amount"`
}

// EmoteStats counts uses of one emote. ID is the provider's emote
// identifier, Emote the display code.
type EmoteStats struct {
	ID     string `json:"id"`
	Emote  string `json:"emote"`
	Amount uint64 `json:"amount"`
}

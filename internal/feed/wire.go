package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Stat change discriminants on the wire.
const (
	TypeChatters = "chatters"
	TypeEmotes   = "emotes"
)

// Emote providers reported by the feed.
const (
	ProviderBTTV   = "bttv"
	ProviderFFZ    = "ffz"
	ProviderTwitch = "twitch"
)

// Room returns the feed room name for a Twitch channel, e.g.
// "twitchstats:global:stats".
func Room(channel string) string {
	return "twitchstats:" + channel + ":stats"
}

// ParseRoom extracts the channel from a room name produced by Room.
// It returns false for anything else.
func ParseRoom(room string) (string, bool) {
	channel, ok := strings.CutPrefix(room, "twitchstats:")
	if !ok {
		return "", false
	}
	channel, ok = strings.CutSuffix(channel, ":stats")
	if !ok || channel == "" {
		return "", false
	}
	return channel, true
}

// subscribeCommand is the outbound subscribe frame.
type subscribeCommand struct {
	Command string `json:"command"`
	Data    struct {
		Room string `json:"room"`
	} `json:"data"`
}

// EncodeSubscribe builds the subscribe command for a room, exactly
// {"command":"subscribe","data":{"room":"<room>"}}.
func EncodeSubscribe(room string) []byte {
	cmd := subscribeCommand{Command: "subscribe"}
	cmd.Data.Room = room
	data, _ := json.Marshal(cmd)
	return data
}

// Envelope is one message from the stats feed.
//
// The feed can also publish batch messages (event "batch") whose data is
// a list of lists of changes; those are not decoded here and fail with a
// decode error.
type Envelope struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Event       string       `json:"event"`
	Destination *Destination `json:"destination,omitempty"`
	Data        []StatChange `json:"data"`
}

// Destination names the room a message was published to.
type Destination struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Room returns the destination room, or "" for messages without one.
func (e *Envelope) Room() string {
	if e.Destination == nil {
		return ""
	}
	return e.Destination.Value
}

// StatChange is one entry in an Envelope's data array. The concrete type
// is ChatterChange or EmoteChange, discriminated by the wire field
// "type"; decoding rejects unknown discriminants.
type StatChange interface {
	statChange()
}

// ChatterChange reports the message count for a single chatter.
type ChatterChange struct {
	Key    string
	Amount uint64
}

func (ChatterChange) statChange() {}

// MarshalJSON emits the tagged wire shape.
func (c ChatterChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Key    string `json:"key"`
		Amount uint64 `json:"amount"`
	}{TypeChatters, c.Key, c.Amount})
}

// EmoteChange reports the use count for a single emote.
type EmoteChange struct {
	Key      string
	ID       string
	Provider string
	Amount   uint64
}

func (EmoteChange) statChange() {}

// MarshalJSON emits the tagged wire shape.
func (c EmoteChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		Key      string `json:"key"`
		ID       string `json:"id"`
		Provider string `json:"provider"`
		Amount   uint64 `json:"amount"`
	}{TypeEmotes, c.Key, c.ID, c.Provider, c.Amount})
}

// DecodeEnvelope parses one feed message.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UnmarshalJSON decodes the envelope and its tagged data entries.
// id, type and data are required; event and destination are optional.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          *string           `json:"id"`
		Type        *string           `json:"type"`
		Event       string            `json:"event"`
		Destination *Destination      `json:"destination"`
		Data        []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID == nil {
		return errors.New(`envelope: missing field "id"`)
	}
	if raw.Type == nil {
		return errors.New(`envelope: missing field "type"`)
	}
	if raw.Data == nil {
		return errors.New(`envelope: missing field "data"`)
	}

	e.ID = *raw.ID
	e.Type = *raw.Type
	e.Event = raw.Event
	e.Destination = raw.Destination
	e.Data = make([]StatChange, 0, len(raw.Data))
	for i, el := range raw.Data {
		change, err := decodeStatChange(el)
		if err != nil {
			return fmt.Errorf("data[%d]: %w", i, err)
		}
		e.Data = append(e.Data, change)
	}
	return nil
}

// decodeStatChange parses one tagged change record. Missing fields and
// unknown discriminants fail naming the offender; a negative or
// non-integral amount fails in the uint64 unmarshal.
func decodeStatChange(data []byte) (StatChange, error) {
	var probe struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("stat change: %w", err)
	}
	if probe.Type == nil {
		return nil, errors.New(`stat change: missing field "type"`)
	}

	switch *probe.Type {
	case TypeChatters:
		var raw struct {
			Key    *string `json:"key"`
			Amount *uint64 `json:"amount"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("chatters change: %w", err)
		}
		if raw.Key == nil {
			return nil, errors.New(`chatters change: missing field "key"`)
		}
		if raw.Amount == nil {
			return nil, errors.New(`chatters change: missing field "amount"`)
		}
		return ChatterChange{Key: *raw.Key, Amount: *raw.Amount}, nil

	case TypeEmotes:
		var raw struct {
			Key      *string `json:"key"`
			ID       *string `json:"id"`
			Provider *string `json:"provider"`
			Amount   *uint64 `json:"amount"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("emotes change: %w", err)
		}
		if raw.Key == nil {
			return nil, errors.New(`emotes change: missing field "key"`)
		}
		if raw.ID == nil {
			return nil, errors.New(`emotes change: missing field "id"`)
		}
		if raw.Provider == nil {
			return nil, errors.New(`emotes change: missing field "provider"`)
		}
		if raw.Amount == nil {
			return nil, errors.New(`emotes change: missing field "amount"`)
		}
		return EmoteChange{Key: *raw.Key, ID: *raw.ID, Provider: *raw.Provider, Amount: *raw.Amount}, nil

	default:
		return nil, fmt.Errorf("unknown stat change type %q", *probe.Type)
	}
}

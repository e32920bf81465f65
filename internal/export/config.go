package export

import (
	"fmt"
	"strings"
)

// DefaultExports is the export selection used when none is configured.
const DefaultExports = "bttv,ffz,twitch,channel,chatter"

// Config selects which stat families get exported.
type Config struct {
	BTTV          bool
	FFZ           bool
	Twitch        bool
	Hashtag       bool
	Command       bool
	Chatter       bool
	Channel       bool
	TotalMessages bool
}

// AllExports returns a Config with every family enabled.
func AllExports() Config {
	return Config{
		BTTV:          true,
		FFZ:           true,
		Twitch:        true,
		Hashtag:       true,
		Command:       true,
		Chatter:       true,
		Channel:       true,
		TotalMessages: true,
	}
}

// ParseExports parses a comma-separated export selection, e.g.
// "bttv,ffz,chatter". Names are case-insensitive.
func ParseExports(s string) (Config, error) {
	return FromNames(strings.Split(s, ","))
}

// FromNames builds a Config from a list of export names.
func FromNames(names []string) (Config, error) {
	var cfg Config

	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "bttv":
			cfg.BTTV = true
		case "ffz":
			cfg.FFZ = true
		case "twitch":
			cfg.Twitch = true
		case "hashtag":
			cfg.Hashtag = true
		case "command":
			cfg.Command = true
		case "chatter":
			cfg.Chatter = true
		case "channel":
			cfg.Channel = true
		case "totalmessages":
			cfg.TotalMessages = true
		case "":
			return Config{}, fmt.Errorf("empty export name in %q", strings.Join(names, ","))
		default:
			return Config{}, fmt.Errorf("unknown export name %q", name)
		}
	}

	return cfg, nil
}

// Names returns the enabled export names in canonical order.
func (c Config) Names() []string {
	var names []string
	for _, e := range []struct {
		name    string
		enabled bool
	}{
		{"bttv", c.BTTV},
		{"ffz", c.FFZ},
		{"twitch", c.Twitch},
		{"hashtag", c.Hashtag},
		{"command", c.Command},
		{"chatter", c.Chatter},
		{"channel", c.Channel},
		{"totalmessages", c.TotalMessages},
	} {
		if e.enabled {
			names = append(names, e.name)
		}
	}
	return names
}

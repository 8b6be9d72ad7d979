package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "TUBETRAIL_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "hunt.search_limit", typ: kInt, env: "TUBETRAIL_HUNT_SEARCH_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Hunt.SearchLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Hunt.SearchLimit },
	},
	{
		key: "hunt.max_comments", typ: kInt, env: "TUBETRAIL_HUNT_MAX_COMMENTS",
		apply:   func(cfg *Config, v any) { cfg.Hunt.MaxComments = v.(int) },
		extract: func(cfg Config) any { return cfg.Hunt.MaxComments },
	},
	{
		key: "report.min_subscribers", typ: kInt, env: "TUBETRAIL_REPORT_MIN_SUBSCRIBERS",
		apply:   func(cfg *Config, v any) { cfg.Report.MinSubscribers = v.(int) },
		extract: func(cfg Config) any { return cfg.Report.MinSubscribers },
	},
	{
		key: "storage.data_dir", typ: kString, env: "TUBETRAIL_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "youtube.api_key", typ: kString, env: "TUBETRAIL_YOUTUBE_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.YouTube.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.YouTube.APIKey },
	},
	{
		key: "api.token", typ: kString, env: "TUBETRAIL_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "log.level", typ: kString, env: "TUBETRAIL_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

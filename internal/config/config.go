package config

import "strings"

// Config holds all runtime settings.
type Config struct {
	Server  ServerConfig
	Hunt    HuntConfig
	Report  ReportConfig
	Storage StorageConfig
	YouTube YouTubeConfig
	API     APIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type HuntConfig struct {
	SearchLimit int
	MaxComments int
}

type ReportConfig struct {
	// MinSubscribers is the threshold for the large-channels-without-contacts
	// aggregation.
	MinSubscribers int
}

type StorageConfig struct {
	DataDir string
}

type YouTubeConfig struct {
	// APIKey authorizes Data API calls (channel lookup, comment listing).
	// Search scraping works without it.
	APIKey string
}

type APIConfig struct {
	// Token, when set, is required as a bearer token on every HTTP API call.
	Token string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8787,
		},
		Hunt: HuntConfig{
			SearchLimit: 20,
			MaxComments: 20,
		},
		Report: ReportConfig{
			MinSubscribers: 10000,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.tubetrail.app) and the
// YouTube API key falls back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/tubetrail/config.json
// and secrets must be provided via environment variables.
//
// Environment variables (TUBETRAIL_*) override backend values on all
// platforms. No key is required at load time: without a YouTube API key the
// collector still searches and extracts, it just cannot enrich channels or
// comments.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.YouTube.APIKey == "" {
		if key, err := kc.Get("tubetrail", "youtube_api_key"); err == nil && key != "" {
			cfg.YouTube.APIKey = key
		}
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

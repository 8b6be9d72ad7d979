package config

// ConfigBackend is where non-secret settings live on a given platform:
// UserDefaults (through the `defaults` CLI) on macOS, a JSON file under
// $XDG_CONFIG_HOME on everything else. Secrets never pass through it;
// they come from the environment or the platform secret store.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}

package config

import "strings"

// keychainAccount names the secret slot holding a static API token.
const keychainAccount = "api_token"

type Config struct {
	Server  ServerConfig
	Chat    ChatConfig
	Storage StorageConfig
	Log     LogConfig
	Auth    AuthConfig
}

type ServerConfig struct {
	// BaseURL pins the server address. Empty means discover a local
	// desktop instance.
	BaseURL string
	// ProbeTimeoutMS bounds each discovery probe.
	ProbeTimeoutMS int
}

type ChatConfig struct {
	DefaultModel     string
	DefaultAssistant string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
	Color bool
}

type AuthConfig struct {
	// Token is a static bearer token for scripted use. Interactive sessions
	// created by `ziee auth login` live in the session store instead.
	Token string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			ProbeTimeoutMS: 1500,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
			Color: true,
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.ziee.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/ziee/config.json
// and secrets live in a mode-0600 file under $XDG_DATA_HOME/ziee.
//
// Environment variables (ZIEE_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for a static token if still empty.
	if cfg.Auth.Token == "" {
		if token, err := kc.Get("ziee", keychainAccount); err == nil && token != "" {
			cfg.Auth.Token = token
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

package config

import (
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

// BackendConfig points at the mention-detection service.
type BackendConfig struct {
	BaseURL string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:4000",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.brandlens.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/brandlens/config.json.
//
// A .env file in the working directory is loaded first, then environment
// variables (BRANDLENS_*) override backend values on all platforms.
func Load() (Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

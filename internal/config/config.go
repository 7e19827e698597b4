// Package config loads server and client settings from an optional YAML
// file plus DEVCLOCK_* environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Users  UsersConfig  `yaml:"users"`
	Log    LogConfig    `yaml:"log"`
	Client ClientConfig `yaml:"client"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type UsersConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level name to a slog level, defaulting
// to info on unknown names.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ClientConfig struct {
	ServerURL       string `yaml:"server_url"`
	CredentialsPath string `yaml:"credentials_path"`
}

// Load reads configuration from an optional YAML file and environment
// variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "devclock.db",
		},
		Users: UsersConfig{
			Path: "users.json",
		},
		Log: LogConfig{
			Level: "info",
		},
		Client: ClientConfig{
			ServerURL:       "http://localhost:8080",
			CredentialsPath: defaultCredentialsPath(),
		},
	}

	if path := os.Getenv("DEVCLOCK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("DEVCLOCK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("DEVCLOCK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEVCLOCK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("DEVCLOCK_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if usersPath := os.Getenv("DEVCLOCK_USERS_PATH"); usersPath != "" {
		cfg.Users.Path = usersPath
	}
	if level := os.Getenv("DEVCLOCK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if serverURL := os.Getenv("DEVCLOCK_SERVER_URL"); serverURL != "" {
		cfg.Client.ServerURL = serverURL
	}
	if credsPath := os.Getenv("DEVCLOCK_CREDENTIALS_PATH"); credsPath != "" {
		cfg.Client.CredentialsPath = credsPath
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "devclock-credentials.json"
	}
	return filepath.Join(home, ".devclock", "credentials.json")
}

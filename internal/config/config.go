package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Auth      AuthConfig      `yaml:"auth"`
	Workout   WorkoutConfig   `yaml:"workout"`
	Coach     CoachConfig     `yaml:"coach"`
	Photos    PhotosConfig    `yaml:"photos"`
	Exercises ExercisesConfig `yaml:"exercises"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// WorkoutConfig tunes session behavior. RestDefaultSeconds is the fallback
// rest duration for exercises with no recognized category. UndoWindowSeconds
// is how long a deleted set stays recoverable.
type WorkoutConfig struct {
	RestDefaultSeconds int  `yaml:"rest_default_seconds"`
	UndoWindowSeconds  int  `yaml:"undo_window_seconds"`
	RestEnabled        bool `yaml:"rest_enabled"`
}

type CoachConfig struct {
	AnalyzerURL string `yaml:"analyzer_url"`
}

type PhotosConfig struct {
	UploadURL string `yaml:"upload_url"`
}

type ExercisesConfig struct {
	CatalogURL      string `yaml:"catalog_url"`
	LocalDir        string `yaml:"local_dir"`
	CacheSizeMB     int    `yaml:"cache_size_mb"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix REPFLOW_ and underscore-separated paths:
//
//	REPFLOW_SERVER_HOST, REPFLOW_SERVER_PORT,
//	REPFLOW_DB_HOST, REPFLOW_DB_PORT, REPFLOW_DB_NAME,
//	REPFLOW_DB_USER, REPFLOW_DB_PASSWORD, REPFLOW_DB_SSLMODE,
//	REPFLOW_TS_ENABLED, REPFLOW_TS_HOSTNAME, REPFLOW_TS_STATE_DIR,
//	REPFLOW_AUTH_API_KEY,
//	REPFLOW_WORKOUT_REST_DEFAULT, REPFLOW_WORKOUT_UNDO_WINDOW,
//	REPFLOW_COACH_ANALYZER_URL, REPFLOW_PHOTOS_UPLOAD_URL,
//	REPFLOW_EXERCISES_CATALOG_URL
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Workout: WorkoutConfig{
			RestDefaultSeconds: 90,
			UndoWindowSeconds:  4,
			RestEnabled:        true,
		},
		Exercises: ExercisesConfig{
			LocalDir:        "data",
			CacheSizeMB:     4,
			CacheTTLSeconds: 300,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPFLOW_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPFLOW_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPFLOW_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REPFLOW_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REPFLOW_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REPFLOW_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REPFLOW_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REPFLOW_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REPFLOW_TS_ENABLED"); v != "" {
		cfg.Tailscale.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("REPFLOW_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("REPFLOW_TS_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("REPFLOW_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPFLOW_WORKOUT_REST_DEFAULT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Workout.RestDefaultSeconds = secs
		}
	}
	if v := os.Getenv("REPFLOW_WORKOUT_UNDO_WINDOW"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Workout.UndoWindowSeconds = secs
		}
	}
	if v := os.Getenv("REPFLOW_COACH_ANALYZER_URL"); v != "" {
		cfg.Coach.AnalyzerURL = v
	}
	if v := os.Getenv("REPFLOW_PHOTOS_UPLOAD_URL"); v != "" {
		cfg.Photos.UploadURL = v
	}
	if v := os.Getenv("REPFLOW_EXERCISES_CATALOG_URL"); v != "" {
		cfg.Exercises.CatalogURL = v
	}
}

func (c *Config) validate() error {
	if !c.Tailscale.Enabled && c.Server.Port == 0 {
		return fmt.Errorf("server.port is required when tailscale is disabled")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Workout.RestDefaultSeconds <= 0 {
		return fmt.Errorf("workout.rest_default_seconds must be positive")
	}
	if c.Workout.UndoWindowSeconds <= 0 {
		return fmt.Errorf("workout.undo_window_seconds must be positive")
	}
	return nil
}

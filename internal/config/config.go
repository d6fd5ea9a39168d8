package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds the decision-log database settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds the session cache settings.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// AuthConfig holds the kiosk API token settings.
type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	JWTAudience string `yaml:"jwt_audience"`
}

// ManifestConfig points at the flight manifest roster.
type ManifestConfig struct {
	FilePath    string `yaml:"file_path"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

// DocIntelligenceConfig holds the document analysis collaborator settings.
type DocIntelligenceConfig struct {
	Endpoint            string        `yaml:"endpoint"`
	APIKey              string        `yaml:"api_key"`
	BoardingPassModelID string        `yaml:"boarding_pass_model_id"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	PollTimeout         time.Duration `yaml:"poll_timeout"`
}

// FaceConfig holds the face identification collaborator settings.
type FaceConfig struct {
	Endpoint  string  `yaml:"endpoint"`
	APIKey    string  `yaml:"api_key"`
	Threshold float64 `yaml:"threshold"`
}

// Config is the process configuration, built once at startup and passed by
// reference into the collaborator constructors. The validation engine itself
// takes no configuration.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Database        DatabaseConfig        `yaml:"database"`
	Redis           RedisConfig           `yaml:"redis"`
	Auth            AuthConfig            `yaml:"auth"`
	Manifest        ManifestConfig        `yaml:"manifest"`
	DocIntelligence DocIntelligenceConfig `yaml:"doc_intelligence"`
	Face            FaceConfig            `yaml:"face"`
}

// Load reads an optional .env file, then the YAML config file named by the
// CONFIG_PATH environment variable (or the given fallback path), and finally
// applies environment overrides for secrets.
func Load(fallbackPath string) (*Config, error) {
	// A missing .env file is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := defaults()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = fallbackPath
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Manifest.FilePath == "" {
		return nil, fmt.Errorf("manifest file path is not configured")
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: "host=postgres user=postgres password=postgres dbname=boardcheck port=5432 sslmode=disable",
		},
		Redis: RedisConfig{Addr: "redis:6379"},
		Auth:  AuthConfig{JWTSecret: "dev-secret"},
		DocIntelligence: DocIntelligenceConfig{
			PollInterval: 2 * time.Second,
			PollTimeout:  2 * time.Minute,
		},
		Face: FaceConfig{Threshold: 0.65},
	}
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Server.Addr, "SERVER_ADDR")
	overrideString(&cfg.Database.DSN, "DATABASE_DSN")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDR")
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.Auth.JWTAudience, "JWT_AUDIENCE")
	overrideString(&cfg.Manifest.FilePath, "MANIFEST_PATH")
	overrideString(&cfg.Manifest.SnapshotDir, "MANIFEST_SNAPSHOT_DIR")
	overrideString(&cfg.DocIntelligence.Endpoint, "DOC_INTELLIGENCE_ENDPOINT")
	overrideString(&cfg.DocIntelligence.APIKey, "DOC_INTELLIGENCE_KEY")
	overrideString(&cfg.DocIntelligence.BoardingPassModelID, "BOARDING_PASS_MODEL_ID")
	overrideString(&cfg.Face.Endpoint, "FACE_API_ENDPOINT")
	overrideString(&cfg.Face.APIKey, "FACE_API_KEY")
}

func overrideString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

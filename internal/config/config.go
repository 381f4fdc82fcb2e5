package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Detection DetectionConfig `yaml:"detection"`
	Rewards   RewardsConfig   `yaml:"rewards"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig holds JWT and admin authentication configuration
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	AdminToken string `yaml:"admin_token"`
}

// StorageConfig holds photo storage configuration
type StorageConfig struct {
	UploadDir     string   `yaml:"upload_dir"`
	PublicBaseURL string   `yaml:"public_base_url"`
	S3            S3Config `yaml:"s3"`
}

// S3Config holds the optional S3 mirror configuration
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // custom endpoint for S3-compatible providers
}

// DetectionConfig holds the detection router configuration
type DetectionConfig struct {
	Remote RemoteDetectionConfig `yaml:"remote"`
	Local  LocalDetectionConfig  `yaml:"local"`
}

// RemoteDetectionConfig holds remote inference endpoint configuration.
// The remote backend is used only when both URL and APIKey are set.
type RemoteDetectionConfig struct {
	URL            string   `yaml:"url"`
	APIKey         string   `yaml:"api_key"`
	Model          string   `yaml:"model"`
	ImageSize      int      `yaml:"imgsz"`
	Confidence     float64  `yaml:"conf"`
	IoU            float64  `yaml:"iou"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	TrashClasses   []string `yaml:"trash_classes"`
}

// LocalDetectionConfig holds local fallback model configuration.
// The local backend runs Command with the model path and image path as
// arguments and reads a detection payload from stdout. Its class vocabulary
// differs from the remote backend, so it carries its own allow-list.
type LocalDetectionConfig struct {
	Command      string   `yaml:"command"`
	ModelPath    string   `yaml:"model_path"`
	TrashClasses []string `yaml:"trash_classes"`
}

// RewardsConfig holds points pipeline tunables
type RewardsConfig struct {
	DuplicateThreshold   int  `yaml:"duplicate_threshold"`
	DuplicateLookback    int  `yaml:"duplicate_lookback"`
	RequireBinScan       bool `yaml:"require_bin_scan"`
	BinScanWindowMinutes int  `yaml:"bin_scan_window_minutes"`
	RateLimitPerMinute   int  `yaml:"rate_limit_per_minute"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Detection.Remote.ImageSize == 0 {
		c.Detection.Remote.ImageSize = 640
	}
	if c.Detection.Remote.Confidence == 0 {
		c.Detection.Remote.Confidence = 0.25
	}
	if c.Detection.Remote.IoU == 0 {
		c.Detection.Remote.IoU = 0.45
	}
	if c.Detection.Remote.TimeoutSeconds == 0 {
		c.Detection.Remote.TimeoutSeconds = 30
	}
	if c.Rewards.DuplicateThreshold == 0 {
		c.Rewards.DuplicateThreshold = 5
	}
	if c.Rewards.DuplicateLookback == 0 {
		c.Rewards.DuplicateLookback = 8
	}
	if c.Rewards.BinScanWindowMinutes == 0 {
		c.Rewards.BinScanWindowMinutes = 30
	}
	if c.Rewards.RateLimitPerMinute == 0 {
		c.Rewards.RateLimitPerMinute = 5
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "uploads"
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RemoteTimeout returns the remote inference call timeout
func (c *RemoteDetectionConfig) RemoteTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BinScanWindow returns the corroboration lookback window
func (c *RewardsConfig) BinScanWindow() time.Duration {
	return time.Duration(c.BinScanWindowMinutes) * time.Minute
}

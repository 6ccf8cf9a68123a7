package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	CORS     CORSConfig     `yaml:"cors"`
	Admin    AdminConfig    `yaml:"admin"`
	Model    ModelConfig    `yaml:"model"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowedOrigins"`
}

type AdminConfig struct {
	Token string `yaml:"token"`
}

type ModelConfig struct {
	ModelPath    string `yaml:"modelPath"`
	MetadataPath string `yaml:"metadataPath"`
	DataDir      string `yaml:"dataDir"`
	// PredThreshold carries the raw PRED_THRESHOLD value; the threshold
	// resolver owns parsing and validation so a bad value degrades
	// instead of failing startup.
	PredThreshold string `yaml:"predThreshold"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (m ModelConfig) TrainingDataPath() string {
	return filepath.Join(m.DataDir, "student_data_sample.csv")
}

func (m ModelConfig) ExportPath() string {
	return filepath.Join(m.DataDir, "student_data_export.csv")
}

// LoadConfig builds the config from defaults, then an optional YAML file
// named by CONFIG_FILE, then environment variables. Env always wins.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFromYAML(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "studentpredict",
			Password: "studentpredict_dev_password",
			Name:     "studentpredict",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		CORS:  CORSConfig{AllowedOrigins: "*"},
		Admin: AdminConfig{Token: "changeme"},
		Model: ModelConfig{
			ModelPath:    "models/marks_classifier.json",
			MetadataPath: "models/metadata.json",
			DataDir:      "data",
		},
		Log: LogConfig{Level: "info"},
	}
}

func (c *Config) loadFromYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() error {
	serverPort, err := getIntEnv("SERVER_PORT", c.Server.Port)
	if err != nil {
		return fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	c.Server.Port = serverPort

	dbPort, err := getIntEnv("DB_PORT", c.Database.Port)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = dbPort
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	redisPort, err := getIntEnv("REDIS_PORT", c.Redis.Port)
	if err != nil {
		return fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	redisDB, err := getIntEnv("REDIS_DB", c.Redis.DB)
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = redisPort
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = redisDB

	c.CORS.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)
	c.Admin.Token = getEnv("ADMIN_TOKEN", c.Admin.Token)

	c.Model.ModelPath = getEnv("MODEL_PATH", c.Model.ModelPath)
	c.Model.MetadataPath = getEnv("MODEL_METADATA_PATH", c.Model.MetadataPath)
	c.Model.DataDir = getEnv("DATA_DIR", c.Model.DataDir)
	c.Model.PredThreshold = getEnv("PRED_THRESHOLD", c.Model.PredThreshold)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Model.ModelPath == "" || c.Model.MetadataPath == "" {
		return fmt.Errorf("model and metadata paths must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

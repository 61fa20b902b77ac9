package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	FrontendURL string
	UploadDir   string

	DBDriver   string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	LogLevel  string
	LogFormat string

	AuthJWTSecret string // shared secret of the identity provider; empty disables bearer checks

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion            string
	IoTMQTTEndpoint      string
	SQSOccupancyQueueURL string

	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	GitHubToken     string
	GitHubRepoName  string
	GitHubRepoOwner string

	// Defaulted lists the variables that were not set and fell back to a default.
	Defaulted []string
}

// Load reads the environment, optionally seeded from a .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.ServerPort = cfg.getEnv("SERVER_PORT", "3001")
	cfg.FrontendURL = cfg.getEnv("FRONTEND_URL", "*")
	cfg.UploadDir = cfg.getEnv("UPLOAD_DIR", "uploads")

	cfg.DBDriver = cfg.getEnv("DB_DRIVER", "pgx")
	cfg.DBHost = cfg.getEnv("DB_HOST", "")
	cfg.DBPort = cfg.getEnvInt("DB_PORT", 5432)
	cfg.DBUser = cfg.getEnv("DB_USER", "garage")
	cfg.DBPassword = cfg.getEnv("DB_PASSWORD", "")
	cfg.DBName = cfg.getEnv("DB_NAME", "garage_config")
	cfg.DBSslMode = cfg.getEnv("DB_SSLMODE", "disable")

	cfg.LogLevel = cfg.getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = cfg.getEnv("LOG_FORMAT", "json")

	cfg.AuthJWTSecret = cfg.getEnv("AUTH_JWT_SECRET", "")

	cfg.RedisAddr = cfg.getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = cfg.getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = cfg.getEnvInt("REDIS_DB", 0)

	cfg.AWSRegion = cfg.getEnv("AWS_REGION", "ap-southeast-1")
	cfg.IoTMQTTEndpoint = cfg.getEnv("IOT_MQTT_ENDPOINT", "")
	cfg.SQSOccupancyQueueURL = cfg.getEnv("SQS_OCCUPANCY_QUEUE_URL", "")

	cfg.MQTTBroker = cfg.getEnv("MQTT_BROKER", "")
	cfg.MQTTClientID = cfg.getEnv("MQTT_CLIENT_ID", "garage-config-api")
	cfg.MQTTUsername = cfg.getEnv("MQTT_USERNAME", "")
	cfg.MQTTPassword = cfg.getEnv("MQTT_PASSWORD", "")

	cfg.GitHubToken = cfg.getEnv("GITHUB_TOKEN", "")
	cfg.GitHubRepoName = cfg.getEnv("GITHUB_REPO_NAME", "")
	cfg.GitHubRepoOwner = cfg.getEnv("GITHUB_REPO_OWNER", "")
	return cfg
}

// UseDatabase reports whether a PostgreSQL host was configured. Without one
// the service runs on the in-memory store.
func (c *Config) UseDatabase() bool {
	return c.DBHost != ""
}

func (c *Config) UseAWS() bool {
	return c.IoTMQTTEndpoint != "" || c.SQSOccupancyQueueURL != ""
}

func (c *Config) getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	c.Defaulted = append(c.Defaulted, key)
	return fallback
}

func (c *Config) getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(c.getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

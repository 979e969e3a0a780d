package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Banana   BananaConfig
	Client   ClientConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieSecure    bool
}

// BananaConfig points at the remote inference backend and the external
// image-tagging service.
type BananaConfig struct {
	BaseURL           string
	TaggerURL         string
	SessionReadyDelay time.Duration
	AnalysisTopN      int
}

// ClientConfig is what the terminal client needs on top of the above.
type ClientConfig struct {
	APIBaseURL    string
	AuthStatePath string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", "default_secret"),
			AccessTokenTTL:  getEnvAsDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
			RefreshTokenTTL: getEnvAsDuration("REFRESH_TOKEN_TTL", 3*time.Hour),
			CookieSecure:    getEnv("GO_ENV", "development") == "production",
		},
		Banana: BananaConfig{
			BaseURL:           getEnv("BANANA_API_URL", "http://localhost:8000"),
			TaggerURL:         getEnv("TAGGER_API_URL", "http://localhost:8188"),
			SessionReadyDelay: getEnvAsDuration("SESSION_READY_DELAY", 2*time.Second),
			AnalysisTopN:      getEnvAsInt("ANALYSIS_TOP_N", 15),
		},
		Client: ClientConfig{
			APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:3000"),
			AuthStatePath: getEnv("AUTH_STATE_PATH", defaultAuthStatePath()),
		},
	}
}

func defaultAuthStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".giga-banana/auth.json"
	}
	return home + "/.giga-banana/auth.json"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

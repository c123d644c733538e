package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Mongo holds the directory and, by default, the ledger.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Ledger backend: mongo, sqlite or postgres.
	LedgerDriver string `mapstructure:"LEDGER_DRIVER"`
	LedgerDSN    string `mapstructure:"LEDGER_DSN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Completion model.
	GeminiAPIKey      string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string `mapstructure:"GEMINI_MODEL"`
	LLMTimeoutSeconds int    `mapstructure:"LLM_TIMEOUT_SECONDS"`

	// Google Maps API Key.
	GoogleMapsAPIKey string `mapstructure:"GOOGLE_MAPS_API_KEY"`

	// Email channel.
	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`

	// WhatsApp channel.
	TwilioAccountSID   string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `mapstructure:"TWILIO_WHATSAPP_FROM"`

	// Push channel.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Consultation tuning.
	SessionTimeoutMinutes  int    `mapstructure:"SESSION_TIMEOUT_MINUTES"`
	SessionCleanupSchedule string `mapstructure:"SESSION_CLEANUP_SCHEDULE"`
	MinTurns               int    `mapstructure:"MIN_TURNS"`
	MaxTurns               int    `mapstructure:"MAX_TURNS"`
	SeverityCritical       int    `mapstructure:"SEVERITY_CRITICAL"`
	SeverityHigh           int    `mapstructure:"SEVERITY_HIGH"`
	SeverityMedium         int    `mapstructure:"SEVERITY_MEDIUM"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "medinet")
	viper.SetDefault("LEDGER_DRIVER", "mongo")
	viper.SetDefault("LEDGER_DSN", "medinet.db")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("LLM_TIMEOUT_SECONDS", 20)
	viper.SetDefault("GOOGLE_MAPS_API_KEY", "")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASS", "")
	viper.SetDefault("SMTP_FROM", "")
	viper.SetDefault("TWILIO_ACCOUNT_SID", "")
	viper.SetDefault("TWILIO_AUTH_TOKEN", "")
	viper.SetDefault("TWILIO_WHATSAPP_FROM", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("SESSION_TIMEOUT_MINUTES", 30)
	viper.SetDefault("SESSION_CLEANUP_SCHEDULE", "@every 10m")
	viper.SetDefault("MIN_TURNS", 3)
	viper.SetDefault("MAX_TURNS", 6)
	viper.SetDefault("SEVERITY_CRITICAL", 85)
	viper.SetDefault("SEVERITY_HIGH", 70)
	viper.SetDefault("SEVERITY_MEDIUM", 50)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// SessionTimeout is the idle window after which an active consultation is force-ended.
func SessionTimeout() time.Duration {
	if AppConfig.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(AppConfig.SessionTimeoutMinutes) * time.Minute
}

func LLMTimeout() time.Duration {
	if AppConfig.LLMTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(AppConfig.LLMTimeoutSeconds) * time.Second
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	Port           string

	JWTSecret       string
	CronSecret      string
	SchedulerAPIKey string
	CrawlerAPIKey   string

	CrawlerServiceURL string

	SerperAPIKey string

	AIProvider          string // "azure" or "gemini"
	AzureOpenAIEndpoint string
	AzureOpenAIKey      string
	AzureOpenAIDeploy   string
	AzureOpenAIVersion  string
	GeminiAPIKey        string
	GeminiModel         string

	PaypalBaseURL      string
	PaypalClientID     string
	PaypalClientSecret string
	PaypalWebhookID    string

	RedisAddr     string
	RedisPassword string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	// "deny" blocks a feature when no usage_limits row exists for the tier;
	// "allow" treats a missing row as unlimited.
	LimitDefaultPolicy string

	SchedulerEnabled bool
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		Port:           getEnv("PORT", "8080"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		CronSecret:      getEnv("CRON_SECRET", ""),
		SchedulerAPIKey: getEnv("SCHEDULER_API_KEY", ""),
		CrawlerAPIKey:   getEnv("CRAWLER_API_KEY", ""),

		CrawlerServiceURL: getEnv("CRAWLER_SERVICE_URL", ""),

		SerperAPIKey: getEnv("SERPER_API_KEY", ""),

		AIProvider:          getEnv("AI_PROVIDER", "azure"),
		AzureOpenAIEndpoint: getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIKey:      getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureOpenAIDeploy:   getEnv("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		AzureOpenAIVersion:  getEnv("AZURE_OPENAI_API_VERSION", "2024-02-15-preview"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		PaypalBaseURL:      getEnv("PAYPAL_BASE_URL", "https://api-m.paypal.com"),
		PaypalClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
		PaypalClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
		PaypalWebhookID:    getEnv("PAYPAL_WEBHOOK_ID", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "seopulse-reports"),

		LimitDefaultPolicy: getEnv("LIMIT_DEFAULT_POLICY", "deny"),

		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", false),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %v", key, v, def)
		return def
	}
	return b
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"tonflip/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Telegram configuration
	TelegramBotToken string
	InitDataMaxAge   time.Duration // How old a signed launch payload may be

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr        string
	AllowedOrigins  []string
	RateLimitRPS    int
	RateLimitBurst  int
	ShutdownTimeout time.Duration

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables NATS

	// Redis configuration
	RedisURL            string
	LeaderboardCacheTTL time.Duration

	// Chain indexer configuration
	TonCenterURL    string
	TonCenterAPIKey string

	// Points economy
	StartingPoints            int64
	ReferralSignupBonus       int64 // Claimable points granted to a referred newcomer
	ReferrerSignupBonus       int64 // Claimable points granted to the referrer
	ReferralCommissionPercent int64
	MinWager                  int64
	MaxWager                  int64
	LeaderboardLimit          int
	RecentPlaysLimit          int
	BigWinThreshold           int64 // Wins at or above this are announced to ops

	// Purchase configuration
	PurchaseRecipientAddress string
	PurchaseAmountNano       int64
	PurchaseToleranceNano    int64
	PurchaseReward           int64
	PurchaseValidity         time.Duration
	DailyPurchaseLimit       int
	VerifyCooldown           time.Duration
	PurchaseExpiryInterval   time.Duration

	// Ops notifications
	DiscordWebhookID    string
	DiscordWebhookToken string

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is normal outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	config := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		InitDataMaxAge:   getDurationWithDefault("INIT_DATA_MAX_AGE", 24*time.Hour),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:        getEnvWithDefault("HTTP_ADDR", ":8080"),
		AllowedOrigins:  splitList(getEnvWithDefault("ALLOWED_ORIGINS", "*")),
		RateLimitRPS:    getIntWithDefault("RATE_LIMIT_RPS", 10),
		RateLimitBurst:  getIntWithDefault("RATE_LIMIT_BURST", 20),
		ShutdownTimeout: 10 * time.Second,

		NATSServers: os.Getenv("NATS_SERVERS"),

		RedisURL:            os.Getenv("REDIS_URL"),
		LeaderboardCacheTTL: getDurationWithDefault("LEADERBOARD_CACHE_TTL", 30*time.Second),

		TonCenterURL:    getEnvWithDefault("TONCENTER_URL", "https://toncenter.com/api/v2"),
		TonCenterAPIKey: os.Getenv("TONCENTER_API_KEY"),

		StartingPoints:            getInt64WithDefault("STARTING_POINTS", 200),
		ReferralSignupBonus:       500,
		ReferrerSignupBonus:       250,
		ReferralCommissionPercent: 5,
		MinWager:                  100,
		MaxWager:                  5000,
		LeaderboardLimit:          300,
		RecentPlaysLimit:          10,
		BigWinThreshold:           getInt64WithDefault("BIG_WIN_THRESHOLD", 5000),

		PurchaseRecipientAddress: getEnvWithDefault("PURCHASE_RECIPIENT_ADDRESS", "UQB1tZNtifeLxqQmWUfI9AHVtjvrt3x85Jv6XmkvMiDIt0mS"),
		PurchaseAmountNano:       150000000,
		PurchaseToleranceNano:    1000000,
		PurchaseReward:           500,
		PurchaseValidity:         20 * time.Minute,
		DailyPurchaseLimit:       2,
		VerifyCooldown:           15 * time.Second,
		PurchaseExpiryInterval:   time.Minute,

		DiscordWebhookID:    os.Getenv("DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken: os.Getenv("DISCORD_WEBHOOK_TOKEN"),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.TelegramBotToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:               "test",
		TelegramBotToken:          "test-bot-token",
		InitDataMaxAge:            24 * time.Hour,
		HTTPAddr:                  ":0",
		AllowedOrigins:            []string{"*"},
		RateLimitRPS:              100,
		RateLimitBurst:            100,
		ShutdownTimeout:           time.Second,
		LeaderboardCacheTTL:       30 * time.Second,
		StartingPoints:            200,
		ReferralSignupBonus:       500,
		ReferrerSignupBonus:       250,
		ReferralCommissionPercent: 5,
		MinWager:                  100,
		MaxWager:                  5000,
		LeaderboardLimit:          300,
		RecentPlaysLimit:          10,
		BigWinThreshold:           5000,
		PurchaseRecipientAddress:  "UQB1tZNtifeLxqQmWUfI9AHVtjvrt3x85Jv6XmkvMiDIt0mS",
		PurchaseAmountNano:        150000000,
		PurchaseToleranceNano:     1000000,
		PurchaseReward:            500,
		PurchaseValidity:          20 * time.Minute,
		DailyPurchaseLimit:        2,
		VerifyCooldown:            15 * time.Second,
		PurchaseExpiryInterval:    time.Minute,
		LogLevel:                  "debug",
	}
}

package app

import (
	"os"
	"strconv"
	"time"
)

type SMTPConfig struct {
	Host     string // SMTP server host
	Port     int    // SMTP server port (default: 587)
	TLS      bool   // Require TLS (default: true)
	Username string // Optional: SMTP login
	Password string // Optional: SMTP password
	From     string // Sender address on code emails
}

type Config struct {
	Issuer         string // Required: issuer claim for tokens
	BootstrapToken string // Optional: token required to perform bootstrap

	NumKeys      int    // Optional: number of signing keys to generate (default: 3, min: 1, max: 10)
	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	SessionTTL           time.Duration // Lifetime of a session token (default: 12h)
	SessionIdleTimeout   time.Duration // Session ends without a heartbeat for this long (default: 30m)
	MaxActiveSessions    int           // Active sessions allowed per user (default: 1)
	MaxDevices           int           // Devices a user may register, 0 for no cap (default: 0)
	ChallengeTTL         time.Duration // Step-up challenge lifetime (default: 10m)
	ChallengeMaxAttempts int           // Wrong codes before a challenge is replaced (default: 5)
	TrustFirstDevice     bool          // A user's first device logs in without step-up (default: false)
	OTPDelivery          string        // How step-up codes are delivered: log, email (default: log)
	SMTP                 SMTPConfig    // Mail server for OTPDelivery=email
	ResolutionTokenTTL   time.Duration // Lifetime of a TOO_MANY_DEVICES resolution token (default: 5m)
	ChallengeIssuer      string        // Issuer label on step-up codes (default: PharmHub)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1m)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	MetricsEnabled       bool          // Serve /metrics (default: true)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         os.Getenv("AUTH_ISSUER"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"), // Optional: if set, required to perform bootstrap
		NumKeys:        getEnvIntOrDefault("AUTH_NUM_KEYS", 0),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		SessionTTL:           getEnvDurationOrDefault("AUTH_SESSION_TTL", 12*time.Hour),
		SessionIdleTimeout:   getEnvDurationOrDefault("AUTH_SESSION_IDLE_TIMEOUT", 30*time.Minute),
		MaxActiveSessions:    getEnvIntOrDefault("AUTH_MAX_ACTIVE_SESSIONS", 1),
		MaxDevices:           getEnvIntOrDefault("AUTH_MAX_DEVICES", 0),
		ChallengeTTL:         getEnvDurationOrDefault("AUTH_CHALLENGE_TTL", 10*time.Minute),
		ChallengeMaxAttempts: getEnvIntOrDefault("AUTH_CHALLENGE_MAX_ATTEMPTS", 5),
		TrustFirstDevice:     getEnvBoolOrDefault("AUTH_TRUST_FIRST_DEVICE", false),
		OTPDelivery:          getEnvOrDefault("AUTH_OTP_DELIVERY", "log"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("AUTH_SMTP_HOST"),
			Port:     getEnvIntOrDefault("AUTH_SMTP_PORT", 587),
			TLS:      getEnvBoolOrDefault("AUTH_SMTP_TLS", true),
			Username: os.Getenv("AUTH_SMTP_USERNAME"),
			Password: os.Getenv("AUTH_SMTP_PASSWORD"),
			From:     os.Getenv("AUTH_SMTP_FROM"),
		},
		ResolutionTokenTTL:   getEnvDurationOrDefault("AUTH_RESOLUTION_TOKEN_TTL", 5*time.Minute),
		ChallengeIssuer:      getEnvOrDefault("AUTH_CHALLENGE_ISSUER", "PharmHub"),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		Env:            getEnvOrDefault("ENV", "dev"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "json"),
		Port:           getEnvIntOrDefault("PORT", 8080),
		MetricsEnabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "pharmhub-auth"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

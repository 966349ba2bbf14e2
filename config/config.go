package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string
	DBLogLevel string

	JWTSecret string

	QuoteNumberPrefix  string
	SequenceMaxRetries int
	MinBaselineSamples int

	// Text generation for anomaly explanations (optional)
	OpenAIAPIKey      string
	OpenAIModel       string
	ExplainTimeout    time.Duration
	ExplainRatePerMin int

	// Anomaly alert mail (optional)
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	AlertFrom    string
	AlertTo      []string
	DigestCron   string

	ScoringPolicyPath string
	Policy            ScoringPolicy
}

// Load reads .env (when present) and the environment, then the optional scoring policy file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "9000"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             getEnv("DB_NAME", "procurement"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		DBTimeZone:         getEnv("DB_TIMEZONE", "Asia/Kolkata"),
		DBLogLevel:         getEnv("DB_LOG_LEVEL", "warn"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		QuoteNumberPrefix:  getEnv("QUOTE_NUMBER_PREFIX", "QT"),
		SequenceMaxRetries: getEnvInt("SEQUENCE_MAX_RETRIES", 5),
		MinBaselineSamples: getEnvInt("MIN_BASELINE_SAMPLES", 3),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ExplainTimeout:     getEnvDuration("EXPLAIN_TIMEOUT", 5*time.Second),
		ExplainRatePerMin:  getEnvInt("EXPLAIN_RATE_PER_MIN", 30),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getEnv("SMTP_PORT", "587"),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		AlertFrom:          os.Getenv("ALERT_FROM"),
		AlertTo:            splitList(os.Getenv("ALERT_TO")),
		DigestCron:         getEnv("ANOMALY_DIGEST_CRON", "30 8 * * *"),
		ScoringPolicyPath:  strings.TrimSpace(os.Getenv("SCORING_POLICY_PATH")),
		Policy:             DefaultScoringPolicy(),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SequenceMaxRetries < 1 {
		return nil, fmt.Errorf("SEQUENCE_MAX_RETRIES must be at least 1, got %d", cfg.SequenceMaxRetries)
	}
	if cfg.MinBaselineSamples < 1 {
		return nil, fmt.Errorf("MIN_BASELINE_SAMPLES must be at least 1, got %d", cfg.MinBaselineSamples)
	}

	if cfg.ScoringPolicyPath != "" {
		policy, err := LoadScoringPolicy(cfg.ScoringPolicyPath)
		if err != nil {
			return nil, err
		}
		cfg.Policy = policy
	}

	return cfg, nil
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone)
}

// MailEnabled reports whether enough SMTP settings are present to send alerts.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.AlertFrom != "" && len(c.AlertTo) > 0
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           int     // HTTP server port
	RateLimitRPS   float64 // Sustained requests per second accepted by the API (0 disables)
	RateLimitBurst int     // Burst size for the rate limiter

	// Fetch configuration
	ScanTimeout          time.Duration // Wall-clock budget for one scan
	MaxRedirects         int           // Maximum number of redirects to follow
	MaxBodyBytes         int64         // Response bodies are truncated past this size
	UserAgent            string        // User-Agent header sent with every fetch
	AllowPrivateNetworks bool          // Allow fetching loopback/private addresses

	// Analysis configuration
	RefDataPath   string // JSON reference dataset; empty uses the embedded default
	CoalesceScans bool   // Share one in-flight scan between concurrent requests for the same URL
}

// Load reads configuration from a .env file (if present) and environment variables
// and returns a Config struct with defaults applied
func Load() *Config {
	// A missing .env file is the normal case in production
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnvAsInt("PORT", 8080),
		RateLimitRPS:         getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:       getEnvAsInt("RATE_LIMIT_BURST", 10),
		ScanTimeout:          getEnvAsDuration("SCAN_TIMEOUT", 10000*time.Millisecond),
		MaxRedirects:         getEnvAsInt("MAX_REDIRECTS", 5),
		MaxBodyBytes:         getEnvAsInt64("MAX_BODY_BYTES", 5*1024*1024),
		UserAgent:            getEnv("USER_AGENT", "sitescan/1.0"),
		AllowPrivateNetworks: getEnvAsBool("ALLOW_PRIVATE_NETWORKS", false),
		RefDataPath:          getEnv("REFDATA_PATH", ""),
		CoalesceScans:        getEnvAsBool("COALESCE_SCANS", true),
	}
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return errors.New("PORT must be between 1 and 65535")
	case c.ScanTimeout <= 0:
		return errors.New("SCAN_TIMEOUT must be positive")
	case c.MaxRedirects < 0:
		return errors.New("MAX_REDIRECTS must not be negative")
	case c.MaxBodyBytes <= 0:
		return errors.New("MAX_BODY_BYTES must be positive")
	case c.RateLimitRPS < 0:
		return errors.New("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as an integer
// If the variable doesn't exist or can't be parsed, returns the default
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64 is getEnvAsInt for byte sizes
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool accepts the strconv.ParseBool spellings plus yes/no
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	switch valueStr {
	case "":
		return defaultValue
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads an environment variable as milliseconds and converts to time.Duration
// If the variable doesn't exist or can't be parsed, returns the default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	// Parse as milliseconds
	ms, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return time.Duration(ms) * time.Millisecond
}

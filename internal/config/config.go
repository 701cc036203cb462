package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr    string
	DBPath        string
	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string
	PhotoBackend  string
	PhotoPath     string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	LogLevel      string
	LogFile       string
	// Timezone decides where one ledger day ends and the next begins.
	Timezone          string
	AnalyzeRatePerMin float64
	AnalyzeBurst      int
}

func Load() *Config {
	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "/data/mealledger.db"),
		VisionBackend:     getEnv("VISION_BACKEND", "ollama"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llava"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		PhotoBackend:      getEnv("PHOTO_BACKEND", "local"),
		PhotoPath:         getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Region:          getEnv("S3_REGION", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
		Timezone:          getEnv("TIMEZONE", "UTC"),
		AnalyzeRatePerMin: getEnvFloat("ANALYZE_RATE_PER_MIN", 10),
		AnalyzeBurst:      getEnvInt("ANALYZE_BURST", 3),
	}
}

// Validate reports settings that would only fail later at first use.
func (c *Config) Validate() error {
	switch c.VisionBackend {
	case "claude":
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
	case "ollama":
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q, use claude or ollama", c.VisionBackend)
	}

	switch c.PhotoBackend {
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when PHOTO_BACKEND=s3")
		}
	case "local":
	default:
		return fmt.Errorf("unknown PHOTO_BACKEND %q, use local or s3", c.PhotoBackend)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone as an IANA zone name.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getEnvFloat falls back to defaultVal when the variable is unset or not a number.
func getEnvFloat(key string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnvInt(key string, defaultVal int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return v
}

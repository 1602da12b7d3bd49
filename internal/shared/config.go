package shared

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	LLMKey         string
	LLMBase        string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration
	LLMRPS         int

	HTTPTimeout  time.Duration
	MaxBodyBytes int64

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	BatchWorkers int
}

var ErrMissingKey = errors.New("GROQ_API_KEY is not set")

// Load reads a .env file when present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric env value")
		}
		return def
	}
	return Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", "127.0.0.1:8000"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		LLMKey:         env("GROQ_API_KEY", ""),
		LLMBase:        env("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:       env("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTemperature: atof("LLM_TEMPERATURE", 0.1),
		LLMTimeout:     time.Duration(atoi("LLM_TIMEOUT_SECONDS", 45)) * time.Second,
		LLMRPS:         atoi("LLM_RPS", 0),
		HTTPTimeout:    time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxBodyBytes:   int64(atoi("MAX_BODY_BYTES", 1<<20)),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 0)) * time.Second,
		BatchWorkers:   atoi("BATCH_WORKERS", 4),
	}
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if c.LLMKey == "" {
		return ErrMissingKey
	}
	return nil
}

// CacheEnabled is true only when both a redis address and a positive TTL are set.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != "" && c.CacheTTL > 0
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Loaded once at startup and
// treated as immutable: changing defaults never retroactively affects
// existing policies, which copy their terms at creation.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Policy terms applied to every new policy.
	PremiumCents     int64
	ClaimAmountCents int64
	DelayThreshold   time.Duration
	NoDataTimeout    time.Duration

	// Optional backends. Empty means the in-memory fallback.
	PostgresURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("INSURANCE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "policy-events"
	}

	return Server{
		Addr:             addr,
		JWTSigningKey:    jwtSigningKey,
		PremiumCents:     envInt64("PREMIUM_CENTS", 2000),
		ClaimAmountCents: envInt64("CLAIM_AMOUNT_CENTS", 6000),
		DelayThreshold:   envDuration("DELAY_THRESHOLD", 4*time.Hour),
		NoDataTimeout:    envDuration("NO_DATA_TIMEOUT", 72*time.Hour),
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBrokers:     envList("KAFKA_BROKERS"),
		KafkaTopic:       topic,
	}
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

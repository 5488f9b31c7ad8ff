package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// OperatorAddress is the platform's own privileged address. It owns the
	// trust registries and runs redemption's forced transfers, so token
	// owners must grant it the agent role on their instruments.
	OperatorAddress string

	// PostgresDSN enables the durable identity, wallet-binding, and audit
	// outbox stores; empty means in-memory only.
	PostgresDSN string

	// RedisAddr enables the country lookup cache; empty disables it.
	RedisAddr string

	// KafkaBrokers and AuditTopic drive the audit outbox publisher; an empty
	// broker list disables publishing (events stay in the outbox).
	KafkaBrokers []string
	AuditTopic   string
}

// CountryCacheTTL bounds retention of cached investor countries.
var CountryCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("AURUM_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("AUDIT_TOPIC")
	if topic == "" {
		topic = "aurum.audit"
	}

	operator := os.Getenv("AURUM_OPERATOR")
	if operator == "" {
		operator = "0x0000000000000000000000000000000000000001"
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		OperatorAddress: operator,
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		KafkaBrokers:    brokers,
		AuditTopic:      topic,
	}
}

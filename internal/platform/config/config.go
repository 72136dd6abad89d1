package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration for the ledger node.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN enables the durable event journal when set; the in-memory
	// journal is used otherwise.
	PostgresDSN string

	// KafkaBrokers enables the streaming event sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// SealPublicKey is the base64-encoded Kyber768 public key provenance
	// seals are encapsulated against. Provisioning is out of scope; dev
	// deployments may leave it empty and let the node generate one.
	SealPublicKey string

	// DevSeed loads a small demo catalog so the node is usable standalone.
	DevSeed bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FREIGHTLEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("FREIGHTLEDGER_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("FREIGHTLEDGER_KAFKA_TOPIC")
	if topic == "" {
		topic = "freightledger.audit"
	}

	var brokers []string
	if raw := os.Getenv("FREIGHTLEDGER_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		PostgresDSN:   os.Getenv("FREIGHTLEDGER_POSTGRES_DSN"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		SealPublicKey: os.Getenv("FREIGHTLEDGER_SEAL_PUBLIC_KEY"),
		DevSeed:       os.Getenv("FREIGHTLEDGER_DEV_SEED") == "true",
	}
}

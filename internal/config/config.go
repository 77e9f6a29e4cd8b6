package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt builds the missing-variable error
	"os"      // os provides access to environment variables
	"strings" // strings joins the list of missing keys
	"time"    // time parses the session lifetime

	"golang.org/x/crypto/bcrypt" // bcrypt supplies the default and bounds for the hashing cost
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Names follow the deployment the catalog was first
// hosted on (IP, PORT, MONGO_URI, MONGO_DBNAME, SECRET_KEY) with APP_* aliases
// for the host and port.
type Config struct {
	Env         string        // application environment (e.g. "dev", "prod")
	Host        string        // host/interface the HTTP server binds to
	Port        string        // HTTP port to listen on
	MongoURI    string        // MongoDB connection URI
	MongoDBName string        // MongoDB database name
	SecretKey   string        // secret used to sign session cookies
	BcryptCost  int           // bcrypt cost for password hashing
	SessionTTL  time.Duration // session lifetime; zero keeps a browser-session cookie
	LogLevel    string        // zerolog level name
	LogFormat   string        // json or console
	AMQPURL     string        // RabbitMQ URL; empty disables catalog events
	AuditLogDir string        // directory where the catalog audit log is written
}

// Addr returns the host:port pair the HTTP server listens on.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// IsProd reports whether the application runs in production mode.
func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// Load reads configuration values from environment variables and returns a
// Config.  Every required variable that is unset or empty is reported in a
// single error so operators can fix the environment in one pass.
func Load() (Config, error) {
	var missing []string
	must := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		missing = append(missing, strings.Join(keys, "|"))
		return ""
	}

	cfg := Config{
		Env:         envStr("APP_ENV", "dev"),
		Host:        firstEnv("0.0.0.0", "IP", "APP_HOST"),
		Port:        must("PORT", "APP_PORT"),
		MongoURI:    must("MONGO_URI"),
		MongoDBName: must("MONGO_DBNAME"),
		SecretKey:   must("SECRET_KEY"),
		BcryptCost:  envInt("BCRYPT_COST", bcrypt.DefaultCost),
		SessionTTL:  envDur("SESSION_TTL", 0),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		AMQPURL:     firstEnv("", "RABBITMQ_URL", "AMQP_URL"),
		AuditLogDir: envStr("AUDIT_LOG_DIR", "logs"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	defFormat := "console"
	if cfg.IsProd() {
		defFormat = "json"
	}
	cfg.LogFormat = envStr("LOG_FORMAT", defFormat)

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST %d: must be between %d and %d", cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.SessionTTL < 0 {
		cfg.SessionTTL = 0
	}
	return cfg, nil
}

// firstEnv returns the first non-empty variable among keys, or def.
func firstEnv(def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required values are enforced by must();
// tunables fall back to defaults so a dev instance starts with just the
// database and JWT settings.  The token TTL and grace window here are
// only defaults – programs carry their own values and nothing reads
// these at check-in time.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	JWTSecret       string        // secret the identity module signs actor tokens with
	TokenTTL        time.Duration // default check-in token lifetime
	GraceWindow     time.Duration // default on-time grace window
	AttendanceCache time.Duration // TTL of cached session attendance views
	RabbitURL       string        // AMQP broker URL; empty disables event publishing
}

// Load reads configuration values from environment variables and returns
// a Config.  Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		TokenTTL:        envDur("CHECKIN_TOKEN_TTL", 10*time.Minute),
		GraceWindow:     envDur("CHECKIN_GRACE_WINDOW", 10*time.Minute),
		AttendanceCache: envDur("ATTENDANCE_CACHE_TTL", 5*time.Second),
		RabbitURL:       os.Getenv("RABBITMQ_URL"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MLURL is the base URL of the risk-prediction service. Empty disables
	// prediction.
	MLURL     string
	MLTimeout time.Duration

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, VITALIS_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and
	// refresh-token hashing must be HMAC-based.
	RequireTokenHMAC bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// JanitorInterval paces background cleanup of expired refresh tokens and
	// old readings. VitalsRetention of zero keeps readings forever.
	JanitorInterval time.Duration
	VitalsRetention time.Duration
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("VITALIS_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("VITALIS_LOG_LEVEL", "info"),
		LogFormat: EnvString("VITALIS_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("VITALIS_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("VITALIS_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("VITALIS_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("VITALIS_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("VITALIS_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("VITALIS_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("VITALIS_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("VITALIS_DB_MIN_CONNS", 0),

		RedisAddr:     EnvString("VITALIS_REDIS_ADDR", ""),
		RedisPassword: EnvString("VITALIS_REDIS_PASSWORD", ""),
		RedisDB:       EnvInt("VITALIS_REDIS_DB", 0),

		MLURL:     EnvString("VITALIS_ML_URL", ""),
		MLTimeout: EnvDuration("VITALIS_ML_TIMEOUT", 2*time.Second),

		ReadinessRequireDB: EnvBool("VITALIS_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("VITALIS_REQUIRE_TOKEN_HMAC", false),

		CORSAllowedOrigins:   EnvStrings("VITALIS_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("VITALIS_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("VITALIS_CORS_MAX_AGE_SECONDS", 600),

		JanitorInterval: EnvDuration("VITALIS_JANITOR_INTERVAL", time.Hour),
		VitalsRetention: EnvDuration("VITALIS_VITALS_RETENTION", 0),
	}
}

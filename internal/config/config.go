package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DataDir        string        // directory tree of service YAML files
	ReloadInterval time.Duration // interval to recompile the catalog (default: 1h)
	Workers        int           // parallel validation/encoding workers (0 = GOMAXPROCS)

	// Snapshots
	PruneInterval time.Duration // interval to prune old catalog versions (default: 24h)
	KeepVersions  int           // versions kept per store (default: 10)
	LevelDBPath   string        // optional, empty = local archive disabled

	// Redis (optional, empty address = disabled)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
	RedisCatalogTTL       time.Duration // expiry of stored snapshots (0 = never)

	// Artifacts
	PublishArtifacts  bool   // true => every successful compilation is published
	ArtifactPrefix    string // key prefix for published artifacts
	StorageProvider   string // "local" | "r2"
	StorageLocalPath  string // base directory for the local provider
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2Region          string // default "auto"
	R2Endpoint        string // optional, overrides the account endpoint (MinIO, S3)
	R2PathStyle       bool

	AllowedHosts []string // optional, restrict /reload to specific Host headers
	AllowedCIDRS []string // optional, restrict admin routes to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateLimitBurst  int // requests per client IP before throttling /api
	RateLimitPerMin int // token refill per client IP per minute
}

// Load reads the configuration from the environment, after loading a .env
// file from the working directory if one exists.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ATLAS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("ATLAS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("ATLAS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ATLAS_PRETTY_LOG", false),

		// Catalog sources
		DataDir:        requireEnv("ATLAS_DATA_DIR"),
		ReloadInterval: mustDuration("ATLAS_RELOAD_INTERVAL", time.Hour),
		Workers:        getenvInt("ATLAS_WORKERS", 0),

		// Snapshots
		PruneInterval: mustDuration("ATLAS_PRUNE_INTERVAL", 24*time.Hour),
		KeepVersions:  getenvInt("ATLAS_KEEP_VERSIONS", 10),
		LevelDBPath:   getenv("ATLAS_LEVELDB_PATH", ""),

		// Redis settings
		RedisAddr:             getenv("ATLAS_REDIS_ADDR", ""),
		RedisUser:             getenv("ATLAS_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("ATLAS_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("ATLAS_REDIS_PASSWORD", ""),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
		RedisCatalogTTL:       mustDuration("ATLAS_REDIS_CATALOG_TTL", 30*24*time.Hour),

		// Artifacts
		PublishArtifacts: mustBool("ATLAS_PUBLISH_ARTIFACTS", false),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("ATLAS_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("ATLAS_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("ATLAS_TRUST_PROXY", false),

		RateLimitBurst:  getenvInt("ATLAS_RATE_LIMIT_BURST", 60),
		RateLimitPerMin: getenvInt("ATLAS_RATE_LIMIT_PER_MIN", 120),
	}

	if cfg.RedisEnabled() {
		cfg.RedisDB = requireEnvInt("ATLAS_REDIS_DB")
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: ATLAS_REDIS_PASSWORD is required when ATLAS_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	cfg.loadStorage(getenv("ATLAS_STORAGE_PROVIDER", "local"), cfg.PublishArtifacts)

	return cfg
}

// LoadStorage reads only the artifact storage settings, for one-shot
// compilations. provider overrides ATLAS_STORAGE_PROVIDER when not empty.
func LoadStorage(provider string) *Config {
	_ = godotenv.Load()

	if provider == "" {
		provider = getenv("ATLAS_STORAGE_PROVIDER", "local")
	}
	cfg := &Config{}
	cfg.loadStorage(provider, true)
	return cfg
}

// loadStorage fills the artifact settings. Credentials are only required
// when the storage is actually used.
func (c *Config) loadStorage(provider string, required bool) {
	c.ArtifactPrefix = getenv("ATLAS_ARTIFACT_PREFIX", "atlas")
	c.StorageProvider = strings.ToLower(provider)
	c.StorageLocalPath = getenv("ATLAS_STORAGE_LOCAL_PATH", "./artifacts")
	c.R2AccountID = getenv("ATLAS_R2_ACCOUNT_ID", "")
	c.R2Region = getenv("ATLAS_R2_REGION", "auto")
	c.R2Endpoint = getenv("ATLAS_R2_ENDPOINT", "")
	c.R2PathStyle = mustBool("ATLAS_R2_PATH_STYLE", false)

	if !required {
		return
	}

	switch c.StorageProvider {
	case "local":
	case "r2":
		c.R2Bucket = requireEnv("ATLAS_R2_BUCKET")
		c.R2AccessKeyID = requireEnv("ATLAS_R2_ACCESS_KEY_ID")
		c.R2SecretAccessKey = requireEnv("ATLAS_R2_SECRET_ACCESS_KEY")
		if c.R2Endpoint == "" {
			c.R2AccountID = requireEnv("ATLAS_R2_ACCOUNT_ID")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: ATLAS_STORAGE_PROVIDER must be local or r2, got %q", c.StorageProvider))
	}
}

// RedisEnabled reports whether catalog snapshots go to Redis.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

const redacted = "***REDACTED***"

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	for _, secret := range []*string{&c.RedisUser, &c.RedisPassword, &c.R2AccessKeyID, &c.R2SecretAccessKey} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return c
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := requireEnv(key)
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

// envOr parses key with parse, falling back to def when unset or malformed.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func getenvInt(key string, def int) int { return envOr(key, def, strconv.Atoi) }

func mustBool(key string, def bool) bool { return envOr(key, def, strconv.ParseBool) }

func mustDuration(key string, def time.Duration) time.Duration {
	return envOr(key, def, time.ParseDuration)
}

// splitAndTrim splits a comma-separated list, dropping blanks and quotes.
func splitAndTrim(s string) []string {
	var parts []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.Trim(strings.TrimSpace(part), `"'`); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	TLS        TLSConfig
	Plaid      PlaidConfig
	Dwolla     DwollaConfig
	Identity   IdentityConfig
	Firebase   FirebaseConfig
	Telemetry  TelemetryConfig
	RateLimit  RateLimitConfig
	Accounts   AccountsConfig
	Scheduler  SchedulerConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
	MessagesFile string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// AutoMigrate applies the embedded schema on startup.
	AutoMigrate bool
}

type JWTConfig struct {
	Secret     string
	SessionTTL time.Duration
}

type EncryptionConfig struct {
	Key string
}

type TLSConfig struct {
	Enabled      bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
}

type PlaidConfig struct {
	ClientID     string
	Secret       string
	Env          string
	Products     []string
	CountryCodes []string
	ClientName   string
	Timeout      time.Duration
}

type DwollaConfig struct {
	Key     string
	Secret  string
	Env     string
	Timeout time.Duration
}

// IdentityConfig selects the identity provider backing sign-up and sessions.
type IdentityConfig struct {
	Provider string
}

type FirebaseConfig struct {
	CredentialsFile string
	WebAPIKey       string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	// TrustedProxies are the peers allowed to set X-Forwarded-For.
	TrustedProxies    []netip.Prefix
}

type AccountsConfig struct {
	TransactionsPerPage int
	SyncTimeout         time.Duration
}

// SchedulerConfig sizes the background worker pool and sets the times of
// day maintenance jobs run.
type SchedulerConfig struct {
	Enabled          bool
	MaintenanceTimes []string
	WorkerCount      int
	QueueSize        int
}

const (
	IdentityProviderLocal    = "local"
	IdentityProviderFirebase = "firebase"
)

func Load() (*Config, error) {

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	sessionTTL, err := getDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	plaidTimeout, err := getDurationEnv("PLAID_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	dwollaTimeout, err := getDurationEnv("DWOLLA_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	syncTimeout, err := getDurationEnv("ACCOUNTS_SYNC_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	trustedProxies, err := parsePrefixes(getListEnv("RATE_LIMIT_TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_TRUSTED_PROXIES: %w", err)
	}
	workers, err := strconv.Atoi(getEnv("SCHEDULER_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_WORKERS: %w", err)
	}
	queueSize, err := strconv.Atoi(getEnv("SCHEDULER_QUEUE_SIZE", "256"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_QUEUE_SIZE: %w", err)
	}
	perPage, err := strconv.Atoi(getEnv("TRANSACTIONS_PER_PAGE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSACTIONS_PER_PAGE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: getListEnv("ALLOWED_HOSTS", ""),
			MessagesFile: getEnv("MESSAGES_FILE", "notifications.json"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "horizon"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "horizon"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			AutoMigrate: getBoolEnv("DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			SessionTTL: sessionTTL,
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		TLS: TLSConfig{
			Enabled:      getBoolEnv("TLS_ENABLED", false),
			CertPath:     getEnv("TLS_CERT_PATH", ""),
			KeyPath:      getEnv("TLS_KEY_PATH", ""),
			RedirectHTTP: getBoolEnv("TLS_REDIRECT_HTTP", false),
		},
		Plaid: PlaidConfig{
			ClientID:     getEnv("PLAID_CLIENT_ID", ""),
			Secret:       getEnv("PLAID_SECRET", ""),
			Env:          getEnv("PLAID_ENV", "sandbox"),
			Products:     getListEnv("PLAID_PRODUCTS", "auth,transactions"),
			CountryCodes: getListEnv("PLAID_COUNTRY_CODES", "US"),
			ClientName:   getEnv("PLAID_CLIENT_NAME", "Horizon"),
			Timeout:      plaidTimeout,
		},
		Dwolla: DwollaConfig{
			Key:     getEnv("DWOLLA_KEY", ""),
			Secret:  getEnv("DWOLLA_SECRET", ""),
			Env:     getEnv("DWOLLA_ENV", "sandbox"),
			Timeout: dwollaTimeout,
		},
		Identity: IdentityConfig{
			Provider: strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentityProviderLocal)),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			WebAPIKey:       getEnv("FIREBASE_WEB_API_KEY", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "horizon-api"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9090"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: rps,
			Burst:             burst,
			TrustedProxies:    trustedProxies,
		},
		Accounts: AccountsConfig{
			TransactionsPerPage: perPage,
			SyncTimeout:         syncTimeout,
		},
		Scheduler: SchedulerConfig{
			Enabled:          getBoolEnv("SCHEDULER_ENABLED", true),
			MaintenanceTimes: getListEnv("MAINTENANCE_TIMES", "03:00"),
			WorkerCount:      workers,
			QueueSize:        queueSize,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Encryption.Key == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if len(c.Encryption.Key) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	if c.TLS.Enabled {
		if c.TLS.CertPath == "" {
			return fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if c.TLS.KeyPath == "" {
			return fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	switch c.Plaid.Env {
	case "sandbox", "development", "production":
	default:
		return fmt.Errorf("PLAID_ENV must be one of sandbox, development, production (got %q)", c.Plaid.Env)
	}
	switch c.Dwolla.Env {
	case "sandbox", "production":
	default:
		return fmt.Errorf("DWOLLA_ENV must be sandbox or production (got %q)", c.Dwolla.Env)
	}

	switch c.Identity.Provider {
	case IdentityProviderLocal:
	case IdentityProviderFirebase:
		if c.Firebase.WebAPIKey == "" {
			return fmt.Errorf("FIREBASE_WEB_API_KEY is required when IDENTITY_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("IDENTITY_PROVIDER must be local or firebase (got %q)", c.Identity.Provider)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.Scheduler.Enabled && (c.Scheduler.WorkerCount < 1 || c.Scheduler.QueueSize < 1) {
		return fmt.Errorf("SCHEDULER_WORKERS and SCHEDULER_QUEUE_SIZE must be positive")
	}
	if c.Accounts.TransactionsPerPage < 1 {
		return fmt.Errorf("TRANSACTIONS_PER_PAGE must be at least 1")
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getListEnv splits a comma-separated variable, dropping blank entries.
func getListEnv(key, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parsePrefixes accepts bare IPs and CIDR ranges.
func parsePrefixes(entries []string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, e := range entries {
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

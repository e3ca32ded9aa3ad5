package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/sales-dashboard-api/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	DataWarehouse DataWarehouseConfig
	Zoho          ZohoConfig
	Source        SourceConfig
	Storage       StorageConfig
	Fiscal        FiscalConfig
	Quotas        QuotasConfig
	Refresh       RefreshConfig
	Secrets       SecretsConfig
	Auth          AuthConfig
	Logging       LoggingConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name        string `validate:"required"`
	Environment string `validate:"oneof=development staging production test"`
	Port        int    `validate:"min=1,max=65535"`
}

type DatabaseConfig struct {
	// Driver selects the gorm dialector: "postgres" or "sqlite"
	Driver          string `validate:"oneof=postgres sqlite"`
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// DataWarehouseConfig holds configuration for the MS SQL Server data warehouse.
// This connection is optional and read-only.
type DataWarehouseConfig struct {
	// Enabled controls whether the data warehouse connection is attempted
	Enabled bool
	// URL is the connection URL in format host:port/database (from WAREHOUSE-URL secret)
	URL string
	// User is the database username (from WAREHOUSE-USERNAME secret)
	User string
	// Password is the database password (from WAREHOUSE-PASSWORD secret)
	Password string
	// DealTable is the fully qualified table or view the deals are read from
	DealTable       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	// QueryTimeout is the default timeout for queries (seconds)
	QueryTimeout int
}

// ZohoConfig holds the Zoho CRM OAuth client and paging settings
type ZohoConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccountsURL  string `validate:"omitempty,url"`
	APIDomain    string `validate:"omitempty,url"`
	Module       string
	PageSize     int `validate:"min=1,max=200"`
	// Timeout is the per-request timeout (seconds)
	Timeout    int
	MaxRetries int `validate:"min=0"`
}

// SourceConfig selects where the dashboard reads deal snapshots from
type SourceConfig struct {
	// Mode is one of "file", "database", "datawarehouse" or "zoho"
	Mode        string `validate:"oneof=file database datawarehouse zoho"`
	SnapshotKey string `validate:"required"`
}

type StorageConfig struct {
	Mode                  string `validate:"oneof=local azure"`
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

// FiscalConfig holds the first month of the fiscal year (1-12)
type FiscalConfig struct {
	StartMonth int `validate:"min=1,max=12"`
}

// QuotasConfig points at an optional YAML file of per-region quotas
type QuotasConfig struct {
	SeedFile string
}

// RefreshConfig controls the scheduled snapshot refresh
type RefreshConfig struct {
	Enabled bool
	// Cron is a six-field cron expression (with seconds)
	Cron string
	// Timeout bounds a single refresh run (seconds)
	Timeout              int
	ArchiveRetentionDays int `validate:"min=0"`
	// MaxAge triggers a refresh at startup when the latest snapshot is older (hours)
	MaxAge int `validate:"min=0"`
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string `validate:"oneof=environment vault auto"`
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

// AuthConfig holds the credentials accepted by the API.
// Requests are authorized with either the API key or an HS256 JWT.
type AuthConfig struct {
	Required  bool
	APIKey    string
	JWTSecret string
	JWTIssuer string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration. Methods and headers follow the
// routes the API serves and are not configurable.
type CORSConfig struct {
	// AllowedOrigins lists the dashboard frontends; "*" allows any origin
	AllowedOrigins []string
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge int
	// APIPrefix marks responses that carry dashboard data; they are never cached
	APIPrefix string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the limit per client IP
	RequestsPerMinute int
	// WhitelistIPs is a list of IPs that bypass rate limiting
	WhitelistIPs []string
	// WhitelistPaths is a list of paths that bypass rate limiting (e.g., /health)
	WhitelistPaths []string
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DataWarehouseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (d *DataWarehouseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(d.QueryTimeout) * time.Second
}

// TimeoutDuration returns the Zoho request timeout as duration
func (z *ZohoConfig) TimeoutDuration() time.Duration {
	return time.Duration(z.Timeout) * time.Second
}

// TimeoutDuration returns the refresh run timeout as duration
func (r *RefreshConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// MaxAgeDuration returns the snapshot max age as duration
func (r *RefreshConfig) MaxAgeDuration() time.Duration {
	return time.Duration(r.MaxAge) * time.Hour
}

// ArchiveRetention returns how long archived snapshots are kept
func (r *RefreshConfig) ArchiveRetention() time.Duration {
	return time.Duration(r.ArchiveRetentionDays) * 24 * time.Hour
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// Validate checks the loaded configuration for values the service cannot start with
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Source.Mode == "zoho" && (c.Zoho.ClientID == "" || c.Zoho.RefreshToken == "") {
		return fmt.Errorf("invalid configuration: zoho source requires clientId and refreshToken")
	}
	if c.Source.Mode == "datawarehouse" && !c.DataWarehouse.Enabled {
		return fmt.Errorf("invalid configuration: datawarehouse source requires dataWarehouse.enabled")
	}
	if c.Storage.Mode == "azure" && c.Storage.CloudConnectionString == "" {
		return fmt.Errorf("invalid configuration: azure storage requires a connection string")
	}
	return nil
}

// Load loads configuration from file and environment variables.
// Use LoadWithSecrets for full secret resolution.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.APIKey == "" {
		cfg.Auth.APIKey = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Zoho.ClientID == "" {
		cfg.Zoho.ClientID = v.GetString("ZOHO_CLIENT_ID")
	}
	if cfg.Zoho.ClientSecret == "" {
		cfg.Zoho.ClientSecret = v.GetString("ZOHO_CLIENT_SECRET")
	}
	if cfg.Zoho.RefreshToken == "" {
		cfg.Zoho.RefreshToken = v.GetString("ZOHO_REFRESH_TOKEN")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if v.GetBool("DATAWAREHOUSE_ENABLED") {
		cfg.DataWarehouse.Enabled = true
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
//
// Key Vault is used when USE_AZURE_KEY_VAULT=true and the environment is
// staging or production. Data warehouse credentials are always read from
// Key Vault when the warehouse is enabled and a vault name is configured.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if cfg.DataWarehouse.Enabled && cfg.Secrets.KeyVaultName != "" {
		if err := loadDataWarehouseSecrets(ctx, cfg, logger); err != nil {
			logger.Warn("Failed to load data warehouse secrets from Key Vault",
				zap.Error(err),
				zap.String("environment", cfg.App.Environment),
			)
		}
	}

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	applySecrets(ctx, cfg, provider)

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// SecretResolver is the part of the secrets provider used to fill in credentials
type SecretResolver interface {
	GetSecretOrEnv(ctx context.Context, secretName, envVar string) (string, error)
}

// applySecrets overwrites credentials with values from the resolver when present.
// Secrets that cannot be resolved keep their configured value.
func applySecrets(ctx context.Context, cfg *Config, resolver SecretResolver) {
	targets := []struct {
		secret string
		env    string
		dst    *string
	}{
		{"POSTGRES-MAIN-HOST", "DATABASE_HOST", &cfg.Database.Host},
		{"POSTGRES-MAIN-USER", "DATABASE_USER", &cfg.Database.User},
		{"POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD", &cfg.Database.Password},
		{"zoho-client-id", "ZOHO_CLIENT_ID", &cfg.Zoho.ClientID},
		{"zoho-client-secret", "ZOHO_CLIENT_SECRET", &cfg.Zoho.ClientSecret},
		{"zoho-refresh-token", "ZOHO_REFRESH_TOKEN", &cfg.Zoho.RefreshToken},
		{"admin-api-key", "ADMIN_API_KEY", &cfg.Auth.APIKey},
		{"jwt-secret", "JWT_SECRET", &cfg.Auth.JWTSecret},
		{"storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING", &cfg.Storage.CloudConnectionString},
	}

	for _, t := range targets {
		if value, err := resolver.GetSecretOrEnv(ctx, t.secret, t.env); err == nil && value != "" {
			*t.dst = value
		}
	}

	if defaultDB := os.Getenv("DEFAULT_DATABASE"); defaultDB != "" {
		cfg.Database.Name = defaultDB
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}
}

// loadDataWarehouseSecrets loads data warehouse credentials from Azure Key Vault.
// Data warehouse credentials never come from environment variables.
func loadDataWarehouseSecrets(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	logger.Info("Loading data warehouse secrets from Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client for data warehouse: %w", err)
	}

	url, err := provider.GetSecret(ctx, "WAREHOUSE-URL")
	if err != nil {
		return fmt.Errorf("failed to get WAREHOUSE-URL from Key Vault: %w", err)
	}
	cfg.DataWarehouse.URL = url

	user, err := provider.GetSecret(ctx, "WAREHOUSE-USERNAME")
	if err != nil {
		return fmt.Errorf("failed to get WAREHOUSE-USERNAME from Key Vault: %w", err)
	}
	cfg.DataWarehouse.User = user

	password, err := provider.GetSecret(ctx, "WAREHOUSE-PASSWORD")
	if err != nil {
		return fmt.Errorf("failed to get WAREHOUSE-PASSWORD from Key Vault: %w", err)
	}
	cfg.DataWarehouse.Password = password

	logger.Info("Data warehouse credentials loaded from Key Vault successfully")
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Sales Dashboard API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "sales_dashboard")
	v.SetDefault("database.user", "dashboard_user")
	v.SetDefault("database.password", "dashboard_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.sqlitePath", "./data/sales-dashboard.db")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	v.SetDefault("dataWarehouse.enabled", false)
	v.SetDefault("dataWarehouse.dealTable", "dbo.CrmDeals")
	v.SetDefault("dataWarehouse.maxOpenConns", 10)
	v.SetDefault("dataWarehouse.maxIdleConns", 2)
	v.SetDefault("dataWarehouse.connMaxLifetime", 300)
	v.SetDefault("dataWarehouse.queryTimeout", 30)

	v.SetDefault("zoho.accountsUrl", "https://accounts.zoho.com")
	v.SetDefault("zoho.apiDomain", "https://www.zohoapis.com")
	v.SetDefault("zoho.module", "Deals")
	v.SetDefault("zoho.pageSize", 200)
	v.SetDefault("zoho.timeout", 30)
	v.SetDefault("zoho.maxRetries", 3)

	v.SetDefault("source.mode", "file")
	v.SetDefault("source.snapshotKey", "current-data.json")

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "deal-snapshots")

	v.SetDefault("fiscal.startMonth", 4)

	v.SetDefault("quotas.seedFile", "")

	// Every 30 minutes, matching the dashboard refresh interval
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.cron", "0 */30 * * * *")
	v.SetDefault("refresh.timeout", 300)
	v.SetDefault("refresh.archiveRetentionDays", 30)
	v.SetDefault("refresh.maxAge", 24)

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("auth.required", false)
	v.SetDefault("auth.jwtIssuer", "sales-dashboard")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.apiPrefix", "/api/")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready", "/metrics"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Notification transports.
const (
	TransportAuto       = "auto"
	TransportRedis      = "redis"
	TransportServiceBus = "servicebus"
	TransportNone       = "none"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	Mongo         MongoConfig
	ServiceBus    ServiceBusConfig
	Notifications NotificationsConfig
	Audit         AuditConfig
	Storage       StorageConfig
	KeyVault      KeyVaultConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	RateLimit     RateLimitConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	QueryTimeout   time.Duration
	MigrateOnStart bool
	ConnectRetries int
	RetryDelay     time.Duration
}

// RedisConfig is considered absent when Host is empty.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis endpoint was configured.
func (c RedisConfig) Enabled() bool { return c.Host != "" }

// MongoConfig holds the audit document store settings.
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// Enabled reports whether the audit document store was configured.
func (c MongoConfig) Enabled() bool { return c.URI != "" }

type ServiceBusConfig struct {
	ConnectionString string
}

// Enabled reports whether a Service Bus namespace was configured.
func (c ServiceBusConfig) Enabled() bool { return c.ConnectionString != "" }

// NotificationsConfig controls the notification dispatcher and consumer.
type NotificationsConfig struct {
	Transport        string
	QueueName        string
	DefaultRecipient string
	PublishTimeout   time.Duration
	DeliveryTTL      time.Duration
	ClaimHold        time.Duration
	ConsumerWait     time.Duration
}

// AuditConfig tunes the asynchronous audit writer.
type AuditConfig struct {
	Async        bool
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	WriteTimeout time.Duration
}

// StorageConfig selects and configures the image blob backend.
type StorageConfig struct {
	Backend          string
	LocalDir         string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	UploadTimeout    time.Duration
	ImageMaxBytes    int64
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	GCSBucket        string
	GCSCredentials   string
}

// KeyVaultConfig maps configuration fields onto secret names in the vault.
type KeyVaultConfig struct {
	URL         string
	Timeout     time.Duration
	SecretNames map[string]string
}

type JWTConfig struct {
	Secret string
	// RequireForWrites rejects mutating requests without a valid token.
	RequireForWrites bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig throttles mutating routes per client IP when Redis is present.
type RateLimitConfig struct {
	Enabled   bool
	PerMinute int
}

// Secret identifiers understood by KeyVaultConfig.SecretNames.
const (
	SecretDatabasePassword     = "database-password"
	SecretRedisPassword        = "redis-password"
	SecretMongoURI             = "mongo-uri"
	SecretServiceBusConnection = "servicebus-connection"
	SecretStorageAccountKey    = "storage-account-key"
	SecretJWT                  = "jwt-secret"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		QueryTimeout:   parseDuration(v.GetString("DB_QUERY_TIMEOUT"), 5*time.Second),
		MigrateOnStart: v.GetBool("DB_MIGRATE_ON_START"),
		ConnectRetries: v.GetInt("DB_CONNECT_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("DB_CONNECT_RETRY_DELAY"), 3*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Mongo = MongoConfig{
		URI:            v.GetString("MONGO_URI"),
		Database:       v.GetString("MONGO_DATABASE"),
		Collection:     v.GetString("MONGO_AUDIT_COLLECTION"),
		ConnectTimeout: parseDuration(v.GetString("MONGO_CONNECT_TIMEOUT"), 10*time.Second),
	}

	cfg.ServiceBus = ServiceBusConfig{
		ConnectionString: v.GetString("SERVICEBUS_CONNECTION_STRING"),
	}

	cfg.Notifications = NotificationsConfig{
		Transport:        strings.ToLower(v.GetString("NOTIFY_TRANSPORT")),
		QueueName:        v.GetString("NOTIFY_QUEUE_NAME"),
		DefaultRecipient: v.GetString("NOTIFY_DEFAULT_RECIPIENT"),
		PublishTimeout:   parseDuration(v.GetString("NOTIFY_PUBLISH_TIMEOUT"), 3*time.Second),
		DeliveryTTL:      parseDuration(v.GetString("NOTIFY_DELIVERY_TTL"), 72*time.Hour),
		ClaimHold:        parseDuration(v.GetString("NOTIFY_CLAIM_HOLD"), 5*time.Minute),
		ConsumerWait:     parseDuration(v.GetString("NOTIFY_CONSUMER_WAIT"), 5*time.Second),
	}

	cfg.Audit = AuditConfig{
		Async:        v.GetBool("AUDIT_ASYNC"),
		Workers:      v.GetInt("AUDIT_WORKERS"),
		BufferSize:   v.GetInt("AUDIT_BUFFER_SIZE"),
		MaxRetries:   v.GetInt("AUDIT_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("AUDIT_RETRY_DELAY"), 2*time.Second),
		WriteTimeout: parseDuration(v.GetString("AUDIT_WRITE_TIMEOUT"), 3*time.Second),
	}

	imageMax := v.GetInt64("IMAGE_MAX_BYTES")
	if imageMax <= 0 {
		imageMax = 5 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Backend:          strings.ToLower(v.GetString("STORAGE_BACKEND")),
		LocalDir:         v.GetString("STORAGE_LOCAL_DIR"),
		SignedURLSecret:  v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), time.Hour),
		UploadTimeout:    parseDuration(v.GetString("STORAGE_UPLOAD_TIMEOUT"), 30*time.Second),
		ImageMaxBytes:    imageMax,
		AzureAccountName: v.GetString("AZURE_STORAGE_ACCOUNT_NAME"),
		AzureAccountKey:  v.GetString("AZURE_STORAGE_ACCOUNT_KEY"),
		AzureContainer:   v.GetString("AZURE_STORAGE_CONTAINER"),
		S3Bucket:         v.GetString("S3_BUCKET"),
		S3Region:         v.GetString("S3_REGION"),
		S3Endpoint:       v.GetString("S3_ENDPOINT"),
		S3AccessKey:      v.GetString("S3_ACCESS_KEY_ID"),
		S3SecretKey:      v.GetString("S3_SECRET_ACCESS_KEY"),
		GCSBucket:        v.GetString("GCS_BUCKET"),
		GCSCredentials:   v.GetString("GCS_CREDENTIALS_FILE"),
	}

	cfg.KeyVault = KeyVaultConfig{
		URL:     v.GetString("KEY_VAULT_URL"),
		Timeout: parseDuration(v.GetString("KEY_VAULT_TIMEOUT"), 10*time.Second),
		SecretNames: map[string]string{
			SecretDatabasePassword:     v.GetString("KV_SECRET_DB_PASSWORD"),
			SecretRedisPassword:        v.GetString("KV_SECRET_REDIS_PASSWORD"),
			SecretMongoURI:             v.GetString("KV_SECRET_MONGO_URI"),
			SecretServiceBusConnection: v.GetString("KV_SECRET_SERVICEBUS_CONNECTION"),
			SecretStorageAccountKey:    v.GetString("KV_SECRET_STORAGE_ACCOUNT_KEY"),
			SecretJWT:                  v.GetString("KV_SECRET_JWT"),
		},
	}

	cfg.JWT = JWTConfig{
		Secret:           v.GetString("JWT_SECRET"),
		RequireForWrites: v.GetBool("JWT_REQUIRE_FOR_WRITES"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:   v.GetBool("RATE_LIMIT_ENABLED"),
		PerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
	}

	return cfg, nil
}

// ResolveTransport picks the notification transport. "auto" prefers Service
// Bus, then Redis, then none.
func (c *Config) ResolveTransport() string {
	switch c.Notifications.Transport {
	case TransportRedis, TransportServiceBus, TransportNone:
		return c.Notifications.Transport
	}
	if c.ServiceBus.Enabled() {
		return TransportServiceBus
	}
	if c.Redis.Enabled() {
		return TransportRedis
	}
	return TransportNone
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "registration")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_QUERY_TIMEOUT", "5s")
	v.SetDefault("DB_MIGRATE_ON_START", true)
	v.SetDefault("DB_CONNECT_RETRIES", 10)
	v.SetDefault("DB_CONNECT_RETRY_DELAY", "3s")

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "registration")
	v.SetDefault("MONGO_AUDIT_COLLECTION", "audit_logs")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")

	v.SetDefault("SERVICEBUS_CONNECTION_STRING", "")

	v.SetDefault("NOTIFY_TRANSPORT", TransportAuto)
	v.SetDefault("NOTIFY_QUEUE_NAME", "email-notifications-queue")
	v.SetDefault("NOTIFY_DEFAULT_RECIPIENT", "admin@example.com")
	v.SetDefault("NOTIFY_PUBLISH_TIMEOUT", "3s")
	v.SetDefault("NOTIFY_DELIVERY_TTL", "72h")
	v.SetDefault("NOTIFY_CLAIM_HOLD", "5m")
	v.SetDefault("NOTIFY_CONSUMER_WAIT", "5s")

	v.SetDefault("AUDIT_ASYNC", true)
	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_BUFFER_SIZE", 256)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)
	v.SetDefault("AUDIT_RETRY_DELAY", "2s")
	v.SetDefault("AUDIT_WRITE_TIMEOUT", "3s")

	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("STORAGE_LOCAL_DIR", "./uploads")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "1h")
	v.SetDefault("STORAGE_UPLOAD_TIMEOUT", "30s")
	v.SetDefault("IMAGE_MAX_BYTES", 5*1024*1024)
	v.SetDefault("AZURE_STORAGE_CONTAINER", "item-images")
	v.SetDefault("S3_REGION", "us-east-1")

	v.SetDefault("KEY_VAULT_URL", "")
	v.SetDefault("KEY_VAULT_TIMEOUT", "10s")
	v.SetDefault("KV_SECRET_DB_PASSWORD", "")
	v.SetDefault("KV_SECRET_REDIS_PASSWORD", "")
	v.SetDefault("KV_SECRET_MONGO_URI", "")
	v.SetDefault("KV_SECRET_SERVICEBUS_CONNECTION", "")
	v.SetDefault("KV_SECRET_STORAGE_ACCOUNT_KEY", "")
	v.SetDefault("KV_SECRET_JWT", "")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_REQUIRE_FOR_WRITES", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

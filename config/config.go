package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Elastic   ElasticsearchConfig
	Checkout  CheckoutConfig
	Payment   PaymentConfig
	Blob      BlobConfig
	Worker    WorkerConfig
	Scheduler SchedulerConfig
	I18n      I18nConfig
}

type ServerConfig struct {
	AppEnv       string
	HTTPPort     string
	GRPCPort     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
	FileEnable        bool
	Filename          string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers      []string
	OrderTopic   string
	PaymentTopic string
	GroupID      string
	EnableEvents bool
	EnableListen bool
}

type ElasticsearchConfig struct {
	Enabled   bool
	Addresses []string
	Username  string
	Password  string
}

type ShippingOption struct {
	Code string
	Name string
	Cost decimal.Decimal
}

type CheckoutConfig struct {
	TaxRate         decimal.Decimal
	ShippingOptions []ShippingOption
	LockTTL         time.Duration
	MaxAttempts     int
}

type PaymentConfig struct {
	Provider          string // sandbox | gateway
	GatewayURL        string
	GatewaySecretKey  string
	Timeout           time.Duration
	AllowUnknownCards bool
}

type BlobConfig struct {
	Driver       string // local | sftp
	LocalDir     string
	PublicURL    string
	SFTPAddr     string
	SFTPUser     string
	SFTPPassword string
	SFTPRoot     string
	SFTPHostKey  string
}

type WorkerConfig struct {
	PoolSize int
}

type SchedulerConfig struct {
	LowStockSpec      string
	MovementRetention string
	LowStockThreshold int
}

type I18nConfig struct {
	Dir string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:       getEnv("APP_ENV", "dev"),
			HTTPPort:     getEnv("HTTP_PORT", ":8080"),
			GRPCPort:     getEnv("GRPC_PORT", ":8082"),
			ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
			FileEnable:        getEnvBool("LOGGER_FILE_ENABLE", false),
			Filename:          getEnv("LOGGER_FILENAME", "logs/storefront.log"),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_storefront"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "your-secret-key-change-this-in-prod"),
			TTL:       getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrderTopic:   getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			PaymentTopic: getEnv("KAFKA_TOPIC_PAYMENTS", "payments.events"),
			GroupID:      getEnv("KAFKA_GROUP_STOREFRONT", "storefront"),
			EnableEvents: getEnvBool("KAFKA_ENABLE_EVENTS", true),
			EnableListen: getEnvBool("KAFKA_ENABLE_LISTENER", true),
		},
		Elastic: ElasticsearchConfig{
			Enabled:   getEnvBool("ELASTICSEARCH_ENABLED", true),
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Checkout: CheckoutConfig{
			TaxRate:         getEnvDecimal("CHECKOUT_TAX_RATE", decimal.RequireFromString("0.08")),
			ShippingOptions: []ShippingOption{
				{Code: "standard", Name: "Standard Shipping", Cost: getEnvDecimal("SHIPPING_STANDARD_COST", decimal.RequireFromString("4.99"))},
				{Code: "express", Name: "Express Shipping", Cost: getEnvDecimal("SHIPPING_EXPRESS_COST", decimal.RequireFromString("12.99"))},
			},
			LockTTL:     getEnvDuration("CHECKOUT_LOCK_TTL", 30*time.Second),
			MaxAttempts: getEnvInt("CHECKOUT_MAX_ATTEMPTS", 3),
		},
		Payment: PaymentConfig{
			Provider:          getEnv("PAYMENT_PROVIDER", "sandbox"),
			GatewayURL:        getEnv("PAYMENT_GATEWAY_URL", ""),
			GatewaySecretKey:  getEnv("PAYMENT_GATEWAY_SECRET_KEY", ""),
			Timeout:           getEnvDuration("PAYMENT_TIMEOUT", 20*time.Second),
			AllowUnknownCards: getEnvBool("PAYMENT_SANDBOX_ALLOW_UNKNOWN", false),
		},
		Blob: BlobConfig{
			Driver:       getEnv("BLOB_DRIVER", "local"),
			LocalDir:     getEnv("BLOB_LOCAL_DIR", "uploads"),
			PublicURL:    getEnv("BLOB_PUBLIC_URL", "http://localhost:8080/uploads"),
			SFTPAddr:     getEnv("BLOB_SFTP_ADDR", ""),
			SFTPUser:     getEnv("BLOB_SFTP_USER", ""),
			SFTPPassword: getEnv("BLOB_SFTP_PASSWORD", ""),
			SFTPRoot:     getEnv("BLOB_SFTP_ROOT", "/var/www/static"),
			SFTPHostKey:  getEnv("BLOB_SFTP_HOST_KEY", ""),
		},
		Worker: WorkerConfig{
			PoolSize: getEnvInt("WORKER_POOL_SIZE", 32),
		},
		Scheduler: SchedulerConfig{
			LowStockSpec:      getEnv("SCHED_LOW_STOCK", "@every 1h"),
			MovementRetention: getEnv("SCHED_MOVEMENT_RETENTION", "@daily"),
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		},
		I18n: I18nConfig{
			Dir: getEnv("I18N_DIR", ""),
		},
	}
}

func (c CheckoutConfig) Shipping(code string) (ShippingOption, bool) {
	if code == "" && len(c.ShippingOptions) > 0 {
		return c.ShippingOptions[0], true
	}
	for _, o := range c.ShippingOptions {
		if o.Code == code {
			return o, true
		}
	}
	return ShippingOption{}, false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Tables  TablesConfig  `mapstructure:"tables"`
	Queues  QueuesConfig  `mapstructure:"queues"`
	Commit  CommitConfig  `mapstructure:"commit"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type AWSConfig struct {
	Region           string `mapstructure:"region"`
	EndpointOverride string `mapstructure:"endpoint_override"`
}

type TablesConfig struct {
	Products          string `mapstructure:"products"`
	Restaurants       string `mapstructure:"restaurants"`
	Customers         string `mapstructure:"customers"`
	CustomerAddresses string `mapstructure:"customer_addresses"`
	Conversations     string `mapstructure:"conversations"`
	Orders            string `mapstructure:"orders"`
	OrderItems        string `mapstructure:"order_items"`
	Idempotency       string `mapstructure:"idempotency"`
}

type QueuesConfig struct {
	CleanupURL string `mapstructure:"cleanup_url"`
}

type CommitConfig struct {
	DuplicateWindow   time.Duration `mapstructure:"duplicate_window"`
	IdempotencyTTL    time.Duration `mapstructure:"idempotency_ttl"`
	ClaimLease        time.Duration `mapstructure:"claim_lease"`
	OrderNumberLength int           `mapstructure:"order_number_length"`
}

type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	CatalogTTL    time.Duration `mapstructure:"catalog_ttl"`
}

type AuditConfig struct {
	MongoURI   string `mapstructure:"mongo_uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")

	v.SetDefault("aws.region", "")
	v.SetDefault("aws.endpoint_override", "")

	v.SetDefault("tables.products", "products")
	v.SetDefault("tables.restaurants", "restaurants")
	v.SetDefault("tables.customers", "customers")
	v.SetDefault("tables.customer_addresses", "customer_addresses")
	v.SetDefault("tables.conversations", "conversations")
	v.SetDefault("tables.orders", "orders")
	v.SetDefault("tables.order_items", "order_items")
	v.SetDefault("tables.idempotency", "idempotency")

	v.SetDefault("queues.cleanup_url", "")

	v.SetDefault("commit.duplicate_window", 10*time.Second)
	v.SetDefault("commit.idempotency_ttl", 48*time.Hour)
	v.SetDefault("commit.claim_lease", time.Minute)
	v.SetDefault("commit.order_number_length", 8)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.catalog_ttl", time.Minute)

	v.SetDefault("audit.mongo_uri", "")
	v.SetDefault("audit.database", "pedidos")
	v.SetDefault("audit.collection", "tool_calls")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "Pedidos/OrderDraft")
}

// Load reads config.yaml (when present) and PEDIDOS_* environment variables.
// An explicit path must exist; without one the usual locations are searched and a
// missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./")
		v.AddConfigPath("./deploy/")
		v.AddConfigPath("/etc/pedidos/")
	}

	v.SetEnvPrefix("PEDIDOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Commit.OrderNumberLength <= 0 {
		return nil, fmt.Errorf("commit.order_number_length must be positive")
	}

	return &cfg, nil
}

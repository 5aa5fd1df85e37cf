package config

import (
	"time"

	"github.com/weiawesome/wes-directory/internal/card"
	"github.com/weiawesome/wes-directory/internal/carousel"
	"github.com/weiawesome/wes-directory/internal/delivery"
	"github.com/weiawesome/wes-directory/internal/handler"
	"github.com/weiawesome/wes-directory/internal/service"
	pkgconfig "github.com/weiawesome/wes-directory/pkg/config"
	"github.com/weiawesome/wes-directory/pkg/pubsub"
	"github.com/weiawesome/wes-directory/pkg/storage"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Store         StoreConfig
	Elasticsearch ElasticsearchConfig
	Redis         RedisConfig
	Search        service.Config
	Carousel      carousel.Config
	Directory     DirectoryConfig
	Channel       delivery.ChannelConfig
	Delivery      DeliveryConfig
	Kafka         pubsub.KafkaConfig
	Storage       storage.Config
	Auth          AuthConfig
	Webhook       handler.WebhookConfig
	Seed          SeedConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string `mapstructure:"time_zone"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// StoreConfig selects the entry search backend: "sql" or "elasticsearch".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	DedupePrefix string `mapstructure:"dedupe_prefix"`
}

type DirectoryConfig struct {
	ViewAllBaseURL string        `mapstructure:"view_all_base_url"`
	ShareEnabled   bool          `mapstructure:"share_enabled"`
	PhotoURLTTL    time.Duration `mapstructure:"photo_url_ttl"`
}

type DeliveryConfig struct {
	Driver      string `mapstructure:"driver"`       // "push", "queue"
	QueueDriver string `mapstructure:"queue_driver"` // "redis", "kafka"
	Topic       string `mapstructure:"topic"`
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer"`
	JWTDuration time.Duration `mapstructure:"jwt_duration"`
}

type SeedConfig struct {
	File string `mapstructure:"file"`
}

type LogConfig struct {
	Level      string            `mapstructure:"level"`
	Fields     map[string]string `mapstructure:"fields"`
	QuietPaths []string          `mapstructure:"quiet_paths"`
}

// CardConfig returns the card renderer settings.
func (c *Config) CardConfig() card.Config {
	return card.Config{
		ShareEnabled: c.Directory.ShareEnabled,
		PhotoURLTTL:  c.Directory.PhotoURLTTL,
	}
}

// CarouselConfig returns the packer limits with the view-all link applied.
func (c *Config) CarouselConfig() carousel.Config {
	cc := c.Carousel
	cc.ViewAllBaseURL = c.Directory.ViewAllBaseURL
	return cc
}

// PubSubConfig returns the publisher settings for the queue delivery driver.
func (c *Config) PubSubConfig() pubsub.Config {
	return pubsub.Config{
		Driver: c.Delivery.QueueDriver,
		Redis: pubsub.RedisConfig{
			Address:  c.Redis.Address,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			PoolSize: c.Redis.PoolSize,
		},
		Kafka: c.Kafka,
	}
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8096)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "directory")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.time_zone", "Asia/Bangkok")
	v.SetDefault("database.file_path", "./data/directory.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("store.driver", "sql")
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.index", "directory-entries")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dedupe_prefix", "directory")
	v.SetDefault("search.timeout", "3s")
	v.SetDefault("search.tag_scan_limit", 200)
	v.SetDefault("search.default_limit", 6)
	v.SetDefault("search.max_limit", 50)
	v.SetDefault("carousel.operating_cap", carousel.DefaultOperatingCap)
	v.SetDefault("carousel.hard_cap", carousel.DefaultHardCap)
	v.SetDefault("carousel.max_message_bytes", carousel.DefaultMaxMessageBytes)
	v.SetDefault("carousel.safety_margin_bytes", carousel.DefaultSafetyMarginBytes)
	v.SetDefault("carousel.text_limit", carousel.DefaultTextLimit)
	v.SetDefault("carousel.preview_count", carousel.DefaultPreviewCount)
	v.SetDefault("directory.view_all_base_url", "")
	v.SetDefault("directory.share_enabled", true)
	v.SetDefault("directory.photo_url_ttl", "1h")
	v.SetDefault("channel.api_base_url", "https://api.line.me")
	v.SetDefault("channel.timeout", "5s")
	v.SetDefault("delivery.driver", "push")
	v.SetDefault("delivery.queue_driver", "redis")
	v.SetDefault("delivery.topic", "directory-replies")
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topics", []string{"directory-replies"})
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/photos")
	v.SetDefault("storage.local.public_url", "http://localhost:8096/photos")
	v.SetDefault("auth.jwt_issuer", "wes-directory")
	v.SetDefault("auth.jwt_duration", "24h")
	v.SetDefault("webhook.event_timeout", "10s")
	v.SetDefault("webhook.dedupe_ttl", "10m")
	v.SetDefault("webhook.max_body_bytes", 1<<20)
	v.SetDefault("seed.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.quiet_paths", []string{"/health"})

	// Bind environment variables
	err = pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                  "PORT",
		"database.driver":              "DB_DRIVER",
		"database.host":                "DB_HOST",
		"database.port":                "DB_PORT",
		"database.user":                "DB_USER",
		"database.password":            "DB_PASSWORD",
		"database.dbname":              "DB_NAME",
		"database.sslmode":             "DB_SSLMODE",
		"database.file_path":           "DB_FILE_PATH",
		"store.driver":                 "STORE_DRIVER",
		"elasticsearch.addresses":      "ES_ADDRESSES",
		"elasticsearch.index":          "ES_INDEX",
		"redis.address":                "REDIS_ADDRESS",
		"redis.password":               "REDIS_PASSWORD",
		"directory.view_all_base_url":  "VIEW_ALL_BASE_URL",
		"channel.access_token":         "CHANNEL_ACCESS_TOKEN",
		"channel.channel_secret":       "CHANNEL_SECRET",
		"webhook.channel_secret":       "CHANNEL_SECRET",
		"delivery.driver":              "DELIVERY_DRIVER",
		"delivery.queue_driver":        "DELIVERY_QUEUE_DRIVER",
		"kafka.brokers":                "KAFKA_BROKERS",
		"storage.driver":               "STORAGE_DRIVER",
		"storage.s3.endpoint":          "S3_ENDPOINT",
		"storage.s3.bucket":            "S3_BUCKET",
		"storage.s3.access_key_id":     "S3_ACCESS_KEY_ID",
		"storage.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
		"auth.jwt_secret":              "JWT_SECRET",
		"seed.file":                    "SEED_FILE",
		"log.level":                    "LOG_LEVEL",
	})
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	PubSub        PubSubConfig        `mapstructure:"pubsub"`
	Webhook       WebhookConfig       `mapstructure:"webhook"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Gemini        GeminiConfig        `mapstructure:"gemini"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Dedup    struct {
		Prefix string        `mapstructure:"prefix"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"dedup"`
}

type PubSubConfig struct {
	ProjectID      string        `mapstructure:"project_id"`
	TopicID        string        `mapstructure:"topic_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type WebhookConfig struct {
	// Secret signs inbound ServiceNow payloads (HMAC-SHA256).
	Secret string `mapstructure:"secret"`
}

type EngineConfig struct {
	SimilarityTopK  int     `mapstructure:"similarity_top_k"`
	SimilarityFloor float64 `mapstructure:"similarity_floor"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type NotificationsConfig struct {
	Webhook struct {
		Enabled       bool          `mapstructure:"enabled"`
		Endpoint      string        `mapstructure:"endpoint"`
		Secret        string        `mapstructure:"secret"`
		Timeout       time.Duration `mapstructure:"timeout"`
		RetryAttempts int           `mapstructure:"retry_attempts"`
	} `mapstructure:"webhook"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load initializes the configuration with hot reload support
func Load(configPath string) error {
	var err error
	once.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")

		setDefaults(v)

		v.SetConfigName("default")
		v.AddConfigPath(configPath)
		if err = v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read default config: %w", err)
				return
			}
			err = nil
		}

		// Environment-specific overlay (optional)
		v.SetConfigName("config")
		if err = v.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to merge config: %w", err)
				return
			}
			err = nil
		}

		v.SetEnvPrefix("TICKETWISE")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		bindOperationalEnv(v)

		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
		if err = cfg.Validate(); err != nil {
			err = fmt.Errorf("invalid configuration: %w", err)
			return
		}

		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			mu.Lock()
			defer mu.Unlock()

			newCfg := &Config{}
			if err := v.Unmarshal(newCfg); err != nil {
				fmt.Printf("Failed to reload config: %v\n", err)
				return
			}
			if err := newCfg.Validate(); err != nil {
				fmt.Printf("Rejected config reload: %v\n", err)
				return
			}
			cfg = newCfg
		})
	})

	return err
}

// bindOperationalEnv maps the deployment environment contract onto config
// keys. These names are fixed by the platform and carry no prefix.
func bindOperationalEnv(v *viper.Viper) {
	v.BindEnv("webhook.secret", "SERVICENOW_WEBHOOK_SECRET")
	v.BindEnv("pubsub.project_id", "GCP_PROJECT_ID")
	v.BindEnv("pubsub.topic_id", "PUBSUB_TOPIC_ID")
	v.BindEnv("pubsub.max_retries", "MAX_RETRIES")
	v.BindEnv("pubsub.publish_timeout", "PUBLISH_TIMEOUT")
	v.BindEnv("app.env", "ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ticketwise")
	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.dedup.prefix", "snow:webhook:")
	v.SetDefault("redis.dedup.ttl", 24*time.Hour)
	v.SetDefault("pubsub.max_retries", 3)
	v.SetDefault("pubsub.publish_timeout", 10*time.Second)
	v.SetDefault("engine.similarity_top_k", 5)
	v.SetDefault("engine.similarity_floor", 0.5)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.embedding_model", "text-embedding-004")
	v.SetDefault("notifications.webhook.timeout", 10*time.Second)
	v.SetDefault("notifications.webhook.retry_attempts", 3)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate enforces the deployment contract before the config is served.
func (c *Config) Validate() error {
	if c.Webhook.Secret != "" && len(c.Webhook.Secret) < 16 {
		return fmt.Errorf("webhook secret must be at least 16 characters, got %d", len(c.Webhook.Secret))
	}
	if c.PubSub.MaxRetries < 0 || c.PubSub.MaxRetries > 10 {
		return fmt.Errorf("pubsub max_retries must be in [0,10], got %d", c.PubSub.MaxRetries)
	}
	if c.PubSub.PublishTimeout <= 0 {
		return fmt.Errorf("pubsub publish_timeout must be positive, got %s", c.PubSub.PublishTimeout)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	return nil
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadFromFile loads configuration from a specific file (useful for testing)
func LoadFromFile(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg.Validate()
}

// MustLoad loads configuration and panics on error
func MustLoad(configPath string) {
	if err := Load(configPath); err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetRedisAddr returns the Redis server address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetServerAddr returns the server listen address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true if running in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

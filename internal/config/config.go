package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Env                 string `mapstructure:"env"`
	Port                int    `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds"`
	LogFile             string `mapstructure:"log_file"`
}

type MongoCfg struct {
	URI                   string `mapstructure:"uri"`
	Database              string `mapstructure:"database"`
	UsersCollection       string `mapstructure:"users_collection"`
	GroupsCollection      string `mapstructure:"groups_collection"`
	CredentialsCollection string `mapstructure:"credentials_collection"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type JwtCfg struct {
	Secret           string `mapstructure:"secret"`
	Issuer           string `mapstructure:"issuer"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
}

type AuthCfg struct {
	BcryptCost             int     `mapstructure:"bcrypt_cost"`
	PasswordMinEntropyBits float64 `mapstructure:"password_min_entropy_bits"`
}

type KafkaCfg struct {
	Brokers           []string `mapstructure:"brokers"`
	MessageSentTopic  string   `mapstructure:"message_sent_topic"`
	GroupCreatedTopic string   `mapstructure:"group_created_topic"`
}

type RateLimitCfg struct {
	Requests      int `mapstructure:"requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type GroupsCfg struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
}

type ClientCfg struct {
	SessionPath string `mapstructure:"session_path"`
	TimeZone    string `mapstructure:"time_zone"`
}

type Config struct {
	App       AppCfg       `mapstructure:"app"`
	Mongo     MongoCfg     `mapstructure:"mongo"`
	Redis     RedisCfg     `mapstructure:"redis"`
	JWT       JwtCfg       `mapstructure:"jwt"`
	Auth      AuthCfg      `mapstructure:"auth"`
	Kafka     KafkaCfg     `mapstructure:"kafka"`
	RateLimit RateLimitCfg `mapstructure:"rate_limit"`
	Groups    GroupsCfg    `mapstructure:"groups"`
	Client    ClientCfg    `mapstructure:"client"`

	// Derived
	ReadTimeout  time.Duration `mapstructure:"-"`
	WriteTimeout time.Duration `mapstructure:"-"`
	IdleTimeout  time.Duration `mapstructure:"-"`
	AccessTTL    time.Duration `mapstructure:"-"`
	RateWindow   time.Duration `mapstructure:"-"`
	PollInterval time.Duration `mapstructure:"-"`
	Location     *time.Location `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.read_timeout_seconds", 15)
	v.SetDefault("app.write_timeout_seconds", 15)
	v.SetDefault("app.idle_timeout_seconds", 60)
	v.SetDefault("app.log_file", "")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "snip")
	v.SetDefault("mongo.users_collection", "users")
	v.SetDefault("mongo.groups_collection", "groups")
	v.SetDefault("mongo.credentials_collection", "credentials")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "snip")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "snip")
	v.SetDefault("jwt.access_ttl_minutes", 60*24*7)

	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.password_min_entropy_bits", 28)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.message_sent_topic", "message.sent")
	v.SetDefault("kafka.group_created_topic", "group.created")

	v.SetDefault("rate_limit.requests", 20)
	v.SetDefault("rate_limit.window_seconds", 60)

	v.SetDefault("groups.poll_interval_seconds", 3)

	v.SetDefault("client.session_path", "")
	v.SetDefault("client.time_zone", "Local")
}

// Load reads path (optional when empty or missing) and applies SNIP_*
// environment overrides, e.g. SNIP_MONGO_URI or SNIP_JWT_SECRET.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SNIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("failed to read config file: %w", err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	if err := cfg.derive(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) derive() error {
	if c.Mongo.URI == "" {
		return errors.New("mongo.uri is required (SNIP_MONGO_URI)")
	}
	if c.Mongo.Database == "" {
		return errors.New("mongo.database is required (SNIP_MONGO_DATABASE)")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required (SNIP_REDIS_ADDR)")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (SNIP_JWT_SECRET)")
	}
	if c.JWT.AccessTTLMinutes <= 0 {
		return fmt.Errorf("jwt.access_ttl_minutes must be positive, got %d", c.JWT.AccessTTLMinutes)
	}

	c.ReadTimeout = time.Duration(c.App.ReadTimeoutSeconds) * time.Second
	c.WriteTimeout = time.Duration(c.App.WriteTimeoutSeconds) * time.Second
	c.IdleTimeout = time.Duration(c.App.IdleTimeoutSeconds) * time.Second
	c.AccessTTL = time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
	c.RateWindow = time.Duration(c.RateLimit.WindowSeconds) * time.Second
	c.PollInterval = time.Duration(c.Groups.PollIntervalSeconds) * time.Second
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}

	loc, err := time.LoadLocation(c.Client.TimeZone)
	if err != nil {
		return fmt.Errorf("client.time_zone %q: %w", c.Client.TimeZone, err)
	}
	c.Location = loc

	if c.Client.SessionPath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.Client.SessionPath = filepath.Join(dir, "snip", "session.json")
		} else {
			c.Client.SessionPath = ".snip-session.json"
		}
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }

// KafkaEnabled is false when no brokers are configured.
func (c *Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 }

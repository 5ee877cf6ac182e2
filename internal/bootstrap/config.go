package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/infra/setup"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	DBDriver          string        `env:"DB_DRIVER,default=postgres"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBUser            string        `env:"DB_USER"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBHost            string        `env:"DB_HOST,default=localhost"`
	DBPort            string        `env:"DB_PORT"`
	DBName            string        `env:"DB_NAME,default=beerdegu"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
	DBAutoMigrate     bool          `env:"DB_AUTO_MIGRATE,default=true"`

	RedisAddr     string `env:"REDIS_ADDR,required=true"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	KeyPrefix     string `env:"REDIS_KEY_PREFIX,default=beerdegu:"`

	JWTSecret      string `env:"JWT_SECRET,required=true"`
	JWTExpiryHours int    `env:"JWT_EXPIRY_HOURS,default=24"`

	ServerPort string `env:"SERVER_PORT,default=8000"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
	AppEnv     string `env:"APP_ENV,default=development"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX,default=100"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW,default=1s"`

	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN,default=http://localhost:3000"`
	WSAllowedOrigin   string `env:"WS_ALLOWED_ORIGIN"`
	WSFanout          string `env:"WS_FANOUT,default=local"`

	MemberIdleTimeout      time.Duration `env:"MEMBER_IDLE_TIMEOUT,default=24h"`
	MemberPruneTimeout     time.Duration `env:"MEMBER_PRUNE_TIMEOUT,default=24h"`
	MemberEvictionSchedule string        `env:"MEMBER_EVICTION_SCHEDULE,default=@daily"`
}

// LoadConfig loads .env when present, then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return configFromEnviron()
}

func configFromEnviron() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RedisAddr == "" {
		return fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	c.DBDriver = strings.ToLower(c.DBDriver)
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or mysql, got %q", c.DBDriver)
	}
	c.WSFanout = strings.ToLower(c.WSFanout)
	switch c.WSFanout {
	case "local", "redis":
	default:
		return fmt.Errorf("WS_FANOUT must be local or redis, got %q", c.WSFanout)
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", c.LogLevel)
		c.LogLevel = "info"
	}
	return nil
}

// DSN returns DATABASE_URL or builds one from the discrete settings.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	port := c.DBPort
	if c.DBDriver == "mysql" {
		if port == "" {
			port = "3306"
		}
		return setup.MySQLDSN(c.DBUser, c.DBPassword, c.DBHost, port, c.DBName)
	}
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, port, c.DBUser, c.DBPassword, c.DBName)
}

// DBOptions maps the pool settings.
func (c *Config) DBOptions() setup.DBOptions {
	return setup.DBOptions{
		Driver:          c.DBDriver,
		DSN:             c.DSN(),
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
		LogQueries:      c.AppEnv != "production" && c.LogLevel == "debug",
	}
}

// WSOrigins splits WS_ALLOWED_ORIGIN on commas, falling back to the CORS origin.
func (c *Config) WSOrigins() []string {
	raw := c.WSAllowedOrigin
	if raw == "" {
		raw = c.CORSAllowedOrigin
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

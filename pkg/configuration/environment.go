package configuration

import (
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

// Use returns the process-wide configuration, loading .env files and the
// environment on first call.
func Use() *Configuration {
	return singleton()
}

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Name     string `env:"DB_NAME" envDefault:"kadro"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type RedisOptions struct {
	Enabled bool   `env:"REDIS_ENABLED" envDefault:"false"`
	URL     string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type AllocationOptions struct {
	// Separator and Digits control how full identifiers are rendered,
	// e.g. "ACME-NB-0007" for separator "-" and 4 digits.
	Separator  string `env:"ALLOCATION_SEPARATOR" envDefault:"-"`
	Digits     int    `env:"ALLOCATION_DIGITS" envDefault:"4"`
	MaxRetries int    `env:"ALLOCATION_MAX_RETRIES" envDefault:"3"`
}

type TenantScopeOptions struct {
	// CacheTTLSeconds bounds the staleness of memoized descendant sets.
	// Staleness is acceptable for advisory checks only; mutations re-verify.
	CacheTTLSeconds int `env:"TENANT_SCOPE_CACHE_TTL" envDefault:"30"`
}

type Configuration struct {
	Database    DatabaseOptions
	Redis       RedisOptions
	Prometheus  PrometheusOptions
	Allocation  AllocationOptions
	TenantScope TenantScopeOptions

	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"SOCKET_ADDRESS" envDefault:":8080"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`

	logger *logrus.Logger
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	c.logger = logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	c.logger.SetLevel(level)
	if c.GoAppEnvironment == Production {
		c.logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		c.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

package config

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env         string `env:"APP_ENV" env-default:"development"`
		Port        int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl   string `env:"SENTRY_URL"`
		CorsOrigins string `env:"CORS_ORIGINS" env-default:"http://localhost:5173,http://localhost:3000"`
		// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP
		TrustProxy bool `env:"TRUST_PROXY" env-default:"false"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Redis struct {
		Addr          string        `env:"REDIS_ADDR"`
		Password      string        `env:"REDIS_PASSWORD"`
		DB            int           `env:"REDIS_DB" env-default:"0"`
		LastResultTTL time.Duration `env:"LAST_RESULT_TTL" env-default:"1h"`
	}
	Telegram struct {
		Token string `env:"TELEGRAM_TOKEN"`
	}
	Instagram struct {
		GraphQLURL string        `env:"INSTAGRAM_GRAPHQL_URL" env-default:"https://www.instagram.com/graphql/query"`
		DocID      string        `env:"INSTAGRAM_DOC_ID" env-default:"8845758582119845"`
		AppID      string        `env:"INSTAGRAM_APP_ID" env-default:"936619743392459"`
		Timeout    time.Duration `env:"INSTAGRAM_TIMEOUT" env-default:"30s"`
	}
	LLM struct {
		Provider      string        `env:"LLM_PROVIDER" env-default:"openai"`
		OpenAIKey     string        `env:"OPENAI_API_KEY"`
		OpenAIBaseURL string        `env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
		OpenAIModel   string        `env:"OPENAI_MODEL" env-default:"gpt-3.5-turbo"`
		GeminiKey     string        `env:"GEMINI_API_KEY"`
		GeminiModel   string        `env:"GEMINI_MODEL" env-default:"gemini-2.0-flash"`
		Timeout       time.Duration `env:"LLM_TIMEOUT" env-default:"30s"`
	}
	RateLimit struct {
		PerMinute int `env:"RATE_LIMIT_PER_MINUTE" env-default:"5"`
		Burst     int `env:"RATE_LIMIT_BURST" env-default:"2"`
	}
	Audit struct {
		Retention time.Duration `env:"AUDIT_RETENTION" env-default:"720h"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

// GetDSN returns the postgres connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}

// PostgresEnabled reports whether the audit database is configured
func (c *Config) PostgresEnabled() bool {
	return c.Postgres.Host != ""
}

// Origins splits CORS_ORIGINS into a list
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.App.CorsOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

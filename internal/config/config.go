package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Fetching
	FetchTimeout          time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	FetchUserAgent        string        `envconfig:"FETCH_USER_AGENT" default:"CouncilMeetingsBot/1.0 (civic engagement tool)"`
	FetchInsecureSkipTLS  bool          `envconfig:"FETCH_INSECURE_SKIP_TLS" default:"true"`
	ClassifyTimeout       time.Duration `envconfig:"CLASSIFY_TIMEOUT" default:"20s"`

	// Bootstrap municipality, seeded on serve startup.
	MunicipalityName     string `envconfig:"MUNICIPALITY_NAME" default:"City of Guelph"`
	MunicipalitySlug     string `envconfig:"MUNICIPALITY_SLUG" default:"guelph"`
	MunicipalityTimezone string `envconfig:"MUNICIPALITY_TIMEZONE" default:"America/Toronto"`
	MunicipalityWebsite  string `envconfig:"MUNICIPALITY_WEBSITE" default:"https://guelph.ca"`
	AgendaBaseURL        string `envconfig:"AGENDA_BASE_URL" default:"https://pub-guelph.escribemeetings.com"`
	LivestreamURL        string `envconfig:"LIVESTREAM_URL" default:"https://guelph.ca/news/live/"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("COUNCIL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

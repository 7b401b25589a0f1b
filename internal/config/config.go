package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// local files
	CacheFilePath string `toml:"cache_file_path"`
	PlanFilePath  string `toml:"plan_file_path"`
	QuotesCsvPath string `toml:"quotes_csv_path"`

	// strava
	StravaBaseURL      string `toml:"strava_base_url"`
	StravaTokenURL     string `toml:"strava_token_url"`
	FetchTTLMinutes    int    `toml:"fetch_ttl_minutes"`
	ActivitiesPerPage  int    `toml:"activities_per_page"`
	MaxDetailedFetches int    `toml:"max_detailed_fetches"`

	// remote cache mirror
	GitHubOwner    string `toml:"github_owner"`
	GitHubRepo     string `toml:"github_repo"`
	GitHubBranch   string `toml:"github_branch"`
	GitHubFilePath string `toml:"github_file_path"`

	// coach
	OpenAIModel        string `toml:"openai_model"`
	CoachRecentCount   int    `toml:"coach_recent_count"`
	CoachUpcomingCount int    `toml:"coach_upcoming_count"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var configs Toml
	if _, err := toml.DecodeFile(path, &configs); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := configs.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s missing", env)
	}

	cfg.Environment = env

	return cfg, nil
}

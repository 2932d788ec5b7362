// Package config handles configuration loading and management
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "qaharness.yaml"

// Config holds the application configuration
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Report      ReportConfig      `yaml:"report"`
	Logging     LoggingConfig     `yaml:"logging"`
	API         APIConfig         `yaml:"api"`
	Web         WebConfig         `yaml:"web"`
}

// EnvironmentConfig drives EnvironmentSnapshot resolution. Name, CIVars,
// DefaultBranch and DefaultRunID are required and never defaulted.
type EnvironmentConfig struct {
	Name          string   `yaml:"name"`
	CIVars        []string `yaml:"ci_vars"`
	DefaultBranch string   `yaml:"default_branch"`
	DefaultRunID  string   `yaml:"default_run_id"`
	BranchVars    []string `yaml:"branch_vars"`
	RunIDVars     []string `yaml:"run_id_vars"`
}

// AggregationConfig configures the metrics aggregator
type AggregationConfig struct {
	UnknownSuite string `yaml:"unknown_suite"`
	APIChannel   string `yaml:"api_channel"`
}

// ReportConfig configures where artifacts are written
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// APIConfig configures the REST client used by API-lane tests
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	MaxAttempts   int           `yaml:"max_attempts"`
	BaseDelay     time.Duration `yaml:"base_delay"`
}

// WebConfig configures browser sessions for web UI tests
type WebConfig struct {
	BaseURL  string `yaml:"base_url"`
	Browser  string `yaml:"browser"`
	Headless bool   `yaml:"headless"`
}

// Load reads configuration from the YAML file at path, a .env file and
// environment variables, in increasing order of precedence.
// An empty path falls back to DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML config content on top of Defaults, without touching the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Defaults returns the optional settings. Required keys stay empty.
func Defaults() *Config {
	return &Config{
		Aggregation: AggregationConfig{
			APIChannel: "api",
		},
		Report: ReportConfig{
			OutputDir: "test-results/enterprise",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		API: APIConfig{
			Timeout:       30 * time.Second,
			RatePerSecond: 10,
			MaxAttempts:   3,
			BaseDelay:     200 * time.Millisecond,
		},
		Web: WebConfig{
			Browser:  "chromium",
			Headless: true,
		},
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	setString(lookup, "QAH_ENVIRONMENT", &c.Environment.Name)
	setString(lookup, "QAH_DEFAULT_BRANCH", &c.Environment.DefaultBranch)
	setString(lookup, "QAH_DEFAULT_RUN_ID", &c.Environment.DefaultRunID)
	setList(lookup, "QAH_CI_VARS", &c.Environment.CIVars)
	setList(lookup, "QAH_BRANCH_VARS", &c.Environment.BranchVars)
	setList(lookup, "QAH_RUN_ID_VARS", &c.Environment.RunIDVars)
	setString(lookup, "QAH_UNKNOWN_SUITE", &c.Aggregation.UnknownSuite)
	setString(lookup, "QAH_API_CHANNEL", &c.Aggregation.APIChannel)
	setString(lookup, "QAH_OUTPUT_DIR", &c.Report.OutputDir)
	setString(lookup, "QAH_LOG_LEVEL", &c.Logging.Level)
	setString(lookup, "QAH_LOG_FORMAT", &c.Logging.Format)
	setString(lookup, "QAH_LOG_FILE", &c.Logging.File)
	setString(lookup, "API_BASE_URL", &c.API.BaseURL)
	setString(lookup, "WEB_BASE_URL", &c.Web.BaseURL)
	setString(lookup, "WEB_BROWSER", &c.Web.Browser)

	if v, ok := lookup("WEB_HEADLESS"); ok && v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WEB_HEADLESS: %w", err)
		}
		c.Web.Headless = headless
	}

	if v, ok := lookup("API_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}

	return nil
}

// Validate checks the keys every command needs before a run starts.
func (c *Config) Validate() error {
	if c.Aggregation.UnknownSuite == "" {
		return &MissingKeyError{Key: "aggregation.unknown_suite"}
	}
	if c.Aggregation.APIChannel == "" {
		return &MissingKeyError{Key: "aggregation.api_channel"}
	}
	if c.Report.OutputDir == "" {
		return &MissingKeyError{Key: "report.output_dir"}
	}
	return nil
}

func setString(lookup func(string) (string, bool), key string, dst *string) {
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}

func setList(lookup func(string) (string, bool), key string, dst *[]string) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (c *Config) String() string {
	apiURL := c.API.BaseURL
	if apiURL == "" {
		apiURL = "(not set)"
	}
	webURL := c.Web.BaseURL
	if webURL == "" {
		webURL = "(not set)"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Environment:     %s
Default Branch:  %s
CI Variables:    %s
Unknown Suite:   %s
API Channel:     %s
Output Dir:      %s
Log Level:       %s
API Base URL:    %s
Web Base URL:    %s (%s)`,
		c.Environment.Name,
		c.Environment.DefaultBranch,
		strings.Join(c.Environment.CIVars, ", "),
		c.Aggregation.UnknownSuite,
		c.Aggregation.APIChannel,
		c.Report.OutputDir,
		c.Logging.Level,
		apiURL,
		webURL,
		c.Web.Browser,
	)
}

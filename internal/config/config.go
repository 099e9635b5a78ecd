package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the assessment service configuration.
type Config struct {
	Purple     PurpleConfig     `yaml:"purple"`
	Assessment AssessmentConfig `yaml:"assessment"`
	Cache      CacheConfig      `yaml:"cache"`
	Database   DatabaseConfig   `yaml:"database"`
	HTTP       HTTPConfig       `yaml:"http"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
}

// PurpleConfig locates the candidate agent under test.
type PurpleConfig struct {
	URL            string  `yaml:"url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Burst          int     `yaml:"burst"`
}

// AssessmentConfig shapes a grading run.
type AssessmentConfig struct {
	CasesFile      string   `yaml:"cases_file"`
	SymbolsCSV     string   `yaml:"symbols_csv"`
	SampleSize     int      `yaml:"sample_size"`
	TargetMonth    int      `yaml:"target_month"`
	SettlementDate string   `yaml:"settlement_date"`
	RandomSeed     *int64   `yaml:"random_seed"`
	Symbols        []string `yaml:"symbols"`
	Question       string   `yaml:"question"`
	DatasetName    string   `yaml:"dataset_name_eval"`
	DatasetGroup   string   `yaml:"dataset_group_eval"`
	MinAttempts    int      `yaml:"min_attempts"`
	Workers        int      `yaml:"workers"`
}

// CacheConfig enables the Redis answer cache when Addr is set.
type CacheConfig struct {
	Addr       string `yaml:"addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// DatabaseConfig enables run persistence when DSN is set.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// HTTPConfig controls the read-only HTTP surface.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ArtifactsConfig controls verdict artifact output.
type ArtifactsConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// Default returns configuration for grading a locally running candidate.
func Default() Config {
	return Config{
		Purple: PurpleConfig{
			URL:            "http://127.0.0.1:9010",
			TimeoutSeconds: 120,
			RequestsPerSec: 4,
			Burst:          2,
		},
		Assessment: AssessmentConfig{
			SampleSize:  10,
			MinAttempts: 3,
			Workers:     4,
		},
		Cache:     CacheConfig{TTLSeconds: 3600},
		Database:  DatabaseConfig{TimeoutSeconds: 10},
		HTTP:      HTTPConfig{Host: "127.0.0.1", Port: 8080},
		Artifacts: ArtifactsConfig{OutputDir: "out/assess"},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

// ApplyEnv layers environment overrides onto the configuration.
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid HTTP_PORT %q: %w", port, err)
		}
		c.HTTP.Port = p
	}
	return nil
}

// Validate rejects contradictory assessment settings before a run starts.
func (c Config) Validate() error {
	a := c.Assessment
	if a.SettlementDate != "" && a.TargetMonth != 0 {
		return fmt.Errorf("settlement_date and target_month are mutually exclusive")
	}
	if len(a.Symbols) > 0 && a.SymbolsCSV != "" {
		return fmt.Errorf("symbols and symbols_csv are mutually exclusive")
	}
	return nil
}

// FinraCredentials reads FINRA API credentials from the environment.
// They are forwarded to the candidate, never used by the grader itself.
func FinraCredentials() (clientID, clientSecret string) {
	return os.Getenv("FINRA_CLIENT_ID"), os.Getenv("FINRA_CLIENT_SECRET")
}

// CacheTTL converts the configured cache TTL.
func (c CacheConfig) CacheTTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Timeout converts the configured database timeout.
func (c DatabaseConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

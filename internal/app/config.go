package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"stockdaq/internal/apperror"
	"stockdaq/internal/crawl"
	"stockdaq/internal/export"
	"stockdaq/internal/provider"
	"stockdaq/internal/saver"
	"stockdaq/internal/segment"
	"stockdaq/internal/slogx"
)

// DefaultAPICallInterval is the minimum delay between vendor calls when api_call_interval is unset.
const DefaultAPICallInterval = 12 * time.Second

// Config holds the update configuration: YAML file, then .env, then environment.
type Config struct {
	StockList              string            `yaml:"stock_list"`
	APIList                []string          `yaml:"api_list"`
	APIKeys                map[string]string `yaml:"api_keys"`
	Frequency              string            `yaml:"frequency"`
	RootDir                string            `yaml:"rootdir"`
	FileStructure          []string          `yaml:"file_structure"`
	Rolling                bool              `yaml:"rolling"`
	APICallInterval        time.Duration     `yaml:"api_call_interval"`
	DatabaseUpdateInterval time.Duration     `yaml:"database_update_interval"`
	RollingCron            string            `yaml:"rolling_cron"`
	Download               map[string]string `yaml:"download"`
	Export                 ExportConfig      `yaml:"export"`
	Logging                LoggingConfig     `yaml:"logging"`
	Mirror                 MirrorConfig      `yaml:"mirror"`
}

type ExportConfig struct {
	Criterion string `yaml:"criterion"`
	Prefix    string `yaml:"prefix"`
	Suffix    string `yaml:"suffix"`
	Extension string `yaml:"extension"`
	Format    string `yaml:"format"`
	Conflict  string `yaml:"conflict"`
	MergeHow  string `yaml:"mergehow"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"` // debug | info | warn | error
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// LoadConfig reads path and applies .env and environment overrides, defaults and validation.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.Wrap(apperror.FileNotFound, err, "config %s (create one with: stockdaq update -get-config)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperror.Wrap(apperror.InvalidConfig, err, "parse config %s", path)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *Config) applyEnv() {
	c.StockList = getEnv("STOCKDAQ_STOCK_LIST", c.StockList)
	c.RootDir = getEnv("STOCKDAQ_ROOTDIR", c.RootDir)
	c.Frequency = getEnv("STOCKDAQ_FREQUENCY", c.Frequency)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Mirror.Bucket = getEnv("AWS_S3_BUCKET", c.Mirror.Bucket)
	if v := os.Getenv("STOCKDAQ_API_LIST"); v != "" {
		c.APIList = SplitList(v)
	}
	if c.APIKeys == nil {
		c.APIKeys = make(map[string]string)
	}
	for name, env := range map[string]string{"alphavantage": "ALPHAVANTAGE_API_KEY", "polygon": "POLYGON_API_KEY"} {
		if v := os.Getenv(env); v != "" {
			c.APIKeys[name] = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.StockList == "" {
		c.StockList = "stocklist.txt"
	}
	if len(c.APIList) == 0 {
		c.APIList = []string{"alphavantage", "yahoo"}
	}
	if c.Frequency == "" {
		c.Frequency = string(provider.Intraday)
	}
	if c.RootDir == "" {
		c.RootDir = "./"
	}
	if len(c.FileStructure) == 0 {
		c.FileStructure = []string{"symbol", "frequency", "data"}
	}
	if c.APICallInterval == 0 {
		c.APICallInterval = DefaultAPICallInterval
	}
	if c.DatabaseUpdateInterval == 0 {
		c.DatabaseUpdateInterval = 24 * time.Hour
	}
	if c.Export.Criterion == "" {
		c.Export.Criterion = string(segment.ByDate)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks every option that would otherwise fail in the middle of a run.
func (c *Config) Validate() error {
	if _, err := provider.ParseFrequency(c.Frequency); err != nil {
		return err
	}
	for _, name := range c.APIList {
		if _, err := AdapterName(name); err != nil {
			return err
		}
	}
	if _, err := crawl.PathPrefix(c.RootDir, c.FileStructure, "SYMBOL", provider.Frequency(c.Frequency)); err != nil {
		return err
	}
	if _, err := c.ExportOptions(); err != nil {
		return err
	}
	if c.APICallInterval < 0 {
		return apperror.New(apperror.InvalidConfig, "api_call_interval must not be negative")
	}
	if _, err := c.Schedule(); err != nil {
		return err
	}
	if c.Mirror.Enabled && c.Mirror.Bucket == "" {
		return apperror.New(apperror.InvalidConfig, "mirror enabled without bucket (set mirror.bucket or AWS_S3_BUCKET)")
	}
	return nil
}

// ExportOptions converts the export section.
func (c *Config) ExportOptions() (export.Options, error) {
	var o export.Options
	var err error
	if o.Criterion, err = segment.ParseCriterion(c.Export.Criterion); err != nil {
		return o, err
	}
	so, err := saver.Options{
		Format:   saver.Format(c.Export.Format),
		Conflict: saver.Conflict(c.Export.Conflict),
		MergeHow: saver.MergeHow(c.Export.MergeHow),
	}.Normalize()
	if err != nil {
		return o, err
	}
	o.Format, o.Conflict, o.MergeHow = so.Format, so.Conflict, so.MergeHow
	o.Prefix, o.Suffix, o.Extension = c.Export.Prefix, c.Export.Suffix, c.Export.Extension
	return o, nil
}

// CrawlConfig converts the configuration for the acquisition loop.
func (c *Config) CrawlConfig() (crawl.Config, error) {
	eo, err := c.ExportOptions()
	if err != nil {
		return crawl.Config{}, err
	}
	f, err := provider.ParseFrequency(c.Frequency)
	if err != nil {
		return crawl.Config{}, err
	}
	return crawl.Config{
		Root:      c.RootDir,
		Structure: c.FileStructure,
		Frequency: f,
		Download:  provider.Options(c.Download),
		Export:    eo,
	}, nil
}

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule returns the rolling schedule: rolling_cron when set, else a constant
// database_update_interval delay.
func (c *Config) Schedule() (cron.Schedule, error) {
	if c.RollingCron != "" {
		s, err := cronParser.Parse(c.RollingCron)
		if err != nil {
			return nil, apperror.Wrap(apperror.InvalidConfig, err, "rolling_cron %q", c.RollingCron)
		}
		return s, nil
	}
	if c.DatabaseUpdateInterval < time.Second {
		return nil, apperror.New(apperror.InvalidConfig, "database_update_interval %s is below one second", c.DatabaseUpdateInterval)
	}
	return cron.Every(c.DatabaseUpdateInterval), nil
}

// LogFile converts the logging section.
func (c *Config) LogFile() slogx.FileOptions {
	return slogx.FileOptions{
		Path:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxAgeDays: c.Logging.MaxAgeDays,
		MaxBackups: c.Logging.MaxBackups,
		Compress:   c.Logging.Compress,
	}
}

// SplitList splits a comma separated list and trims every item. Empty items are dropped.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

const sampleConfig = `# stockdaq update configuration
stock_list: stocklist.txt
# adapters in preference order: alphavantage, yahoo, polygon
api_list: [alphavantage, yahoo]
# or set ALPHAVANTAGE_API_KEY / POLYGON_API_KEY (a .env file is read too)
api_keys:
  alphavantage: ""
  polygon: ""
frequency: intraday
rootdir: ./
file_structure: [symbol, frequency, data]
rolling: false
api_call_interval: 12s
database_update_interval: 24h
# rolling_cron: "30 0 * * 2-6"
rolling_cron: ""
download:
  interval: 1min
  outputsize: full
export:
  criterion: date
  prefix: ""
  suffix: ""
  extension: ""
  format: hdf5
  conflict: merge
  mergehow: keep_old
logging:
  level: info
  file: ""
mirror:
  enabled: false
  bucket: ""
  region: ""
  endpoint: ""
  prefix: ""
  path_style: false
`

// WriteSampleConfig writes a sample configuration to path. An existing file is never replaced.
func WriteSampleConfig(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperror.New(apperror.FileExists, "%s config exists", path)
		}
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

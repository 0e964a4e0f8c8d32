package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"

	"stockdaq/internal/apperror"
	"stockdaq/internal/provider"
	"stockdaq/internal/saver"
	"stockdaq/internal/segment"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteSampleConfig(path); err != nil {
		t.Fatalf("WriteSampleConfig: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff([]string{"alphavantage", "yahoo"}, cfg.APIList); diff != "" {
		t.Errorf("api_list (-want +got):\n%s", diff)
	}
	if cfg.APICallInterval != 12*time.Second || cfg.DatabaseUpdateInterval != 24*time.Hour {
		t.Errorf("intervals = %v, %v", cfg.APICallInterval, cfg.DatabaseUpdateInterval)
	}
	if cfg.Download["interval"] != "1min" {
		t.Errorf("download = %v", cfg.Download)
	}

	eo, err := cfg.ExportOptions()
	if err != nil {
		t.Fatal(err)
	}
	if eo.Criterion != segment.ByDate || eo.Format != saver.HDF5 || eo.Conflict != saver.Merge || eo.MergeHow != saver.KeepOld {
		t.Errorf("export options = %+v", eo)
	}

	if err := WriteSampleConfig(path); !apperror.Is(err, apperror.FileExists) {
		t.Errorf("second write: err = %v, want FILE_EXISTS", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "stock_list: list.txt\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Frequency != "intraday" || cfg.RootDir != "./" || cfg.Export.Criterion != "date" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"symbol", "frequency", "data"}, cfg.FileStructure); diff != "" {
		t.Errorf("file_structure (-want +got):\n%s", diff)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("STOCKDAQ_API_LIST", "polygon, yahoo")
	t.Setenv("STOCKDAQ_FREQUENCY", "daily")
	t.Setenv("POLYGON_API_KEY", "pk")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(writeConfig(t, "api_list: [alphavantage]\nfrequency: intraday\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff([]string{"polygon", "yahoo"}, cfg.APIList); diff != "" {
		t.Errorf("api_list (-want +got):\n%s", diff)
	}
	if cfg.Frequency != "daily" || cfg.APIKeys["polygon"] != "pk" || cfg.Logging.Level != "debug" {
		t.Errorf("env not applied: %+v", cfg)
	}

	adapters, err := ProvideAdapters(cfg)
	if err != nil {
		t.Fatalf("ProvideAdapters: %v", err)
	}
	var names []string
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	if diff := cmp.Diff([]string{"polygon", "yahoo"}, names); diff != "" {
		t.Errorf("adapters (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    apperror.Code
	}{
		{"bad yaml", "api_list: [\n", apperror.InvalidConfig},
		{"frequency", "frequency: hourly\n", apperror.InvalidFrequency},
		{"api", "api_list: [bloomberg]\n", apperror.InvalidConfig},
		{"structure", "file_structure: [symbol, exchange, data]\n", apperror.InvalidConfig},
		{"conflict", "export: {conflict: bogus}\n", apperror.InvalidConflictPolicy},
		{"mergehow", "export: {mergehow: newest}\n", apperror.InvalidMergeHow},
		{"criterion month", "export: {criterion: month}\n", apperror.NotImplemented},
		{"criterion", "export: {criterion: hour}\n", apperror.InvalidCriterion},
		{"format", "export: {format: xlsx}\n", apperror.InvalidFormat},
		{"cron", "rolling_cron: \"every tuesday\"\n", apperror.InvalidConfig},
		{"mirror", "mirror: {enabled: true}\n", apperror.InvalidConfig},
		{"interval", "api_call_interval: -1s\n", apperror.InvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if got := apperror.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !apperror.Is(err, apperror.FileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestSplitList(t *testing.T) {
	tests := map[string][]string{
		"Alpha Vantage, yfinance":   {"Alpha Vantage", "yfinance"},
		" symbol ,frequency,, data": {"symbol", "frequency", "data"},
		"":                          nil,
	}
	for in, want := range tests {
		if diff := cmp.Diff(want, SplitList(in)); diff != "" {
			t.Errorf("SplitList(%q) (-want +got):\n%s", in, diff)
		}
	}
}

func TestAdapterName(t *testing.T) {
	for in, want := range map[string]string{"Alpha Vantage": "alphavantage", "yfinance": "yahoo", "Polygon": "polygon"} {
		got, err := AdapterName(in)
		if err != nil || got != want {
			t.Errorf("AdapterName(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestProvideAdaptersMissingKey(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "")
	cfg := &Config{APIList: []string{"alphavantage"}, APIKeys: map[string]string{}}
	if _, err := ProvideAdapters(cfg); !apperror.Is(err, apperror.InvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestProvideLimiter(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "api_list: [yahoo]\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APICallInterval != 12*time.Second {
		t.Errorf("default api_call_interval = %v, want 12s", cfg.APICallInterval)
	}
	tests := []struct {
		name string
		cfg  *Config
		want rate.Limit
	}{
		{"default", cfg, rate.Every(12 * time.Second)},
		{"unset", &Config{}, rate.Every(12 * time.Second)},
		{"configured", &Config{APICallInterval: time.Second}, rate.Every(time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ProvideLimiter(tt.cfg)
			if l.Limit() != tt.want || l.Burst() != 1 {
				t.Errorf("limit = %v burst = %d, want %v burst 1", l.Limit(), l.Burst(), tt.want)
			}
		})
	}
}

func TestCrawlConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "frequency: weekly\nrootdir: /data\nexport: {prefix: px_, format: csv}\n"))
	if err != nil {
		t.Fatal(err)
	}
	cc, err := cfg.CrawlConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cc.Frequency != provider.Weekly || cc.Root != "/data" || cc.Export.Prefix != "px_" || cc.Export.Format != saver.CSV {
		t.Errorf("crawl config = %+v", cc)
	}
}

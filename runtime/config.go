package runtime

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-bridge/bind"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/host"
)

// Config configures a Runtime. The yaml-tagged fields can be loaded from a
// file with LoadConfig; the rest are set in code.
type Config struct {
	// MemoryLimitPages caps guest linear memory in 64KiB pages. Zero keeps
	// the wazero default.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`

	// HTTPTimeout bounds each request of the http module when HTTPClient
	// is nil.
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	RequestBurst      int           `yaml:"request_burst"`

	// WASI installs wasi_snapshot_preview1.
	WASI bool `yaml:"wasi"`

	HTTPClient *http.Client          `yaml:"-"`
	Logger     *zap.Logger           `yaml:"-"`
	Metrics    prometheus.Registerer `yaml:"-"`
	Stdout     io.Writer             `yaml:"-"`
	Stderr     io.Writer             `yaml:"-"`

	// Hosts are registered next to the built-in modules.
	Hosts []bind.Host `yaml:"-"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		HTTPTimeout: 30 * time.Second,
		UserAgent:   "wasm-bridge",
		WASI:        true,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "read config "+path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "parse config "+path)
	}
	return cfg, nil
}

func (c Config) hostConfig() host.Config {
	client := c.HTTPClient
	if client == nil && c.HTTPTimeout > 0 {
		client = &http.Client{Timeout: c.HTTPTimeout}
	}
	return host.Config{
		HTTPClient:        client,
		UserAgent:         c.UserAgent,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.RequestBurst,
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"

	"github.com/luminancehdr/hdr-batch/internal/util"
	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
)

const EnvPrefix = "HDR_BATCH"

var (
	serverModes = []string{"dev", "prod"}
	logFormats  = []string{"console", "json"}
)

type Configuration struct {
	Server    Server `mapstructure:"server"`
	Batch     Batch  `mapstructure:"batch"`
	HDR       HDR    `mapstructure:"hdr"`
	Store     Store  `mapstructure:"store"`
	LogFormat string `mapstructure:"log-format" default:"console"`
	LogLevel  string `mapstructure:"log-level" default:"debug"`
}

type Server struct {
	ServerMode string `mapstructure:"mode" default:"dev"`
	HTTPPort   int    `mapstructure:"http-port" default:"8000"`
}

type Batch struct {
	NumThreads  int    `mapstructure:"threads" default:"1"`
	Format      string `mapstructure:"format" default:"jpg"`
	JPEGQuality int    `mapstructure:"quality" default:"98"`
	OutputDir   string `mapstructure:"output"`
}

type HDR struct {
	NumBracketed int  `mapstructure:"bracketed" default:"3"`
	Align        bool `mapstructure:"align" default:"true"`
	MaxShift     int  `mapstructure:"max-shift" default:"32"`
}

type Store struct {
	// Path of the DuckDB history file. ":memory:" keeps history for the
	// lifetime of the process only.
	Path string `mapstructure:"path" default:":memory:"`
}

func NewConfigurationWithDefaults() *Configuration {
	c := &Configuration{}
	if err := defaults.Set(c); err != nil {
		panic(err)
	}
	return c
}

// NewViper returns a viper instance reading HDR_BATCH_* environment variables.
// Nested keys map to underscores: HDR_BATCH_BATCH_THREADS sets batch.threads.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file, then overlays whatever v holds
// (environment, bound flags) on top of the defaults.
func Load(v *viper.Viper, configFile string) (*Configuration, error) {
	cfg := NewConfigurationWithDefaults()
	bindDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv picks it up on Unmarshal.
func bindDefaults(v *viper.Viper, c *Configuration) {
	v.SetDefault("server.mode", c.Server.ServerMode)
	v.SetDefault("server.http-port", c.Server.HTTPPort)
	v.SetDefault("batch.threads", c.Batch.NumThreads)
	v.SetDefault("batch.format", c.Batch.Format)
	v.SetDefault("batch.quality", c.Batch.JPEGQuality)
	v.SetDefault("batch.output", c.Batch.OutputDir)
	v.SetDefault("hdr.bracketed", c.HDR.NumBracketed)
	v.SetDefault("hdr.align", c.HDR.Align)
	v.SetDefault("hdr.max-shift", c.HDR.MaxShift)
	v.SetDefault("store.path", c.Store.Path)
	v.SetDefault("log-format", c.LogFormat)
	v.SetDefault("log-level", c.LogLevel)
}

func (c *Configuration) Validate() error {
	var errs []error

	if c.Batch.NumThreads < 1 {
		errs = append(errs, fmt.Errorf("batch.threads must be at least 1, got %d", c.Batch.NumThreads))
	}
	if _, err := hdrio.FormatFromString(c.Batch.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Batch.JPEGQuality < 1 || c.Batch.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("batch.quality must be in [1, 100], got %d", c.Batch.JPEGQuality))
	}
	if c.HDR.NumBracketed < 1 {
		errs = append(errs, fmt.Errorf("hdr.bracketed must be at least 1, got %d", c.HDR.NumBracketed))
	}
	if !util.Contains(serverModes, c.Server.ServerMode) {
		errs = append(errs, fmt.Errorf("invalid server mode %q: must be 'dev' or 'prod'", c.Server.ServerMode))
	}
	if !util.Contains(logFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'console' or 'json'", c.LogFormat))
	}

	return errors.Join(errs...)
}

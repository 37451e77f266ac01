// Package config loads report tuning knobs from ClangBuildAnalyzer.ini in
// a given directory (the current directory for the analyze command, each
// case directory for the self-test). The file name and key set are fixed by the
// established trace-analyzer ecosystem; a missing file just means
// defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/go-viper/encoding/ini"
	"github.com/spf13/viper"
)

// configFile is the fixed configuration file name, without extension.
const configFile = "ClangBuildAnalyzer"

// Defaults for every recognized option.
const (
	DefaultFileParseCount   = 10
	DefaultFileCodegenCount = 10
	DefaultFunctionCount    = 30
	DefaultTemplateCount    = 30
	DefaultHeaderCount      = 10
	DefaultHeaderChainCount = 5
	DefaultMinFileTimeMs    = 10
	DefaultMaxNameLength    = 70
	DefaultOnlyRootHeaders  = true
)

// Sentinel validation errors.
var (
	ErrNegativeCount = errors.New("counts must be non-negative")
	ErrNegativeTime  = errors.New("minTimes must be non-negative")
	ErrBadNameLength = errors.New("misc.maxNameLength must be at least 4")
)

// Counts limits how many entries each ranking shows.
type Counts struct {
	FileParse   int `mapstructure:"fileparse"`
	FileCodegen int `mapstructure:"filecodegen"`
	Function    int `mapstructure:"function"`
	Template    int `mapstructure:"template"`
	Header      int `mapstructure:"header"`
	HeaderChain int `mapstructure:"headerchain"`
}

// MinTimes sets inclusion thresholds, in milliseconds.
type MinTimes struct {
	File int `mapstructure:"file"`
}

// Misc holds display options.
type Misc struct {
	MaxNameLength   int  `mapstructure:"maxnamelength"`
	OnlyRootHeaders bool `mapstructure:"onlyrootheaders"`
}

// Config is the full analyzer configuration.
type Config struct {
	Counts   Counts   `mapstructure:"counts"`
	MinTimes MinTimes `mapstructure:"mintimes"`
	Misc     Misc     `mapstructure:"misc"`
}

// Default returns the configuration used when no INI file is present.
func Default() *Config {
	return &Config{
		Counts: Counts{
			FileParse:   DefaultFileParseCount,
			FileCodegen: DefaultFileCodegenCount,
			Function:    DefaultFunctionCount,
			Template:    DefaultTemplateCount,
			Header:      DefaultHeaderCount,
			HeaderChain: DefaultHeaderChainCount,
		},
		MinTimes: MinTimes{File: DefaultMinFileTimeMs},
		Misc: Misc{
			MaxNameLength:   DefaultMaxNameLength,
			OnlyRootHeaders: DefaultOnlyRootHeaders,
		},
	}
}

// Load reads ClangBuildAnalyzer.ini from dir, falling back to defaults for
// a missing file or missing keys.
func Load(dir string) (*Config, error) {
	codecRegistry := viper.NewCodecRegistry()

	registerErr := codecRegistry.RegisterCodec("ini", ini.Codec{})
	if registerErr != nil {
		return nil, fmt.Errorf("register ini codec: %w", registerErr)
	}

	viperCfg := viper.NewWithOptions(viper.WithCodecRegistry(codecRegistry))
	viperCfg.SetConfigName(configFile)
	viperCfg.SetConfigType("ini")
	viperCfg.AddConfigPath(dir)

	applyDefaults(viperCfg)

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	counts := []int{
		c.Counts.FileParse, c.Counts.FileCodegen, c.Counts.Function,
		c.Counts.Template, c.Counts.Header, c.Counts.HeaderChain,
	}
	for _, n := range counts {
		if n < 0 {
			return ErrNegativeCount
		}
	}

	if c.MinTimes.File < 0 {
		return ErrNegativeTime
	}

	if c.Misc.MaxNameLength < 4 {
		return ErrBadNameLength
	}

	return nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("counts.fileparse", DefaultFileParseCount)
	viperCfg.SetDefault("counts.filecodegen", DefaultFileCodegenCount)
	viperCfg.SetDefault("counts.function", DefaultFunctionCount)
	viperCfg.SetDefault("counts.template", DefaultTemplateCount)
	viperCfg.SetDefault("counts.header", DefaultHeaderCount)
	viperCfg.SetDefault("counts.headerchain", DefaultHeaderChainCount)
	viperCfg.SetDefault("mintimes.file", DefaultMinFileTimeMs)
	viperCfg.SetDefault("misc.maxnamelength", DefaultMaxNameLength)
	viperCfg.SetDefault("misc.onlyrootheaders", DefaultOnlyRootHeaders)
}

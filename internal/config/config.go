package config

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/HumanPrinter/enkoni-sub003/pkg/entities"
	"github.com/HumanPrinter/enkoni-sub003/pkg/serialization"
	"github.com/spf13/viper"
)

// Supported data file formats.
const (
	FormatCSV  = "csv"
	FormatXML  = "xml"
	FormatJSON = "json"
)

type Config struct {
	DataFile     string `mapstructure:"data_file"`
	Format       string `mapstructure:"format"`
	Encoding     string `mapstructure:"encoding"`
	Monitor      bool   `mapstructure:"monitor"`
	CSVSeparator string `mapstructure:"csv_separator"`
	CSVHeader    bool   `mapstructure:"csv_header"`
	Culture      string `mapstructure:"culture"`
	LogLevel     string `mapstructure:"log_level"`
	LogDev       bool   `mapstructure:"log_development"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisChannel string `mapstructure:"redis_channel"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		DataFile:     "contacts.csv",
		Format:       FormatCSV,
		Encoding:     entities.DefaultEncoding,
		CSVSeparator: ",",
		CSVHeader:    true,
		LogLevel:     "info",
		RedisChannel: "enkoni:contacts",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return fmt.Errorf("data_file cannot be empty")
	}
	c.Format = strings.ToLower(c.Format)
	if !slices.Contains([]string{FormatCSV, FormatXML, FormatJSON}, c.Format) {
		return fmt.Errorf("unsupported format %q: expected csv, xml or json", c.Format)
	}
	info := entities.NewFileSourceInfo(c.DataFile)
	info.Encoding = c.Encoding
	if err := info.Validate(); err != nil {
		return fmt.Errorf("invalid data file settings: %w", err)
	}
	if _, err := c.Separator(); err != nil {
		return err
	}
	if _, err := serialization.ParseCulture(c.Culture); err != nil {
		return fmt.Errorf("invalid culture: %w", err)
	}
	return nil
}

// Separator returns csv_separator as a rune. "tab" and "\t" mean a tab.
func (c *Config) Separator() (rune, error) {
	switch c.CSVSeparator {
	case "", ",":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.CSVSeparator)
	if size != len(c.CSVSeparator) || r == utf8.RuneError {
		return 0, fmt.Errorf("csv_separator must be a single character, got %q", c.CSVSeparator)
	}
	return r, nil
}

// FileSourceInfo describes the configured data file.
func (c *Config) FileSourceInfo() *entities.FileSourceInfo {
	info := entities.NewFileSourceInfo(c.DataFile)
	info.Encoding = c.Encoding
	info.MonitorSourceFile = c.Monitor
	return info
}

// CSVOptions returns the serializer options for the configured data file.
func (c *Config) CSVOptions() serialization.Options {
	sep, err := c.Separator()
	if err != nil {
		sep = ','
	}
	return serialization.Options{Separator: sep, HasHeader: c.CSVHeader, Culture: c.Culture}
}

// LoadConfig reads .enkoni.yaml from the working directory, or configFile when
// given, and applies ENKONI_* environment variables on top.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".enkoni")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	// Configure environment variables
	v.SetEnvPrefix("ENKONI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Redis is commonly configured through REDIS_ADDR
	if err := v.BindEnv("redis_addr", "ENKONI_REDIS_ADDR", "REDIS_ADDR"); err != nil {
		return nil, fmt.Errorf("failed to bind redis_addr env: %w", err)
	}
	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("data_file", defaults.DataFile)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("encoding", defaults.Encoding)
	v.SetDefault("monitor", defaults.Monitor)
	v.SetDefault("csv_separator", defaults.CSVSeparator)
	v.SetDefault("csv_header", defaults.CSVHeader)
	v.SetDefault("culture", defaults.Culture)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_development", defaults.LogDev)
	v.SetDefault("redis_channel", defaults.RedisChannel)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, err
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"csvimport/csv-import/internal/csvrows"
	"csvimport/csv-import/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "CSVIMPORT"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
		Encoding  string `mapstructure:"encoding" yaml:"encoding"`
	} `mapstructure:"csv" yaml:"csv"`

	Remote struct {
		Backend               string `mapstructure:"backend" yaml:"backend"`
		Host                  string `mapstructure:"host" yaml:"host"`
		Port                  int    `mapstructure:"port" yaml:"port"`
		User                  string `mapstructure:"user" yaml:"user"`
		KeyFile               string `mapstructure:"key_file" yaml:"key_file"`
		KnownHosts            string `mapstructure:"known_hosts" yaml:"known_hosts"`
		InsecureIgnoreHostKey bool   `mapstructure:"insecure_ignore_host_key" yaml:"insecure_ignore_host_key"`
		TimeoutSeconds        int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		Bucket                string `mapstructure:"bucket" yaml:"bucket"`
		CredentialsFile       string `mapstructure:"credentials_file" yaml:"credentials_file"`
		Root                  string `mapstructure:"root" yaml:"root"`
		CSVDir                string `mapstructure:"csv_dir" yaml:"csv_dir"`
		ProcessedDir          string `mapstructure:"processed_dir" yaml:"processed_dir"`
	} `mapstructure:"remote" yaml:"remote"`

	Local struct {
		DownloadDir string `mapstructure:"download_dir" yaml:"download_dir"`
		UploadDir   string `mapstructure:"upload_dir" yaml:"upload_dir"`
		BatchDir    string `mapstructure:"batch_dir" yaml:"batch_dir"`
	} `mapstructure:"local" yaml:"local"`

	Import struct {
		AllowedUmsatzKeys []string `mapstructure:"allowed_umsatz_keys" yaml:"allowed_umsatz_keys"`
		ClearingCode      string   `mapstructure:"clearing_code" yaml:"clearing_code"`
		MaxAttempts       int      `mapstructure:"max_attempts" yaml:"max_attempts"`
	} `mapstructure:"import" yaml:"import"`

	DTAUS struct {
		Kind           string `mapstructure:"kind" yaml:"kind"`
		SenderAccount  string `mapstructure:"sender_account" yaml:"sender_account"`
		SenderBankCode string `mapstructure:"sender_bank_code" yaml:"sender_bank_code"`
		SenderName     string `mapstructure:"sender_name" yaml:"sender_name"`
		FileSuffix     string `mapstructure:"file_suffix" yaml:"file_suffix"`
	} `mapstructure:"dtaus" yaml:"dtaus"`

	Ledger struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Notify struct {
		Enabled  bool     `mapstructure:"enabled" yaml:"enabled"`
		SMTPHost string   `mapstructure:"smtp_host" yaml:"smtp_host"`
		SMTPPort int      `mapstructure:"smtp_port" yaml:"smtp_port"`
		Username string   `mapstructure:"username" yaml:"username"`
		Password string   `mapstructure:"password" yaml:"-"` // Never serialize the SMTP password
		From     string   `mapstructure:"from" yaml:"from"`
		To       []string `mapstructure:"to" yaml:"to"`
	} `mapstructure:"notify" yaml:"notify"`
}

var (
	clearingCodePattern = regexp.MustCompile(`^\d{8}$`)
	accountPattern      = regexp.MustCompile(`^\d{1,10}$`)
)

// InitializeConfig loads the configuration: defaults, then the config
// file, then CSVIMPORT_* environment variables. With an empty configFile
// config.yaml is searched in $HOME/.csv-import, .csv-import and the working
// directory; a missing file is not an error there.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.csv-import")
		v.AddConfigPath(".csv-import")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// 5. The SMTP password has a short name of its own
	if err := v.BindEnv("notify.password", EnvPrefix+"_SMTP_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind %s_SMTP_PASSWORD: %w", EnvPrefix, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the built-in configuration, ignoring config files and
// the environment.
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// CSV defaults
	v.SetDefault("csv.delimiter", ";")
	v.SetDefault("csv.encoding", "utf-8")

	// Remote defaults
	v.SetDefault("remote.backend", "sftp")
	v.SetDefault("remote.host", "")
	v.SetDefault("remote.port", 22)
	v.SetDefault("remote.user", "")
	v.SetDefault("remote.key_file", "")
	v.SetDefault("remote.known_hosts", "")
	v.SetDefault("remote.insecure_ignore_host_key", false)
	v.SetDefault("remote.timeout_seconds", 30)
	v.SetDefault("remote.bucket", "")
	v.SetDefault("remote.credentials_file", "")
	v.SetDefault("remote.root", "")
	v.SetDefault("remote.csv_dir", "/data/files/csv")
	v.SetDefault("remote.processed_dir", "/data/files/batch_processed")

	// Local directory defaults
	v.SetDefault("local.download_dir", "private/data/download")
	v.SetDefault("local.upload_dir", "private/data/upload")
	v.SetDefault("local.batch_dir", "private/data/upload/dtaus")

	// Import defaults
	v.SetDefault("import.allowed_umsatz_keys", []string{"10", "16"})
	v.SetDefault("import.clearing_code", "70022200")
	v.SetDefault("import.max_attempts", 5)

	// DTAUS defaults
	v.SetDefault("dtaus.kind", "LK")
	v.SetDefault("dtaus.sender_account", "8888888888")
	v.SetDefault("dtaus.sender_bank_code", "99999999")
	v.SetDefault("dtaus.sender_name", "Credit collection")
	v.SetDefault("dtaus.file_suffix", "_201.dta")

	// Ledger defaults
	v.SetDefault("ledger.file", "private/data/ledger.yaml")

	// Notification defaults
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.smtp_host", "")
	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.username", "")
	v.SetDefault("notify.password", "")
	v.SetDefault("notify.from", "")
	v.SetDefault("notify.to", []string{})
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate CSV input
	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}
	if _, err := csvrows.LookupEncoding(config.CSV.Encoding); err != nil {
		return fmt.Errorf("csv.encoding: %w", err)
	}

	// Validate remote backend
	switch config.Remote.Backend {
	case "sftp", "gcs", "dir":
	default:
		return fmt.Errorf("invalid remote backend: %s (must be 'sftp', 'gcs' or 'dir')", config.Remote.Backend)
	}
	if config.Remote.Port < 1 || config.Remote.Port > 65535 {
		return fmt.Errorf("remote.port must be between 1 and 65535, got: %d", config.Remote.Port)
	}

	// Validate import rules
	if len(config.Import.AllowedUmsatzKeys) == 0 {
		return fmt.Errorf("import.allowed_umsatz_keys must not be empty")
	}
	if !clearingCodePattern.MatchString(config.Import.ClearingCode) {
		return fmt.Errorf("import.clearing_code must have 8 digits, got: %s", config.Import.ClearingCode)
	}
	if config.Import.MaxAttempts < 1 || config.Import.MaxAttempts > 10 {
		return fmt.Errorf("import.max_attempts must be between 1 and 10, got: %d", config.Import.MaxAttempts)
	}

	// Validate DTAUS sender
	if config.DTAUS.Kind != "LK" && config.DTAUS.Kind != "GK" {
		return fmt.Errorf("invalid dtaus.kind: %s (must be 'LK' or 'GK')", config.DTAUS.Kind)
	}
	if !accountPattern.MatchString(config.DTAUS.SenderAccount) {
		return fmt.Errorf("dtaus.sender_account must have 1 to 10 digits, got: %s", config.DTAUS.SenderAccount)
	}
	if !clearingCodePattern.MatchString(config.DTAUS.SenderBankCode) {
		return fmt.Errorf("dtaus.sender_bank_code must have 8 digits, got: %s", config.DTAUS.SenderBankCode)
	}

	// Validate notifications
	if config.Notify.Enabled {
		if config.Notify.SMTPHost == "" {
			return fmt.Errorf("notify.smtp_host required when notifications are enabled")
		}
		if config.Notify.From == "" || len(config.Notify.To) == 0 {
			return fmt.Errorf("notify.from and notify.to required when notifications are enabled")
		}
	}

	return nil
}

// ConfigureLoggingFromConfig builds the application logger from config.
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(config.Log.Level, config.Log.Format)
}

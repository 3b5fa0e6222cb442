package mintclient

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/minthcm-client/internal/constants"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// EnvPrefix prefixes the environment variables read by LoadConfig, e.g.
// MINTHCM_BASE_URL or MINTHCM_CLIENT_SECRET.
const EnvPrefix = "MINTHCM"

// Static errors for err113 compliance.
var (
	ErrConfigPathRequired = errors.New("config path is required")
)

// FileConfig is the YAML form of minthcm.Config. Runtime-only settings
// (logger, interceptors, custom token storage) have no file representation.
type FileConfig struct {
	BaseURL                 string  `yaml:"base_url"`
	ClientID                string  `yaml:"client_id"`
	ClientSecret            string  `yaml:"client_secret"`
	TokenURL                string  `yaml:"token_url,omitempty"`
	TokenPath               string  `yaml:"token_path,omitempty"`
	DisableTokenPersistence bool    `yaml:"disable_token_persistence,omitempty"`
	NATSURL                 string  `yaml:"nats_url,omitempty"`
	NATSBucket              string  `yaml:"nats_bucket,omitempty"`
	NATSKey                 string  `yaml:"nats_key,omitempty"`
	LogoutOnExit            bool    `yaml:"logout_on_exit,omitempty"`
	UserAgent               string  `yaml:"user_agent,omitempty"`
	HTTPTimeout             string  `yaml:"http_timeout,omitempty"`
	RetryMax                int     `yaml:"retry_max,omitempty"`
	RateLimit               float64 `yaml:"rate_limit,omitempty"`
	Debug                   bool    `yaml:"debug,omitempty"`
}

// LoadConfig reads a YAML config file, with MINTHCM_* environment variables
// taking precedence over file values. An empty path reads the environment
// only.
func LoadConfig(path string) (*minthcm.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	config := &minthcm.Config{
		BaseURL:                 v.GetString("base_url"),
		ClientID:                v.GetString("client_id"),
		ClientSecret:            v.GetString("client_secret"),
		TokenURL:                v.GetString("token_url"),
		TokenPath:               v.GetString("token_path"),
		DisableTokenPersistence: v.GetBool("disable_token_persistence"),
		LogoutOnExit:            v.GetBool("logout_on_exit"),
		UserAgent:               v.GetString("user_agent"),
		HTTPTimeout:             v.GetDuration("http_timeout"),
		RetryMax:                v.GetInt("retry_max"),
		RateLimit:               v.GetFloat64("rate_limit"),
		Debug:                   v.GetBool("debug"),
	}

	if natsURL := v.GetString("nats_url"); natsURL != "" {
		config.NATS = &minthcm.NATSConfig{
			URL:    natsURL,
			Bucket: v.GetString("nats_bucket"),
			Key:    v.GetString("nats_key"),
		}
	}

	return config, nil
}

// SaveConfig writes config as YAML with owner-only permissions, since the
// file holds the client secret.
func SaveConfig(path string, config *minthcm.Config) error {
	if path == "" {
		return ErrConfigPathRequired
	}

	if config == nil {
		return minthcm.ErrConfigRequired
	}

	fileConfig := FileConfig{
		BaseURL:                 config.BaseURL,
		ClientID:                config.ClientID,
		ClientSecret:            config.ClientSecret,
		TokenURL:                config.TokenURL,
		TokenPath:               config.TokenPath,
		DisableTokenPersistence: config.DisableTokenPersistence,
		LogoutOnExit:            config.LogoutOnExit,
		UserAgent:               config.UserAgent,
		RetryMax:                config.RetryMax,
		RateLimit:               config.RateLimit,
		Debug:                   config.Debug,
	}

	if config.HTTPTimeout > 0 {
		fileConfig.HTTPTimeout = config.HTTPTimeout.String()
	}

	if config.NATS != nil {
		fileConfig.NATSURL = config.NATS.URL
		fileConfig.NATSBucket = config.NATS.Bucket
		fileConfig.NATSKey = config.NATS.Key
	}

	data, err := yaml.Marshal(&fileConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

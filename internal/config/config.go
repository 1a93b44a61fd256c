// Package config loads the site settings from defaults, an optional YAML file and
// AETHERIA_* environment variables, in increasing order of precedence.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"aetheria-site/pkg/fsutils"

	"github.com/spf13/viper"
)

const envPrefix = "AETHERIA"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	WatchData      bool          `mapstructure:"watchData"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// AdminConfig holds the single credential pair accepted by the login form.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type SessionConfig struct {
	CookieName   string        `mapstructure:"cookieName"`
	HashKey      string        `mapstructure:"hashKey"`
	BlockKey     string        `mapstructure:"blockKey"`
	CookieSecure bool          `mapstructure:"cookieSecure"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
	StoreQuota   int           `mapstructure:"storeQuota"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.requestTimeout", "30s")
	v.SetDefault("server.watchData", false)
	v.SetDefault("data.dir", ".aetheria_data")
	v.SetDefault("admin.username", "izamvanced")
	v.SetDefault("admin.password", "jamil123")
	v.SetDefault("session.cookieName", "aetheria_session")
	v.SetDefault("session.hashKey", "")
	v.SetDefault("session.blockKey", "")
	v.SetDefault("session.cookieSecure", false)
	v.SetDefault("session.idleTimeout", "30m")
	v.SetDefault("session.storeQuota", 5<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads the configuration. With cfgFile empty it looks for ./config.yaml and carries
// on with defaults when there is none; a named file that does not exist is an error.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		if !fsutils.FileExists(cfgFile) {
			return Config{}, fmt.Errorf("config file %s does not exist or is a directory", cfgFile)
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		cfg.File = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Data.Dir == "" {
		return errors.New("config: data.dir is required")
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return errors.New("config: admin.username and admin.password are required")
	}
	switch len(c.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("config: session.blockKey must be 16, 24 or 32 bytes, got %d", len(c.Session.BlockKey))
	}
	return nil
}

// SessionKeys returns the cookie hash and block keys. An unset hash key is replaced by a
// random one, which invalidates cookies on restart; session state is in memory anyway.
func (c Config) SessionKeys() (hashKey, blockKey []byte, err error) {
	hashKey = []byte(c.Session.HashKey)
	if len(hashKey) == 0 {
		hashKey = make([]byte, 32)
		if _, err := rand.Read(hashKey); err != nil {
			return nil, nil, fmt.Errorf("generate session hash key: %w", err)
		}
	}
	if c.Session.BlockKey != "" {
		blockKey = []byte(c.Session.BlockKey)
	}
	return hashKey, blockKey, nil
}

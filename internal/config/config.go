// Package config loads hwsense settings from defaults, an optional config
// file, a .env file and HWSENSE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	General General `mapstructure:"general"`
	Rest    Rest    `mapstructure:"rest"`
	Sysfs   Sysfs   `mapstructure:"sysfs"`
	Procfs  Procfs  `mapstructure:"procfs"`
	Poll    Poll    `mapstructure:"poll"`
}

type General struct {
	Debug bool `mapstructure:"debug"`
}

type Rest struct {
	Address string `mapstructure:"address"`
}

// Sysfs points at the sysfs mount. Containers usually mount the host's /sys
// somewhere else.
type Sysfs struct {
	Root string `mapstructure:"root"`
}

type Procfs struct {
	Root string `mapstructure:"root"`
}

type Poll struct {
	Interval time.Duration `mapstructure:"interval"`
}

const envPrefix = "HWSENSE"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("hwsense")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".hwsense"))
	}
	v.AddConfigPath("/etc/hwsense")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("rest.address", "0.0.0.0:8080")
	v.SetDefault("sysfs.root", "/sys")
	v.SetDefault("procfs.root", "/proc")
	v.SetDefault("poll.interval", 2*time.Second)
}

// Load resolves the configuration. Flags in fs, when non-nil, take
// precedence over every other source. A missing config file is not an error.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// .env is optional; variables already in the environment win.
	_ = godotenv.Load()

	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"debug":     "general.debug",
	"address":   "rest.address",
	"sys-root":  "sysfs.root",
	"proc-root": "procfs.root",
	"interval":  "poll.interval",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Poll.Interval < time.Second {
		return fmt.Errorf("poll interval must be at least 1s, got %s", c.Poll.Interval)
	}
	if c.Sysfs.Root == "" || c.Procfs.Root == "" {
		return fmt.Errorf("sysfs and procfs roots must not be empty")
	}
	return nil
}

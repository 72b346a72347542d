// Package config loads nzbdecode's YAML configuration through viper,
// adapted from the teacher's gonzb config loader: the same
// file-exists-with-a-helpful-error check, default-then-env-override
// layering, and a validate() pass that fills in sane defaults rather
// than rejecting a sparse file outright.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level shape unmarshalled from config.yaml.
type Config struct {
	Servers  []ServerConfig `mapstructure:"servers" yaml:"servers"`
	Decode   DecodeConfig   `mapstructure:"decode" yaml:"decode"`
	JobStore JobStoreConfig `mapstructure:"job_store" yaml:"job_store"`
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig names one NNTP server nzbdecode may fetch articles from.
type ServerConfig struct {
	ID            string `mapstructure:"id" yaml:"id"`
	Host          string `mapstructure:"host" yaml:"host"`
	Port          int    `mapstructure:"port" yaml:"port"`
	Username      string `mapstructure:"username" yaml:"username"`
	Password      string `mapstructure:"password" yaml:"password"`
	TLS           bool   `mapstructure:"tls" yaml:"tls"`
	MaxConnection int    `mapstructure:"max_connections" yaml:"max_connections"`
	Priority      int    `mapstructure:"priority" yaml:"priority"`
}

// DecodeConfig controls where decoded article payloads land and how
// large the streaming decoder's buffer is allowed to grow.
type DecodeConfig struct {
	OutDir        string `mapstructure:"out_dir" yaml:"out_dir"`
	BufferCapHint int    `mapstructure:"buffer_cap_hint" yaml:"buffer_cap_hint"`
}

// JobStoreConfig points at the sqlite database backing internal/jobstore.
type JobStoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// APIConfig controls the optional status HTTP server.
type APIConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig mirrors the teacher's log settings verbatim.
type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

// Load reads and validates config.yaml (or the given path), applying
// defaults and NZBDECODE_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if path == "config.yaml" {
			if _, errEx := os.Stat("config.yaml.example"); errEx == nil {
				return nil, fmt.Errorf("configuration file 'config.yaml' not found\n\n" +
					"To fix this, run:\n" +
					"  cp config.yaml.example config.yaml\n" +
					"Then edit it with your Usenet credentials.")
			}
		}
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	v := viper.New()

	v.SetDefault("decode.out_dir", "./decoded")
	v.SetDefault("decode.buffer_cap_hint", 65536)
	v.SetDefault("job_store.path", "nzbdecode.db")
	v.SetDefault("api.addr", "127.0.0.1:8765")
	v.SetDefault("log.path", "nzbdecode.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	v.SetEnvPrefix("NZBDECODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Servers) == 0 {
		return errors.New("at least one server must be configured")
	}

	for i, s := range c.Servers {
		if s.ID == "" {
			return fmt.Errorf("server[%d] requires a unique ID", i)
		}
		if s.Host == "" {
			return fmt.Errorf("server %s: host is required", s.ID)
		}
		if s.Port == 0 {
			return fmt.Errorf("server %s: port is required", s.ID)
		}
		if s.TLS && s.Port == 119 {
			fmt.Println("Warning: TLS is enabled but port is set to 119 (standard non-TLS)")
		}
		if s.MaxConnection <= 0 {
			c.Servers[i].MaxConnection = 10
		}
		if s.Priority == 0 {
			c.Servers[i].Priority = 1
		}
	}

	if c.Decode.OutDir == "" {
		c.Decode.OutDir = "./decoded"
	}
	if c.Decode.BufferCapHint <= 0 {
		c.Decode.BufferCapHint = 65536
	}
	if c.JobStore.Path == "" {
		c.JobStore.Path = "nzbdecode.db"
	}
	if c.API.Addr == "" {
		c.API.Addr = "127.0.0.1:8765"
	}

	return nil
}

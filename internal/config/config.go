// This file defines the configuration structure for the relay.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the relay.
// It maps directly to the structure of config.yml.
type Config struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	StaticDir       string `mapstructure:"static_dir"`
	IndexFile       string `mapstructure:"index_file"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
	Stream          struct {
		BufferSize        int `mapstructure:"buffer_size"`
		KeepaliveInterval int `mapstructure:"keepalive_interval"` // seconds, 0 disables
	} `mapstructure:"stream"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory to search for config.yml.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")
	v.AddConfigPath(dir)

	// RELAY_STREAM_BUFFER_SIZE overrides `stream.buffer_size`, and so on.
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The process manager only knows about a bare PORT.
	if err := v.BindEnv("port", "RELAY_PORT", "PORT"); err != nil {
		return nil, err
	}

	v.SetDefault("port", 3005)
	v.SetDefault("host", "")
	v.SetDefault("static_dir", "")
	v.SetDefault("index_file", "rof-app.html")
	v.SetDefault("shutdown_timeout", 5)
	v.SetDefault("stream.buffer_size", 16)
	v.SetDefault("stream.keepalive_interval", 30)
	v.SetDefault("cors.allowed_origins", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

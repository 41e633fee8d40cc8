// Package config loads service configuration from defaults, an optional
// config file and MUDRA_* environment overrides.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/ayusman/mudra/internal/control"
)

// Config is the full service configuration.
type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	ListenAddr string `mapstructure:"listen_addr"`

	CameraID   int `mapstructure:"camera_id"`
	CaptureFPS int `mapstructure:"capture_fps"`

	StaticDir string `mapstructure:"static_dir"`
	DBPath    string `mapstructure:"db_path"`
	Tray      bool   `mapstructure:"tray"`

	PreferGPU bool `mapstructure:"prefer_gpu"`

	Tunables control.Tunables `mapstructure:"tunables"`
}

// Load reads configuration. configDir may be empty, in which case only
// defaults and environment variables apply. A missing config file is fine;
// a malformed one is an error.
func Load(configDir string) (*Config, error) {
	v := viper.New()

	tun := control.DefaultTunables()
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("camera_id", 0)
	v.SetDefault("capture_fps", 30)
	v.SetDefault("static_dir", "")
	v.SetDefault("db_path", "")
	v.SetDefault("tray", false)
	v.SetDefault("prefer_gpu", true)
	v.SetDefault("tunables.extension_ratio", tun.ExtensionRatio)
	v.SetDefault("tunables.open_threshold", tun.OpenThreshold)
	v.SetDefault("tunables.closed_threshold", tun.ClosedThreshold)
	v.SetDefault("tunables.openness_raw_min", tun.OpennessRawMin)
	v.SetDefault("tunables.openness_raw_max", tun.OpennessRawMax)
	v.SetDefault("tunables.smoothing", tun.Smoothing)

	v.SetConfigName("mudra")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("MUDRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package siteplan

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/gekko3d/siteplan/internal/observability"
	"github.com/gekko3d/siteplan/layout/assets"
	"github.com/gekko3d/siteplan/layout/catalog"
	"github.com/gekko3d/siteplan/layout/groundmap"
)

// EnvPrefix prefixes environment overrides, e.g. SITEPLAN_LOG_DEBUG=true.
const EnvPrefix = "SITEPLAN"

type CameraConfig struct {
	Fov      float32   `mapstructure:"fov"`
	Near     float32   `mapstructure:"near"`
	Far      float32   `mapstructure:"far"`
	Aspect   float32   `mapstructure:"aspect"`
	Position []float32 `mapstructure:"position"`
}

type AssetsConfig struct {
	// BaseDir resolves relative asset references.
	BaseDir     string        `mapstructure:"base_dir"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	HTTPRetries int           `mapstructure:"http_retries"`
}

type LogConfig struct {
	Prefix string `mapstructure:"prefix"`
	Debug  bool   `mapstructure:"debug"`
}

type Config struct {
	Ground    groundmap.Config            `mapstructure:"ground"`
	Camera    CameraConfig                `mapstructure:"camera"`
	Assets    AssetsConfig                `mapstructure:"assets"`
	Log       LogConfig                   `mapstructure:"log"`
	Tracing   observability.TracingConfig `mapstructure:"tracing"`
	Templates []catalog.TemplateConfig    `mapstructure:"templates"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ground.image", "")
	v.SetDefault("ground.size", groundmap.DefaultSize)
	v.SetDefault("ground.meters_per_pixel", groundmap.DefaultMetersPerPixel)
	v.SetDefault("ground.ground_y", groundmap.DefaultGroundY)

	v.SetDefault("camera.fov", 70)
	v.SetDefault("camera.near", 0.01)
	v.SetDefault("camera.far", 30000)
	v.SetDefault("camera.aspect", 16.0/9.0)
	v.SetDefault("camera.position", []float32{0, 1000, 900})

	v.SetDefault("assets.base_dir", "")
	v.SetDefault("assets.http_timeout", assets.DefaultHTTPTimeout)
	v.SetDefault("assets.http_retries", assets.DefaultHTTPRetries)

	v.SetDefault("log.prefix", "siteplan")
	v.SetDefault("log.debug", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "siteplan")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// DefaultConfig reproduces the stock facility map and camera.
func DefaultConfig() Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// LoadConfig reads path (YAML, JSON or TOML) over the defaults, then applies
// SITEPLAN_* environment overrides. An empty path uses defaults and the
// environment only.
func LoadConfig(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}
	return decode(v)
}

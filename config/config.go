package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	RemoveBG RemoveBGConfig `mapstructure:"removebg"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Canvas   CanvasConfig   `mapstructure:"canvas"`
	Segment  SegmentConfig  `mapstructure:"segment"`
	Session  SessionConfig  `mapstructure:"session"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	StaticDir    string        `mapstructure:"static_dir"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RemoveBGConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type UploadConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

type CanvasConfig struct {
	MaxDim int `mapstructure:"max_dim"`
}

type SegmentConfig struct {
	// 为空时使用源图自带的 alpha
	Endpoint   string        `mapstructure:"endpoint"`
	HealthURL  string        `mapstructure:"health_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Threshold  float64       `mapstructure:"threshold"`
	Mode       string        `mapstructure:"mode"`
	Resolution string        `mapstructure:"resolution"`
}

type SessionConfig struct {
	IdleTTL     time.Duration `mapstructure:"idle_ttl"`
	JanitorSpec string        `mapstructure:"janitor_spec"`
}

// Load 从 YAML 文件和环境变量加载配置，文件不存在时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.Port = normalizePort(cfg.Server.Port)
	return &cfg, nil
}

// New 依次加载 .env 和 config.yaml。配置文件无法解析时退回默认值加环境变量，
// 同时把错误交给调用方记录
func New() (*Config, error) {
	envErr := LoadDotEnv(".env")

	cfg, err := Load("config.yaml")
	if err == nil {
		return cfg, envErr
	}

	fallback, ferr := Load("")
	if ferr != nil {
		return getDefaultConfig(), errors.Join(envErr, err, ferr)
	}
	return fallback, errors.Join(envErr, err)
}

// LoadDotEnv 把 .env 中的变量写入进程环境，已存在的变量不会被覆盖
func LoadDotEnv(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file: %w", err)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.static_dir", "./public")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("removebg.api_key", "")
	v.SetDefault("removebg.endpoint", "https://api.remove.bg/v1.0/removebg")
	v.SetDefault("removebg.timeout", 0)

	v.SetDefault("upload.max_size", 12*1024*1024)

	v.SetDefault("canvas.max_dim", 1200)

	v.SetDefault("segment.endpoint", "")
	v.SetDefault("segment.health_url", "")
	v.SetDefault("segment.timeout", 0)
	v.SetDefault("segment.threshold", 0.7)
	v.SetDefault("segment.mode", "single")
	v.SetDefault("segment.resolution", "medium")

	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.janitor_spec", "@every 1m")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("NOBG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("removebg.api_key", "REMOVE_BG_API_KEY")
	_ = v.BindEnv("server.port", "PORT")
}

// normalizePort PORT=3000 -> ":3000"
func normalizePort(port string) string {
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":3000",
			Mode:         "debug",
			StaticDir:    "./public",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		RemoveBG: RemoveBGConfig{
			Endpoint: "https://api.remove.bg/v1.0/removebg",
		},
		Upload: UploadConfig{
			MaxSize: 12 * 1024 * 1024,
		},
		Canvas: CanvasConfig{
			MaxDim: 1200,
		},
		Segment: SegmentConfig{
			Threshold:  0.7,
			Mode:       "single",
			Resolution: "medium",
		},
		Session: SessionConfig{
			IdleTTL:     30 * time.Minute,
			JanitorSpec: "@every 1m",
		},
	}
}

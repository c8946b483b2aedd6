package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	defaultListenPort     = 5000
	defaultWorkerPoolSize = 6
	defaultLogFileName    = "gateway.log"

	// EnvAPIKey/EnvOriginPassword 允许以环境变量覆盖配置文件中的敏感字段。
	EnvAPIKey         = "GATEWAY_API_KEY"
	EnvOriginPassword = "GATEWAY_ORIGIN_PASSWORD"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := bindSecrets(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyOriginDefaults(&cfg.Origin)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absCache, err := filepath.Abs(cfg.Global.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存目录: %w", err)
	}
	cfg.Global.CacheDir = absCache

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", defaultListenPort)
	v.SetDefault("WorkerPoolSize", defaultWorkerPoolSize)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogDir", "")
	v.SetDefault("LogFileName", defaultLogFileName)
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("CacheDir", "./dicom_cache")
	v.SetDefault("Origin.URL", "http://localhost:8042")
	v.SetDefault("Origin.HealthTimeout", "5s")
	v.SetDefault("Origin.DescriptorTimeout", "30s")
	v.SetDefault("Origin.InstanceTimeout", "10s")
	v.SetDefault("Origin.PayloadTimeout", "60s")
}

func bindSecrets(v *viper.Viper) error {
	if err := v.BindEnv("APIKey", EnvAPIKey); err != nil {
		return fmt.Errorf("绑定环境变量失败: %w", err)
	}
	if err := v.BindEnv("Origin.Password", EnvOriginPassword); err != nil {
		return fmt.Errorf("绑定环境变量失败: %w", err)
	}
	return nil
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = defaultListenPort
	}
	if g.WorkerPoolSize == 0 {
		g.WorkerPoolSize = defaultWorkerPoolSize
	}
	if g.LogFileName == "" {
		g.LogFileName = defaultLogFileName
	}
}

func applyOriginDefaults(o *OriginConfig) {
	if o.HealthTimeout.DurationValue() == 0 {
		o.HealthTimeout = Duration(5 * time.Second)
	}
	if o.DescriptorTimeout.DurationValue() == 0 {
		o.DescriptorTimeout = Duration(30 * time.Second)
	}
	if o.InstanceTimeout.DurationValue() == 0 {
		o.InstanceTimeout = Duration(10 * time.Second)
	}
	if o.PayloadTimeout.DurationValue() == 0 {
		o.PayloadTimeout = Duration(60 * time.Second)
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述网关进程级参数，启动后只读。
type GlobalConfig struct {
	ListenPort     int    `mapstructure:"ListenPort"`
	WorkerPoolSize int    `mapstructure:"WorkerPoolSize"`
	LogLevel       string `mapstructure:"LogLevel"`
	LogDir         string `mapstructure:"LogDir"`
	LogFileName    string `mapstructure:"LogFileName"`
	LogMaxSize     int    `mapstructure:"LogMaxSize"`
	LogMaxBackups  int    `mapstructure:"LogMaxBackups"`
	LogCompress    bool   `mapstructure:"LogCompress"`
	CacheDir       string `mapstructure:"CacheDir"`
	APIKey         string `mapstructure:"APIKey"`
}

// LogFilePath 返回日志文件的完整路径；LogDir 为空时表示仅输出到 stdout。
func (g GlobalConfig) LogFilePath() string {
	if strings.TrimSpace(g.LogDir) == "" {
		return ""
	}
	name := g.LogFileName
	if name == "" {
		name = defaultLogFileName
	}
	return filepath.Join(g.LogDir, name)
}

// OriginConfig 描述网关访问 Orthanc 时使用的地址、固定凭证与分级超时。
type OriginConfig struct {
	URL               string   `mapstructure:"URL"`
	Username          string   `mapstructure:"Username"`
	Password          string   `mapstructure:"Password"`
	HealthTimeout     Duration `mapstructure:"HealthTimeout"`
	DescriptorTimeout Duration `mapstructure:"DescriptorTimeout"`
	InstanceTimeout   Duration `mapstructure:"InstanceTimeout"`
	PayloadTimeout    Duration `mapstructure:"PayloadTimeout"`
}

// HasCredentials 表示是否配置了完整的 Orthanc 凭证。
func (o OriginConfig) HasCredentials() bool {
	return o.Username != "" && o.Password != ""
}

// AuthMode 输出 `credentialed` 或 `anonymous`，供日志字段使用。
func (o OriginConfig) AuthMode() string {
	if o.HasCredentials() {
		return "credentialed"
	}
	return "anonymous"
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Origin OriginConfig `mapstructure:"Origin"`
}

// MaskedAPIKey 仅保留共享密钥前缀，用于启动日志。
func (c *Config) MaskedAPIKey() string {
	key := c.Global.APIKey
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}

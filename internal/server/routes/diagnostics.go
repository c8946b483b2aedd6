package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/orthanc-gateway/internal/config"
	"github.com/any-hub/orthanc-gateway/internal/version"
)

// Settings 是 /-/settings 暴露的运行参数快照，不包含任何明文凭证。
type Settings struct {
	OriginURL      string `json:"origin_url"`
	OriginAuth     string `json:"origin_auth"`
	CacheDir       string `json:"cache_dir"`
	WorkerPoolSize int    `json:"worker_pool_size"`
	APIKey         string `json:"api_key"`
	Version        string `json:"version"`
	Timeouts       struct {
		Health     string `json:"health"`
		Descriptor string `json:"descriptor"`
		Instance   string `json:"instance"`
		Payload    string `json:"payload"`
	} `json:"timeouts"`
}

// SettingsFromConfig 从已校验的配置生成快照，APIKey 仅保留前缀。
func SettingsFromConfig(cfg *config.Config) Settings {
	var s Settings
	if cfg == nil {
		return s
	}
	s.OriginURL = cfg.Origin.URL
	s.OriginAuth = cfg.Origin.AuthMode()
	s.CacheDir = cfg.Global.CacheDir
	s.WorkerPoolSize = cfg.Global.WorkerPoolSize
	s.APIKey = cfg.MaskedAPIKey()
	s.Version = version.Full()
	s.Timeouts.Health = cfg.Origin.HealthTimeout.DurationValue().String()
	s.Timeouts.Descriptor = cfg.Origin.DescriptorTimeout.DurationValue().String()
	s.Timeouts.Instance = cfg.Origin.InstanceTimeout.DurationValue().String()
	s.Timeouts.Payload = cfg.Origin.PayloadTimeout.DurationValue().String()
	return s
}

// RegisterDiagnosticRoutes 暴露 /-/settings 诊断接口，供运维核对生效配置。
func RegisterDiagnosticRoutes(app *fiber.App, gate fiber.Handler, settings Settings) {
	if app == nil || gate == nil {
		return
	}
	app.Get("/-/settings", gate, func(c fiber.Ctx) error {
		return c.JSON(settings)
	})
}

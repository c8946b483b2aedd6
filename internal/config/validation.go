package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.WorkerPoolSize <= 0 {
		return newFieldError("Global.WorkerPoolSize", "必须大于 0")
	}
	if strings.TrimSpace(g.CacheDir) == "" {
		return newFieldError("Global.CacheDir", "不能为空")
	}
	if g.APIKey == "" {
		return newFieldError("Global.APIKey", "不能为空")
	}
	if strings.ContainsAny(g.LogFileName, `/\`) {
		return newFieldError("Global.LogFileName", "不允许包含路径")
	}

	o := c.Origin
	if err := validateOrigin(o.URL); err != nil {
		return newFieldError(originField("URL"), err.Error())
	}
	if (o.Username == "") != (o.Password == "") {
		return newFieldError(originField("Username/Password"), "必须同时提供或同时留空")
	}
	timeouts := []struct {
		name  string
		value Duration
	}{
		{"HealthTimeout", o.HealthTimeout},
		{"DescriptorTimeout", o.DescriptorTimeout},
		{"InstanceTimeout", o.InstanceTimeout},
		{"PayloadTimeout", o.PayloadTimeout},
	}
	for _, item := range timeouts {
		if item.value.DurationValue() <= 0 {
			return newFieldError(originField(item.name), "必须大于 0")
		}
	}

	return nil
}

func validateOrigin(raw string) error {
	if raw == "" {
		return errors.New("缺少 Orthanc 地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，地址: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("地址缺少 Host: %s", raw)
	}
	return nil
}

package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供路由/资源/命中状态字段，供网关请求日志复用。
func RequestFields(route, resourceID, requestID string, cacheHit bool) logrus.Fields {
	fields := logrus.Fields{
		"route":       route,
		"resource_id": resourceID,
		"cache_hit":   cacheHit,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供单次代理请求的通用字段，供请求日志复用。
func RequestFields(path, method, authMode string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"path":      path,
		"method":    method,
		"auth_mode": authMode,
		"cache_hit": cacheHit,
	}
}

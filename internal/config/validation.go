package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
// 注意：Registry.Token 不在这里强制，凭证缺失按请求级错误处理。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.CacheTTL.DurationValue() <= 0 {
		return newFieldError("Global.CacheTTL", "必须大于 0")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	switch g.CacheBackend {
	case BackendSQLite:
		// CachePath 为空时使用共享内存库，允许。
	case BackendDisk:
		if g.CachePath == "" {
			return newFieldError("Global.CachePath", "disk 后端必须指定缓存目录")
		}
	default:
		return newFieldError("Global.CacheBackend", "仅支持 sqlite|disk")
	}

	r := c.Registry
	if r.Owner == "" {
		return newFieldError("Registry.Owner", "不能为空")
	}
	if r.Repo == "" {
		return newFieldError("Registry.Repo", "不能为空")
	}
	if _, err := r.UpstreamBase(); err != nil {
		return fmt.Errorf("Registry.RegistryBase: %w", err)
	}

	if len(SplitList(r.AllowedExtensions)) == 0 {
		return newFieldError("Registry.AllowedExtensions", "必须配置至少一个后缀")
	}

	for _, pattern := range SplitList(r.AllowedPaths) {
		if _, err := regexp.Compile(pattern); err != nil {
			return newFieldError("Registry.AllowedPaths", fmt.Sprintf("非法正则 %q: %v", pattern, err))
		}
	}

	return nil
}

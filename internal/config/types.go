package config

import (
	"fmt"
	"net/url"
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

// Seconds 返回取整后的秒数，用于写入 Cache-Control 的 max-age。
func (d Duration) Seconds() int {
	return int(time.Duration(d) / time.Second)
}

// 缓存后端类型，决定响应缓存落在 SQLite 还是磁盘目录。
const (
	BackendSQLite = "sqlite"
	BackendDisk   = "disk"
)

// GlobalConfig 描述全局运行时行为。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	CacheBackend    string   `mapstructure:"CacheBackend"`
	CachePath       string   `mapstructure:"CachePath"`
	CacheTTL        Duration `mapstructure:"CacheTTL"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
}

// RegistryConfig 决定代理面向哪个私有制品仓库，以及允许放行哪些请求。
type RegistryConfig struct {
	// RegistryBase 是制品仓库的根地址，例如 https://maven.pkg.github.com。
	RegistryBase string `mapstructure:"RegistryBase"`
	Owner        string `mapstructure:"Owner"`
	Repo         string `mapstructure:"Repo"`
	// Token 缺失时服务仍可启动，但所有回源请求都会以 500 结束。
	Token string `mapstructure:"Token"`
	// AllowedPaths 为可选的正则白名单（逗号分隔）；为空放行所有路径。
	AllowedPaths string `mapstructure:"AllowedPaths"`
	// AllowedExtensions 为必填的后缀白名单（逗号分隔），例如 ".jar,.pom"。
	AllowedExtensions string `mapstructure:"AllowedExtensions"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig   `mapstructure:",squash"`
	Registry RegistryConfig `mapstructure:"Registry"`
}

// HasCredential 表示是否配置了上游 Bearer 凭证。
func (r RegistryConfig) HasCredential() bool {
	return strings.TrimSpace(r.Token) != ""
}

// AuthMode 输出 `credentialed` 或 `anonymous`，供日志字段使用。
func (r RegistryConfig) AuthMode() string {
	if r.HasCredential() {
		return "credentialed"
	}
	return "anonymous"
}

// UpstreamBase 解析出 <RegistryBase>/<Owner>/<Repo> 形式的回源基地址。
func (r RegistryConfig) UpstreamBase() (*url.URL, error) {
	base, err := url.Parse(strings.TrimRight(r.RegistryBase, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse registry base: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("registry base must be an absolute URL: %s", r.RegistryBase)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/" + r.Owner + "/" + r.Repo
	return base, nil
}

// SplitList 拆分逗号分隔的配置项，去掉空白并丢弃空元素。
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

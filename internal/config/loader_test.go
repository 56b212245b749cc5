package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, validConfig))
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	if cfg.Global.ListenPort != 5000 {
		t.Fatalf("默认端口应为 5000，得到 %d", cfg.Global.ListenPort)
	}
	if cfg.Global.CacheBackend != BackendSQLite {
		t.Fatalf("默认缓存后端应为 sqlite，得到 %s", cfg.Global.CacheBackend)
	}
	if cfg.Global.CacheTTL.DurationValue() != 5*time.Minute {
		t.Fatalf("默认 TTL 应为 5 分钟，得到 %v", cfg.Global.CacheTTL.DurationValue())
	}
	if cfg.Registry.RegistryBase != "https://maven.pkg.github.com" {
		t.Fatalf("默认 RegistryBase 不符: %s", cfg.Registry.RegistryBase)
	}
}

func TestLoadParsesDurationVariants(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, `
CacheTTL = "2m"
UpstreamTimeout = 10

[Registry]
Owner = "acme"
Repo = "libs"
AllowedExtensions = ".jar"
`))
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Global.CacheTTL.DurationValue() != 2*time.Minute {
		t.Fatalf("CacheTTL 解析错误: %v", cfg.Global.CacheTTL.DurationValue())
	}
	if cfg.Global.UpstreamTimeout.DurationValue() != 10*time.Second {
		t.Fatalf("纯数字秒值解析错误: %v", cfg.Global.UpstreamTimeout.DurationValue())
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	if _, err := Load(writeTempConfig(t, `
CacheTTL = "boom"

[Registry]
Owner = "acme"
Repo = "libs"
AllowedExtensions = ".jar"
`)); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadFailsWhenFileMissing(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Fatalf("缺失配置文件应返回错误")
	}
}

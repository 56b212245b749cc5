package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateRequiresAllowedExtensions(t *testing.T) {
	_, err := Load(writeTempConfig(t, `
[Registry]
Owner = "acme"
Repo = "libs"
`))
	if err == nil {
		t.Fatalf("缺失 AllowedExtensions 应在启动阶段失败")
	}
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "Registry.AllowedExtensions" {
		t.Fatalf("期望 AllowedExtensions 字段错误，得到 %v", err)
	}
}

func TestValidateRejectsMalformedPathPattern(t *testing.T) {
	_, err := Load(writeTempConfig(t, `
[Registry]
Owner = "acme"
Repo = "libs"
AllowedExtensions = ".jar"
AllowedPaths = "^com/(unclosed"
`))
	if err == nil {
		t.Fatalf("非法正则应在加载时失败")
	}
	if !strings.Contains(err.Error(), "AllowedPaths") {
		t.Fatalf("错误应指向 AllowedPaths 字段: %v", err)
	}
}

func TestValidateAllowsMissingToken(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, `
[Registry]
Owner = "acme"
Repo = "libs"
AllowedExtensions = ".jar"
`))
	if err != nil {
		t.Fatalf("缺失 Token 不应阻止启动: %v", err)
	}
	if cfg.Registry.HasCredential() {
		t.Fatalf("未配置 Token 时 HasCredential 应为 false")
	}
	if cfg.Registry.AuthMode() != "anonymous" {
		t.Fatalf("AuthMode 应为 anonymous，得到 %s", cfg.Registry.AuthMode())
	}
}

func TestValidateCacheBackend(t *testing.T) {
	if _, err := Load(writeTempConfig(t, `
CacheBackend = "redis"

[Registry]
Owner = "acme"
Repo = "libs"
AllowedExtensions = ".jar"
`)); err == nil {
		t.Fatalf("未知缓存后端应被拒绝")
	}

	if _, err := Load(writeTempConfig(t, `
CacheBackend = "disk"

[Registry]
Owner = "acme"
Repo = "libs"
AllowedExtensions = ".jar"
`)); err == nil {
		t.Fatalf("disk 后端缺失 CachePath 应被拒绝")
	}
}

func TestUpstreamBaseComposition(t *testing.T) {
	r := RegistryConfig{RegistryBase: "https://maven.pkg.github.com/", Owner: "acme", Repo: "libs"}
	base, err := r.UpstreamBase()
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if base.String() != "https://maven.pkg.github.com/acme/libs" {
		t.Fatalf("基地址拼接错误: %s", base.String())
	}
}

package authz

import "testing"

func TestPathFilterAllowsEverythingWhenUnconfigured(t *testing.T) {
	filter, err := NewPathFilter("")
	if err != nil {
		t.Fatalf("空白名单不应报错: %v", err)
	}
	if !filter.Allowed("com/example/lib/1.0/lib-1.0.jar") {
		t.Fatalf("未配置白名单时应放行所有路径")
	}
	if filter.Restricted() {
		t.Fatalf("空白名单不应视为受限")
	}
}

func TestPathFilterMatchesAnyPattern(t *testing.T) {
	filter, err := NewPathFilter("^com/example/, ^org/acme/")
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}

	cases := []struct {
		path string
		want bool
	}{
		{"com/example/lib/1.0/lib-1.0.jar", true},
		{"org/acme/tool/2.0/tool-2.0.pom", true},
		{"net/other/lib/1.0/lib-1.0.jar", false},
	}
	for _, tc := range cases {
		if got := filter.Allowed(tc.path); got != tc.want {
			t.Fatalf("Allowed(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestPathFilterUsesSubstringSemantics(t *testing.T) {
	filter, err := NewPathFilter("example")
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	if !filter.Allowed("com/example/lib/1.0/lib-1.0.jar") {
		t.Fatalf("无锚点正则应按子串匹配")
	}
}

func TestPathFilterRejectsMalformedPattern(t *testing.T) {
	if _, err := NewPathFilter("^com/(unclosed"); err == nil {
		t.Fatalf("非法正则应在构造时报错，不允许静默跳过")
	}
}

func TestPathFilterEmptyAfterParsingAllowsAll(t *testing.T) {
	filter, err := NewPathFilter(" , ,")
	if err != nil {
		t.Fatalf("纯分隔符不应报错: %v", err)
	}
	if !filter.Allowed("anything") {
		t.Fatalf("解析后为空的白名单按放行全部处理")
	}
}

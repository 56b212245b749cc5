// Package authz 实现请求准入：路径正则白名单与文件后缀白名单。
// 所有匹配器在配置加载阶段编译一次，运行期只读，可安全并发使用。
package authz

import (
	"fmt"
	"regexp"

	"github.com/pkg-relay/pkg-relay/internal/config"
)

// PathFilter 持有编译好的路径白名单。零条目时放行所有路径。
type PathFilter struct {
	raw      string
	patterns []*regexp.Regexp
}

// NewPathFilter 编译逗号分隔的正则白名单。空串或纯空白等价于不限制。
// 任何一条正则非法都会返回错误，不允许静默跳过。
func NewPathFilter(list string) (*PathFilter, error) {
	f := &PathFilter{raw: list}
	for _, pattern := range config.SplitList(list) {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile path pattern %q: %w", pattern, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Allowed 判断路径是否命中至少一条白名单正则；未配置白名单时恒为 true。
// 正则按子串语义匹配，需要全路径匹配的模式应自行加锚点。
func (f *PathFilter) Allowed(path string) bool {
	if f == nil || len(f.patterns) == 0 {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Raw 返回原始配置串，供拒绝日志输出。
func (f *PathFilter) Raw() string {
	if f == nil {
		return ""
	}
	return f.raw
}

// Restricted 返回是否配置了至少一条有效正则。
func (f *PathFilter) Restricted() bool {
	return f != nil && len(f.patterns) > 0
}

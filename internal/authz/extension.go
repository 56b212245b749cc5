package authz

import (
	"errors"
	"strings"

	"github.com/pkg-relay/pkg-relay/internal/config"
)

// ErrNoExtensions 表示后缀白名单缺失。后缀白名单没有默认值，缺失即配置错误。
var ErrNoExtensions = errors.New("allowed extensions not configured")

// ExtensionFilter 持有允许的文件后缀集合，匹配为大小写敏感的精确后缀。
type ExtensionFilter struct {
	suffixes []string
}

// NewExtensionFilter 解析逗号分隔的后缀白名单；解析后为空视为配置错误。
func NewExtensionFilter(list string) (*ExtensionFilter, error) {
	suffixes := config.SplitList(list)
	if len(suffixes) == 0 {
		return nil, ErrNoExtensions
	}
	return &ExtensionFilter{suffixes: suffixes}, nil
}

// Allowed 判断路径是否以任一配置后缀结尾。
func (f *ExtensionFilter) Allowed(path string) bool {
	for _, suffix := range f.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Suffixes 返回配置的后缀列表，供拒绝日志输出。
func (f *ExtensionFilter) Suffixes() []string {
	return f.suffixes
}

// Package upstream 负责向私有制品仓库发起带凭证的回源请求。
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pkg-relay/pkg-relay/internal/version"
)

// ErrNoCredential 表示未配置上游凭证。凭证缺失时不发起网络请求。
var ErrNoCredential = errors.New("upstream credential not configured")

// DefaultAccept 是调用方未携带 Accept 时的回退值。
const DefaultAccept = "application/octet-stream"

// Error 表示网络层面的回源失败。上游返回非 2xx 不属于此类错误，
// 那是一个有效结果，由调用方按镜像状态处理。
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher 持有共享客户端与凭证，对上游只发 GET。
// HEAD 由下游整形满足，保证任何一次回源后缓存都是完整的。
type Fetcher struct {
	client *http.Client
	token  string
}

// NewFetcher 构造 Fetcher。token 允许为空，空值在 Fetch 时快速失败。
func NewFetcher(client *http.Client, token string) *Fetcher {
	return &Fetcher{
		client: client,
		token:  token,
	}
}

// Fetch 向 targetURL 发起带 Bearer 凭证的 GET。
// accept 为空时回退到 DefaultAccept。网络失败返回 *Error。
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, accept string) (*http.Response, error) {
	if f.token == "" {
		return nil, ErrNoCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
	if err != nil {
		return nil, &Error{URL: targetURL, Err: err}
	}

	if accept == "" {
		accept = DefaultAccept
	}
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", version.UserAgent())
	// 对出站请求无实际作用，保留以便抓包/日志对称。
	req.Header.Set("Access-Control-Allow-Origin", "*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: targetURL, Err: err}
	}
	return resp, nil
}

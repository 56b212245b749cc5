package cache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
)

// Entry 表示一条缓存的上游响应。Body 为空切片时代表无正文。
// 写入缓存后条目视为不可变；HEAD 整形通过副本完成，不回写存储。
type Entry struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
}

// NewEntry 从上游响应构造条目，正文已被完整读出。
func NewEntry(status int, header http.Header, body []byte) *Entry {
	e := &Entry{
		Status:     status,
		StatusText: http.StatusText(status),
		Header:     http.Header{},
		Body:       body,
	}
	for key, values := range header {
		for _, value := range values {
			e.Header.Add(key, value)
		}
	}
	return e
}

// ForMethod 根据原始请求方法整形：HEAD 返回去掉正文的副本，其余原样返回。
func (e *Entry) ForMethod(method string) *Entry {
	if method != http.MethodHead {
		return e
	}
	clone := *e
	clone.Body = nil
	return &clone
}

// Encode 将条目序列化为 HTTP/1.1 报文字节，与 Decode 对称。
func (e *Entry) Encode() ([]byte, error) {
	statusText := e.StatusText
	if statusText == "" {
		statusText = http.StatusText(e.Status)
	}
	res := &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, statusText),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
	}
	return httputil.DumpResponse(res, true)
}

// Decode 从序列化字节还原条目。
func Decode(b []byte) (*Entry, error) {
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read cached body: %w", err)
	}

	statusText := strings.TrimSpace(strings.TrimPrefix(res.Status, fmt.Sprintf("%d", res.StatusCode)))
	return &Entry{
		Status:     res.StatusCode,
		StatusText: statusText,
		Header:     res.Header,
		Body:       body,
	}, nil
}

// Package cache 封装共享响应缓存：以规范化 key 存取序列化后的 HTTP 响应，
// 条目带绝对过期时间，过期后按未命中处理。
package cache

import (
	"context"
	"errors"
	"time"
)

// Store 是响应缓存的存储后端。实现必须并发安全；
// 同一 key 的写入为 last-write-wins，读取不得返回半写状态。
type Store interface {
	// Get 返回 key 对应的序列化响应。条目不存在或已过期时 ok 为 false，
	// 过期条目由实现顺手清除。
	Get(ctx context.Context, key string) (b []byte, ok bool, err error)

	// Put 写入序列化响应并记录绝对过期时间，覆盖旧条目。
	Put(ctx context.Context, key string, expires time.Time, b []byte) error

	// Purge 删除 key 对应的条目，不存在时不报错。
	Purge(ctx context.Context, key string) error

	// Close 释放后端资源。
	Close() error
}

// ErrStoreUnavailable 表示未注入存储后端。
var ErrStoreUnavailable = errors.New("cache store unavailable")

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Key 返回目标 URL 的规范化缓存键。方法固定为 GET，
// 使 HEAD 请求可以命中先前 GET 写入的条目（反之亦然）。
func Key(target string) string {
	return "GET:" + target
}

// Gateway 在 Store 之上提供管道需要的语义：查找、TTL 盖章与后台写入。
// 写入通过 WaitGroup 跟踪，宿主在退出前调用 Flush 等待全部落盘。
type Gateway struct {
	store  Store
	ttl    time.Duration
	logger *logrus.Logger
	now    func() time.Time

	wg sync.WaitGroup
}

// NewGateway 构造网关，ttl 即条目的固定新鲜期。
func NewGateway(store Store, ttl time.Duration, logger *logrus.Logger) *Gateway {
	return &Gateway{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// TTL 返回网关使用的新鲜期。
func (g *Gateway) TTL() time.Duration {
	return g.ttl
}

// Lookup 查找缓存条目；未命中、已过期或后端出错都按 miss 处理，
// 后端错误只记日志，不打断请求。
func (g *Gateway) Lookup(ctx context.Context, key string) (*Entry, bool) {
	if g.store == nil {
		return nil, false
	}

	b, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.WithError(err).WithField("action", "cache_get").Warn("cache_get_failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	entry, err := Decode(b)
	if err != nil {
		g.logger.WithError(err).WithField("action", "cache_decode").Warn("cache_decode_failed")
		_ = g.store.Purge(ctx, key)
		return nil, false
	}
	return entry, true
}

// Store 给条目盖上缓存头后调度后台写入。条目的 Cache-Control 与 CORS 头
// 被无条件覆盖（同步完成，调用方随后写出的响应携带同样的头），
// 实际落盘在后台 goroutine 中进行，响应路径不等待。
func (g *Gateway) Store(key string, entry *Entry) {
	if g.store == nil || entry == nil {
		return
	}

	Annotate(entry, g.ttl)

	b, err := entry.Encode()
	if err != nil {
		g.logger.WithError(err).WithField("action", "cache_encode").Warn("cache_encode_failed")
		return
	}
	expires := g.now().Add(g.ttl)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		// 请求上下文在响应写出后即失效，落盘用独立 context。
		if err := g.store.Put(context.Background(), key, expires, b); err != nil {
			g.logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_put",
				"key":    key,
			}).Warn("cache_put_failed")
		}
	}()
}

// Flush 等待所有后台写入完成，供优雅退出与测试使用。
func (g *Gateway) Flush() {
	g.wg.Wait()
}

// Close 等待后台写入后关闭存储后端。
func (g *Gateway) Close() error {
	g.Flush()
	if g.store == nil {
		return nil
	}
	return g.store.Close()
}

// Annotate 覆盖条目的 Cache-Control 与 CORS 头，上游同名头一律作废。
func Annotate(entry *Entry, ttl time.Duration) {
	entry.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl/time.Second)))
	entry.Header.Set("Access-Control-Allow-Origin", "*")
}

// Package proxy 实现请求管道：准入校验 → 缓存查找 → 回源 → 写缓存 → 整形响应。
package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/pkg-relay/pkg-relay/internal/authz"
	"github.com/pkg-relay/pkg-relay/internal/cache"
	"github.com/pkg-relay/pkg-relay/internal/config"
	"github.com/pkg-relay/pkg-relay/internal/logging"
	"github.com/pkg-relay/pkg-relay/internal/server"
	"github.com/pkg-relay/pkg-relay/internal/upstream"
)

const allowOrigin = "*"

// Pipeline 按固定顺序处理每个请求，除共享缓存外不持有跨请求状态。
type Pipeline struct {
	upstreamBase *url.URL
	authMode     string
	paths        *authz.PathFilter
	exts         *authz.ExtensionFilter
	gateway      *cache.Gateway
	fetcher      *upstream.Fetcher
	logger       *logrus.Logger
}

// NewPipeline 组装管道。过滤器在配置加载阶段编译完成，这里只负责组合。
func NewPipeline(
	cfg *config.Config,
	paths *authz.PathFilter,
	exts *authz.ExtensionFilter,
	gateway *cache.Gateway,
	fetcher *upstream.Fetcher,
	logger *logrus.Logger,
) (*Pipeline, error) {
	base, err := cfg.Registry.UpstreamBase()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		upstreamBase: base,
		authMode:     cfg.Registry.AuthMode(),
		paths:        paths,
		exts:         exts,
		gateway:      gateway,
		fetcher:      fetcher,
		logger:       logger,
	}, nil
}

// Handle 执行完整管道。任何终态都在本请求内结束，不向外传播错误。
func (p *Pipeline) Handle(c fiber.Ctx) error {
	started := time.Now()
	method := c.Method()
	stripped := strippedPath(string(c.Request().URI().Path()))

	if !p.paths.Allowed(stripped) {
		p.logger.WithFields(logrus.Fields{
			"action":        "authz",
			"path":          stripped,
			"allowed_paths": p.paths.Raw(),
		}).Warn("path_rejected")
		return p.writeError(c, fiber.StatusNotFound, "path_not_allowed")
	}

	if !p.exts.Allowed(stripped) {
		p.logger.WithFields(logrus.Fields{
			"action":             "authz",
			"path":               stripped,
			"allowed_extensions": p.exts.Suffixes(),
		}).Warn("extension_rejected")
		return p.writeError(c, fiber.StatusNotFound, "extension_not_allowed")
	}

	switch method {
	case http.MethodOptions:
		// 预检不碰缓存也不回源。
		c.Set("Access-Control-Allow-Origin", allowOrigin)
		c.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Accept, HEAD")
		return c.SendStatus(fiber.StatusNoContent)
	case http.MethodGet, http.MethodHead:
		// continue
	default:
		return p.writeError(c, fiber.StatusMethodNotAllowed, "method_not_allowed")
	}

	target := p.targetURL(stripped)
	key := cache.Key(target)

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if entry, ok := p.gateway.Lookup(ctx, key); ok {
		p.logResult(stripped, method, entry.Status, true, started, nil)
		return p.respond(c, entry.ForMethod(method))
	}

	resp, err := p.fetcher.Fetch(ctx, target, c.Get("Accept"))
	if err != nil {
		return p.handleFetchError(c, stripped, method, started, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// 正文中断等同网络失败，不污染缓存。
		p.logResult(stripped, method, 0, false, started, err)
		return p.writeError(c, fiber.StatusInternalServerError, "upstream_failed")
	}

	// 成功与失败响应同样缓存，持续故障期间不反复打上游。
	entry := cache.NewEntry(resp.StatusCode, resp.Header, body)
	p.gateway.Store(key, entry)

	p.logResult(stripped, method, entry.Status, false, started, nil)
	return p.respond(c, entry.ForMethod(method))
}

func (p *Pipeline) handleFetchError(c fiber.Ctx, path, method string, started time.Time, err error) error {
	if errors.Is(err, upstream.ErrNoCredential) {
		p.logger.WithFields(logrus.Fields{
			"action": "fetch",
			"path":   path,
		}).Error("credential_missing")
		return p.writeError(c, fiber.StatusInternalServerError, "credential_missing")
	}

	p.logResult(path, method, 0, false, started, err)
	return p.writeError(c, fiber.StatusInternalServerError, "upstream_failed")
}

// respond 将条目写出为下游响应。Content-Length 与 hop-by-hop 头交给
// 传输层处理，不从缓存条目透传。
func (p *Pipeline) respond(c fiber.Ctx, entry *cache.Entry) error {
	for key, values := range entry.Header {
		if server.IsHopByHopHeader(key) || http.CanonicalHeaderKey(key) == "Content-Length" {
			continue
		}
		for _, value := range values {
			c.Set(key, value)
		}
	}

	c.Status(entry.Status)
	if entry.Body == nil {
		return nil
	}
	return c.Send(entry.Body)
}

func (p *Pipeline) writeError(c fiber.Ctx, status int, code string) error {
	c.Set("Access-Control-Allow-Origin", allowOrigin)
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (p *Pipeline) logResult(path, method string, status int, cacheHit bool, started time.Time, err error) {
	fields := logging.RequestFields(path, method, p.authMode, cacheHit)
	fields["action"] = "proxy"
	fields["upstream"] = p.upstreamBase.String()
	fields["upstream_status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if err != nil {
		fields["error"] = err.Error()
		p.logger.WithFields(fields).Error("proxy_failed")
		return
	}
	p.logger.WithFields(fields).Info("proxy_complete")
}

// targetURL 计算 <upstream-base>/<stripped-path> 的回源地址。
func (p *Pipeline) targetURL(stripped string) string {
	target := *p.upstreamBase
	target.Path = strings.TrimRight(target.Path, "/") + "/" + stripped
	return target.String()
}

// strippedPath 规范化请求路径并去掉开头的斜杠，供准入检查与键计算使用。
func strippedPath(raw string) string {
	if raw == "" {
		raw = "/"
	}
	clean := path.Clean("/" + raw)
	return strings.TrimPrefix(clean, "/")
}

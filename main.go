package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pkg-relay/pkg-relay/internal/authz"
	"github.com/pkg-relay/pkg-relay/internal/cache"
	"github.com/pkg-relay/pkg-relay/internal/config"
	"github.com/pkg-relay/pkg-relay/internal/logging"
	"github.com/pkg-relay/pkg-relay/internal/proxy"
	"github.com/pkg-relay/pkg-relay/internal/server"
	"github.com/pkg-relay/pkg-relay/internal/upstream"
	"github.com/pkg-relay/pkg-relay/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["upstream"] = cfg.Registry.RegistryBase
		fields["auth_mode"] = cfg.Registry.AuthMode()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	paths, err := authz.NewPathFilter(cfg.Registry.AllowedPaths)
	if err != nil {
		fmt.Fprintf(stdErr, "路径白名单编译失败: %v\n", err)
		return 1
	}
	if cfg.Registry.AllowedPaths != "" && !paths.Restricted() {
		// 配置了 AllowedPaths 却解析出零条正则，维持放行语义但提醒运维。
		logger.WithFields(logrus.Fields{
			"action":        "startup",
			"allowed_paths": cfg.Registry.AllowedPaths,
		}).Warn("路径白名单为空，按放行全部处理")
	}

	exts, err := authz.NewExtensionFilter(cfg.Registry.AllowedExtensions)
	if err != nil {
		fmt.Fprintf(stdErr, "后缀白名单加载失败: %v\n", err)
		return 1
	}

	store, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存失败: %v\n", err)
		return 1
	}

	gateway := cache.NewGateway(store, cfg.Global.CacheTTL.DurationValue(), logger)
	defer gateway.Close()

	fetcher := upstream.NewFetcher(upstream.NewClient(cfg), cfg.Registry.Token)
	pipeline, err := proxy.NewPipeline(cfg, paths, exts, gateway, fetcher, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "组装请求管道失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["upstream"] = cfg.Registry.RegistryBase
	fields["auth_mode"] = cfg.Registry.AuthMode()
	fields["cache_backend"] = cfg.Global.CacheBackend
	fields["cache_ttl_s"] = cfg.Global.CacheTTL.Seconds()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, pipeline, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// newStore 按配置选择缓存后端。
func newStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Global.CacheBackend {
	case config.BackendDisk:
		return cache.NewDiskStore(cfg.Global.CachePath)
	default:
		return cache.NewSQLiteStore(cfg.Global.CachePath)
	}
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("pkg-relay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 PKG_RELAY_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("PKG_RELAY_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// startHTTPServer 启动 Fiber 服务并阻塞到收到退出信号，退出前等待后台缓存写入。
func startHTTPServer(cfg *config.Config, pipeline server.Handler, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Proxy:      pipeline,
		ListenPort: port,
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", port))
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.WithFields(logrus.Fields{
			"action": "shutdown",
			"signal": sig.String(),
		}).Info("收到退出信号")
		if err := app.Shutdown(); err != nil {
			return err
		}
		return nil
	}
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/orthanc-gateway/internal/auth"
	"github.com/any-hub/orthanc-gateway/internal/cache"
	"github.com/any-hub/orthanc-gateway/internal/config"
	"github.com/any-hub/orthanc-gateway/internal/logging"
	"github.com/any-hub/orthanc-gateway/internal/metrics"
	"github.com/any-hub/orthanc-gateway/internal/orthanc"
	"github.com/any-hub/orthanc-gateway/internal/proxy"
	"github.com/any-hub/orthanc-gateway/internal/server"
	"github.com/any-hub/orthanc-gateway/internal/server/routes"
	"github.com/any-hub/orthanc-gateway/internal/version"
)

// envConfigPath 允许以环境变量指定配置路径，优先级低于 -config。
const envConfigPath = "GATEWAY_CONFIG"

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
		fmt.Fprintln(stdOut, version.Full())
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
		fields["origin"] = cfg.Origin.URL
		fields["origin_auth"] = cfg.Origin.AuthMode()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	app, err := buildApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化网关失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["origin"] = cfg.Origin.URL
	fields["origin_auth"] = cfg.Origin.AuthMode()
	fields["cache_dir"] = cfg.Global.CacheDir
	fields["worker_pool_size"] = cfg.Global.WorkerPoolSize
	fields["api_key"] = cfg.MaskedAPIKey()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// buildApp 按“磁盘缓存 → 指标 → Orthanc 客户端 → Fiber app → 路由”顺序装配网关，
// 所有请求共享同一个缓存与上游连接池。
func buildApp(cfg *config.Config, logger *logrus.Logger) (*fiber.App, error) {
	store, err := cache.NewStore(cfg.Global.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("初始化缓存目录失败: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(metrics.DefaultNamespace, registry)

	client, err := orthanc.NewClient(cfg.Origin, server.NewUpstreamClient(cfg), collector)
	if err != nil {
		return nil, fmt.Errorf("构建 Orthanc 客户端失败: %w", err)
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:         logger,
		WorkerPoolSize: cfg.Global.WorkerPoolSize,
	})
	if err != nil {
		return nil, err
	}

	err = routes.RegisterGatewayRoutes(app, routes.Dependencies{
		Gate:      auth.NewGate(cfg.Global.APIKey, logger),
		Handler:   proxy.NewHandler(client, store, logger, collector),
		Forwarder: proxy.NewForwarder(client, logger, collector),
		Metrics:   collector,
		Settings:  routes.SettingsFromConfig(cfg),
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("orthanc-gateway", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 GATEWAY_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv(envConfigPath)
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

func startHTTPServer(app *fiber.App, port int, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}

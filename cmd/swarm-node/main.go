// Package main 提供 swarm 节点命令行入口
//
// 启动一个注册了回显协议的节点；可选地拨号另一个节点并发送一条消息。
//
//	swarm-node -listen /ip4/0.0.0.0/tcp/4001
//	swarm-node -dial /ip4/127.0.0.1/tcp/4001/p2p/<PeerID> -message hello
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	dep2p "github.com/dep2p/go-dep2p-swarm"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
)

var logger = log.Logger("swarm/cmd")

// EchoProtocol 回显协议
const EchoProtocol dep2p.ProtocolID = "/echo/1.0.0"

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖 / 快速测试
//   JSON 配置文件：持久化配置
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile   = flag.String("config", "", "配置文件路径（JSON）")
	listen       = flag.String("listen", "", "监听地址，逗号分隔（覆盖配置文件）")
	identityFile = flag.String("identity", "", "身份密钥文件路径")
	reuse        = flag.Bool("reuse", true, "复用入站多路复用连接")

	dial    = flag.String("dial", "", "拨号目标：<multiaddr>/p2p/<PeerID>")
	message = flag.String("message", "hello", "拨号成功后发送的消息")

	metricsAddr = flag.String("metrics", "", "Prometheus 指标 HTTP 监听地址，例如 127.0.0.1:9090")
	logLevel    = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(dep2p.VersionInfo())
		return nil
	}

	opts, err := buildOptions()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := dep2p.Start(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = node.Close() }()

	node.Handle(EchoProtocol, echoHandler)

	fmt.Printf("节点 ID: %s\n", node.ID())
	for _, addr := range node.ListenAddrs() {
		fmt.Printf("监听地址: %s/p2p/%s\n", addr, node.ID())
	}

	if *metricsAddr != "" {
		srv, err := serveMetrics(node, *metricsAddr)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Close() }()
	}

	if *dial != "" {
		if err := dialAndEcho(ctx, node, *dial, *message); err != nil {
			return err
		}
	}

	fmt.Println("节点运行中，按 Ctrl+C 退出")
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	fmt.Println("\n正在关闭节点...")
	return nil
}

// buildOptions 合并配置文件与命令行参数
func buildOptions() ([]dep2p.Option, error) {
	var opts []dep2p.Option

	if *configFile != "" {
		opts = append(opts, dep2p.WithConfigFile(*configFile))
	}
	if *listen != "" {
		addrs := strings.Split(*listen, ",")
		for i := range addrs {
			addrs[i] = strings.TrimSpace(addrs[i])
		}
		opts = append(opts, dep2p.WithListenAddrs(addrs...))
	}
	if *identityFile != "" {
		opts = append(opts, dep2p.WithIdentityFile(*identityFile))
	}
	if *logLevel != "" {
		opts = append(opts, dep2p.WithLogLevel(*logLevel))
	}
	if *metricsAddr != "" {
		opts = append(opts, dep2p.WithMetrics(true))
	}
	opts = append(opts, dep2p.WithReuse(*reuse))

	return opts, nil
}

// echoHandler 原样写回读到的数据
func echoHandler(s dep2p.Stream) {
	defer s.Close()
	if _, err := io.Copy(s, s); err != nil {
		logger.Debug("回显结束", "error", err)
	}
}

// parseTarget 拆分 <multiaddr>/p2p/<PeerID>
func parseTarget(target string) (*dep2p.PeerInfo, error) {
	i := strings.LastIndex(target, "/p2p/")
	if i < 0 {
		return nil, errors.New("拨号目标缺少 /p2p/<PeerID>")
	}
	return dep2p.ParsePeerInfo(target[i+len("/p2p/"):], target[:i])
}

// dialAndEcho 拨号目标节点，发送消息并打印回显
func dialAndEcho(ctx context.Context, node *dep2p.Node, target, msg string) error {
	pi, err := parseTarget(target)
	if err != nil {
		return err
	}

	start := time.Now()
	st, err := node.Dial(ctx, pi, EchoProtocol)
	if err != nil {
		return fmt.Errorf("拨号失败: %w", err)
	}
	defer st.Close()
	_ = st.SetDeadline(time.Now().Add(10 * time.Second))

	if _, err := st.Write([]byte(msg)); err != nil {
		return fmt.Errorf("发送失败: %w", err)
	}
	buf := make([]byte, len(msg))
	if _, err := io.ReadFull(st, buf); err != nil {
		return fmt.Errorf("读取回显失败: %w", err)
	}

	fmt.Printf("回显: %s (耗时 %s)\n", buf, time.Since(start).Round(time.Millisecond))
	return nil
}

// serveMetrics 启动指标 HTTP 服务
func serveMetrics(node *dep2p.Node, addr string) (*http.Server, error) {
	handler := node.MetricsHandler()
	if handler == nil {
		return nil, errors.New("指标未启用")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("指标服务退出", "error", err)
		}
	}()
	logger.Info("指标服务已启动", "addr", addr)
	return srv, nil
}

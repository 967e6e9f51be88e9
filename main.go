package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"kanilife/server"
)

// kani-life 入口：读取配置，创建世界与处理器，启动 HTTP + WebSocket 服务
func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		panic(err)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8000")
	flag.IntVar(&cfg.GridSize, "size", cfg.GridSize, "grid side length")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	if err := server.InitLogger(cfg.LogOptions()); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := server.SetupTelemetry(ctx, cfg)
	if err != nil {
		server.Log.Warnf("tracing disabled: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	world := cfg.NewWorld()
	proc := server.NewProcessor(world, cfg.InboxSize, server.NewMetrics())
	server.Log.Infof("world ready: size=%d policy=%s", world.Size(), cfg.SpawnPolicy)

	if err := server.New(cfg, proc).Run(ctx); err != nil {
		server.Log.Fatalf("server: %v", err)
	}
	server.Log.Info("Done.")
}

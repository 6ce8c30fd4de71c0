package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"lockstep/server"
	"lockstep/server/application"
	"lockstep/server/config"
	"lockstep/server/domain"
	"lockstep/server/recorder"
	"lockstep/utils"
)

func main() {
	configPath := flag.String("config", utils.GetEnvDefault("LOCKSTEP_CONFIG", ""), "path to lockstep.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "tracing setup failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "tracing shutdown failed", "err", err)
		}
	}()

	if err := run(ctx, cfg); err != nil {
		slog.ErrorContext(ctx, "node failed", "err", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "node shutdown complete")
}

func run(ctx context.Context, cfg config.Config) error {
	side, err := cfg.Side()
	if err != nil {
		return err
	}

	nodeCfg := server.NodeConfig{
		ControllableSide:      side,
		InputDelayFrames:      cfg.InputDelayFrames,
		ScheduleHorizonFrames: cfg.ScheduleHorizonFrames,
		Applier:               application.NewOrderBook(),
	}
	if cfg.RecordDir != "" {
		rec, err := recorder.NewFileWriter(cfg.RecordDir, "match")
		if err != nil {
			return fmt.Errorf("recorder: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.ErrorContext(ctx, "recorder close failed", "err", err)
			}
		}()
		nodeCfg.Recorder = rec
		slog.InfoContext(ctx, "recording messages", "path", rec.Path())
	}

	node, err := server.NewNode(nodeCfg)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return node.Run(ctx) })

	// 操作勢力はローカルのボットが代理で操作する
	bots := []domain.SideID{side}
	for s := domain.SideYellow; s <= domain.SideGreen && len(bots) <= cfg.BotCount; s++ {
		if s != side {
			bots = append(bots, s)
		}
	}
	seed := uint64(time.Now().UnixNano())
	for i, s := range bots {
		bot := application.NewRuleBot(s, seed+uint64(i))
		name := cfg.Username
		if s != side {
			name = fmt.Sprintf("bot-%s", s)
		}
		eg.Go(func() error { return node.RunBot(ctx, bot, name) })
	}

	slog.InfoContext(ctx, "node started",
		"side", side,
		"bots", len(bots)-1,
		"inputDelay", cfg.InputDelayFrames,
		"tickPeriod", domain.PhysicsTickPeriod,
	)
	return eg.Wait()
}

// setupTracing は OTEL_EXPORTER_OTLP_ENDPOINT が設定されていればOTLP gRPCへのエクスポータを登録します。
// 未設定ならグローバルのno-opプロバイダのままにします。
func setupTracing(ctx context.Context) (func(context.Context) error, error) {
	if utils.GetEnvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "") == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", utils.GetEnvDefault("OTEL_SERVICE_NAME", "lockstep")),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"drawvec/isolate"
	"drawvec/logging"
	"drawvec/pipeline"
	"drawvec/server"
	"drawvec/vectorize"
)

func main() {
	configPath := flag.String("config", "drawvec.yaml", "配置文件路径")
	flag.Parse()

	// .env 可选，没有就用环境与默认值
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	log := logging.New(cfg.DevMode, cfg.LogFile)
	defer log.Sync()

	log.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.Int64("max_file_size", cfg.MaxFileSize),
		zap.Int("max_dimension", cfg.MaxDimension),
		zap.String("tracer_binary", cfg.TracerBinary),
		zap.String("oracle_binary", cfg.OracleBinary),
		zap.Duration("trace_timeout", cfg.TraceTimeout),
		zap.Int("trace_workers", cfg.TraceWorkers),
		zap.Bool("dev_mode", cfg.DevMode))

	// 能力探测只做一次：外部抠图模型与 potrace 的可用性在启动期确定
	var oracle isolate.Oracle
	if o, err := isolate.NewCommandOracle(cfg.OracleBinary, cfg.TraceTimeout); err != nil {
		log.Warn("AI foreground oracle unavailable, threshold fallback only", zap.Error(err))
	} else {
		oracle = o
	}

	var tracer vectorize.Tracer
	if t, err := vectorize.NewPotraceTracer(cfg.TracerBinary, cfg.TraceTimeout); err != nil {
		log.Warn("potrace binary unavailable, using in-process tracer", zap.Error(err))
		tracer = vectorize.NewGotraceTracer()
	} else {
		tracer = t
	}

	p := pipeline.New(oracle, tracer, cfg.TraceWorkers, cfg.MaxDimension, log)
	srv := server.New(p, cfg.MaxFileSize, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("drawvec service starting", zap.Int("port", cfg.Port))
	if err := srv.ListenAndServe(ctx, cfg.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("drawvec service stopped")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-coach-go/internal/api/handler"
	"resume-coach-go/internal/api/router"
	"resume-coach-go/internal/config"
	appLogger "resume-coach-go/internal/logger"
	"resume-coach-go/internal/parser"
	"resume-coach-go/internal/processor"
	"resume-coach-go/internal/storage"
	"resume-coach-go/internal/tracing"

	"resume-coach-go/internal/agent"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"           //nolint:gochecknoglobals
	serviceName = "resume-coach-go" //nolint:gochecknoglobals
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("加载配置失败")
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	if err := cfg.Validate(); err != nil {
		glog.Fatalf("配置校验失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracerProvider(ctx, serviceName, version, cfg.Tracing.Endpoint)
		if err != nil {
			glog.Fatalf("初始化追踪失败: %v", err)
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdown(shutdownCtx); err != nil {
				glog.Warnf("关闭追踪导出器失败: %v", err)
			}
		}()
		glog.Info("OpenTelemetry追踪初始化成功")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	aliyunEmbedder, err := parser.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		glog.Fatalf("初始化阿里云Embedder失败: %v", err)
	}
	glog.Info("阿里云Embedder初始化成功")

	// 判别、分析、对话各自可以指定不同模型
	classifierModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.GetModelForTask("classifier"), cfg.Aliyun.APIURL)
	if err != nil {
		glog.Fatalf("初始化判别模型失败: %v", err)
	}
	analyzerModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.GetModelForTask("analyzer"), cfg.Aliyun.APIURL)
	if err != nil {
		glog.Fatalf("初始化分析模型失败: %v", err)
	}
	coachModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.GetModelForTask("coach"), cfg.Aliyun.APIURL)
	if err != nil {
		glog.Fatalf("初始化对话模型失败: %v", err)
	}
	glog.Info("LLM聊天模型初始化成功")

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx)
	if err != nil {
		glog.Fatalf("创建Eino PDF提取器失败: %v", err)
	}
	glog.Info("Eino PDF解析器初始化成功")

	chunker, err := parser.NewWindowChunker(cfg.Coach.ChunkSize, cfg.Coach.ChunkOverlap)
	if err != nil {
		glog.Fatalf("初始化分块器失败: %v", err)
	}

	classifier := parser.NewResumeClassifier(classifierModel, cfg.Coach.MinResumeChars, cfg.Coach.MaxResumeChars)
	analyzer := parser.NewResumeAnalyzer(analyzerModel, cfg.GetModelForTask("analyzer"),
		parser.WithAnalysisCache(parser.NewBoundedAnalysisCache(cfg.Coach.AnalysisCacheSize)))

	serviceOpts := []processor.CoachServiceOption{}
	if storageManager.Redis != nil {
		serviceOpts = append(serviceOpts, processor.WithFastCache(storageManager.Redis))
	}
	if storageManager.MinIO != nil {
		serviceOpts = append(serviceOpts, processor.WithFileArchiver(storageManager.MinIO))
	}
	if storageManager.RabbitMQ != nil {
		serviceOpts = append(serviceOpts, processor.WithEventPublisher(storageManager.RabbitMQ))
	}

	coachService := processor.NewCoachService(
		pdfExtractor,
		classifier,
		chunker,
		aliyunEmbedder,
		analyzer,
		coachModel,
		storageManager.Qdrant,
		storageManager.MySQL,
		storageManager.MySQL,
		cfg.Coach.ResumeTopK,
		cfg.Coach.CoachTopK,
		serviceOpts...,
	)
	glog.Info("教练服务初始化成功")

	seeder := processor.NewCoachQASeeder(cfg.Coach.QAFile, aliyunEmbedder, storageManager.Qdrant)
	if err := seeder.SeedIfNeeded(ctx); err != nil {
		glog.Fatalf("灌入教练问答语料失败: %v", err)
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	coachHandler := handler.NewCoachHandler(coachService)
	router.RegisterRoutes(h, coachHandler, cfg.Server.APIKey)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger(cfg *config.Config) {
	appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	// Hertz框架日志走同一个zerolog实例
	glog.SetLogger(hertzadapter.From(appLogger.Logger))
}

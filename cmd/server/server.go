package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.uber.org/zap"

	"shiftpulse/config"
	"shiftpulse/internal/cache"
	"shiftpulse/internal/escalate"
	"shiftpulse/internal/middleware"
	"shiftpulse/internal/model"
	"shiftpulse/internal/poll"
	"shiftpulse/internal/queue"
	"shiftpulse/internal/router"
	"shiftpulse/internal/service"
	"shiftpulse/internal/upstream"
	"shiftpulse/pkg/logger"
	"shiftpulse/pkg/otel"
	"shiftpulse/pkg/qrdecode"
	"shiftpulse/pkg/snowflake"
	"shiftpulse/pkg/token"
	"shiftpulse/storage"
	storageredis "shiftpulse/storage/redis"
)

func main() {
	// 日志部分
	logger.Init()
	defer logger.Sync()

	config.MustValidate()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// 链路追踪
	if config.Cfg.OTelEnabled {
		shutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: config.Cfg.ServiceVersion,
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTLPEndpoint,
			SampleRatio:    config.Cfg.OTelSampleRate,
		})
		if err != nil {
			logger.Logger.Warn("Failed to initialize OpenTelemetry, tracing disabled", zap.Error(err))
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
				}
			}()

			if err := storageredis.EnableInstrumentation(config.Cfg.ServiceName, config.Cfg.RedisDB); err != nil {
				logger.Logger.Warn("Failed to instrument redis client", zap.Error(err))
			}
		}
	}

	// QR 解码服务
	qrdecode.Init()

	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	} // token 在中间件前初始化，middleware 依赖 token

	// 初始化中间件
	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	// 装配考勤核心：上游客户端 → 事实轮询 → 催办状态机 → 动作层
	upstreamClient, err := upstream.NewHTTPClient(upstream.Options{
		BaseURL:      config.Cfg.UpstreamBaseURL,
		ServiceToken: config.Cfg.UpstreamServiceToken,
		Timeout:      config.Cfg.UpstreamTimeout(),
	})
	if err != nil {
		logger.Logger.Fatal("Failed to create upstream client", zap.Error(err))
	}

	store := poll.NewStore()
	poller := poll.NewManager(store, upstreamClient, poll.Intervals{
		ClockStatus:      time.Duration(config.Cfg.ClockStatusIntervalSeconds) * time.Second,
		BreakRequirement: time.Duration(config.Cfg.BreakRequirementIntervalSeconds) * time.Second,
		ActiveBreak:      time.Duration(config.Cfg.ActiveBreakIntervalSeconds) * time.Second,
	}, config.Cfg.SessionIdleTimeout())

	escalation := escalate.NewManager(
		config.Cfg.EscalationDelay(),
		func(event model.EscalationEvent) {
			if err := queue.PublishEscalationEvent(event); err != nil {
				logger.Logger.Error("Escalation event lost", zap.String("event_id", event.EventID), zap.Error(err))
			}
		},
		store.Facts,
		cache.ArmGuard{},
	)

	poller.OnFacts(func(userID string, facts model.Facts) {
		escalation.Observe(userID, facts)
	})
	poller.OnStop(escalation.Forget)

	service.InitAttendance(upstreamClient, store, poller, escalation)

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	serverOpts := []hzconfig.Option{server.WithHostPorts(addr)}

	// 链路追踪打开时挂 Hertz 自带的 server tracer，span 跟自定义指标互补
	var tracerMiddleware app.HandlerFunc
	if config.Cfg.OTelEnabled {
		tracerOpt, tracerMW := middleware.NewServerTracerConfig()
		serverOpts = append(serverOpts, tracerOpt)
		tracerMiddleware = tracerMW
	}

	h := server.Default(serverOpts...)
	if tracerMiddleware != nil {
		h.Use(tracerMiddleware)
	}

	router.Register(h)

	// 优雅关闭：先停 HTTP，再拆轮询会话
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}

		poller.StopAll()
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	_ "github.com/lib/pq"

	"github.com/kangsudal/nerdycatcher-server/internal/auth"
	"github.com/kangsudal/nerdycatcher-server/internal/cache"
	"github.com/kangsudal/nerdycatcher-server/internal/config"
	"github.com/kangsudal/nerdycatcher-server/internal/evaluator"
	"github.com/kangsudal/nerdycatcher-server/internal/httpapi"
	"github.com/kangsudal/nerdycatcher-server/internal/hub"
	"github.com/kangsudal/nerdycatcher-server/internal/mqttbridge"
	"github.com/kangsudal/nerdycatcher-server/internal/notifier"
	"github.com/kangsudal/nerdycatcher-server/internal/repository"
)

// RelayService 中继服务（整合各层）
// 注册表与节流器在这里构造一次，以依赖形式传入各连接处理组件
type RelayService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	registry   *hub.Registry
	hubServer  *hub.Server
	httpServer *http.Server
	mqttBridge *mqttbridge.Bridge
}

// NewRelayService 创建中继服务
func NewRelayService(cfg *config.Config, logger *zap.Logger) (*RelayService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. Repository 层
	devicesRepo := repository.NewDevicesRepository(db, logger)
	plantsRepo := repository.NewPlantsRepository(db, logger)
	readingsRepo := repository.NewReadingsRepository(db, logger)
	subscriptionsRepo := repository.NewSubscriptionsRepository(db, logger)
	pushTokensRepo := repository.NewPushTokensRepository(db, logger)

	// 4. 外部协作者
	verifier := auth.NewSupabaseVerifier(cfg.Auth.Endpoint, cfg.Auth.AnonKey, devicesRepo, logger)
	pushNotifier := notifier.NewPushNotifier(cfg.Alert.PushEndpoint, pushTokensRepo, logger)
	realtimeCache := cache.NewRealtimeCache(redisClient, cfg.Cache.RealtimeKeyPrefix, cfg.Cache.RealtimeTTL, logger)

	// 5. 核心组件：注册表 → 广播/指令路由 → 评估器 → 管线
	registry := hub.NewRegistry()
	broadcaster := hub.NewBroadcaster(registry, logger)
	commands := hub.NewCommandRouter(registry, logger)
	throttle := evaluator.NewThrottle(cfg.Alert.ThrottleWindow)
	eval := evaluator.NewEvaluator(throttle, pushNotifier, logger)
	ingest := NewIngestService(readingsRepo, plantsRepo, subscriptionsRepo, realtimeCache, broadcaster, eval, logger)

	// 6. 接入层
	gate := hub.NewGate(verifier, logger)
	hubServer := hub.NewServer(registry, gate, ingest, commands, cfg.Auth.GracePeriod, logger)

	readingsHandler := httpapi.NewReadingsHandler(realtimeCache, verifier, ingest, logger)
	doctorHandler := httpapi.NewDoctorHandler(db, redisClient, logger)
	router := httpapi.NewRouter(logger)
	router.RegisterRelayRoutes(hubServer, readingsHandler, doctorHandler)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	s := &RelayService{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		logger:      logger,
		registry:    registry,
		hubServer:   hubServer,
		httpServer:  httpServer,
	}

	// 7. 可选的 MQTT 桥
	if cfg.MQTT.Enabled {
		s.mqttBridge = mqttbridge.NewBridge(mqttbridge.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		}, verifier, ingest, logger)
	}

	return s, nil
}

// Start 启动服务，阻塞直到 ctx 取消或监听失败
func (s *RelayService) Start(ctx context.Context) error {
	s.logger.Info("Starting relay service",
		zap.String("addr", s.config.HTTP.Addr),
	)

	if s.mqttBridge != nil {
		if err := s.mqttBridge.Start(); err != nil {
			return fmt.Errorf("failed to start mqtt bridge: %w", err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown failed",
				zap.Error(err),
			)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("http server error: %w", err)
	}
}

// Stop 释放资源
func (s *RelayService) Stop() error {
	s.logger.Info("Stopping relay service")

	if s.mqttBridge != nil {
		s.mqttBridge.Stop()
	}

	// 关闭所有仍在线的连接
	s.registry.ForEachOpen(func(c *hub.Conn) {
		c.Close()
	})

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}
	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

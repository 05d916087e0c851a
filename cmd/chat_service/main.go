package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "chat_delivery_service/cmd/chat_service/docs" // 引入生成的 Swagger 文档
	accountrepo "chat_delivery_service/internal/account/repository"
	"chat_delivery_service/internal/chat/api/handlers"
	"chat_delivery_service/internal/chat/app"
	"chat_delivery_service/internal/chat/hub"
	"chat_delivery_service/internal/chat/repository"
	"chat_delivery_service/internal/chat/router"
	"chat_delivery_service/pkg/cache"
	"chat_delivery_service/pkg/config"
	"chat_delivery_service/pkg/database"
	"chat_delivery_service/pkg/logger"
	testtool "chat_delivery_service/pkg/test_tool"
	"chat_delivery_service/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	cfg.ApplyDefaults()
	defer logger.Log.Sync()

	token.Configure(cfg.JWT.Secret, cfg.JWT.TTL)
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 建立 PostgreSQL 連線, gorm 存 conversation / message, pgx 查 account
	pg := cfg.PostgreSQL
	pgConn := database.Connection{
		ConnectStr:    database.PostgresDSN(pg.Host, pg.Port, pg.User, pg.Password, pg.Database, pg.SSLMode),
		RetryCount:    pg.RetryCount,
		RetryInterval: time.Duration(pg.RetryInterval),
	}
	db, err := database.NewPGConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL (gorm) after retries", zap.String("host", pg.Host), zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		logger.Log.Fatal("migrate chat schema", zap.Error(err))
	}

	pool, err := database.NewDatabaseConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL (pgx) after retries", zap.String("host", pg.Host), zap.Error(err))
	}
	defer pool.Close()
	if err := accountrepo.EnsureSchema(ctx, pool); err != nil {
		logger.Log.Fatal("ensure account schema", zap.Error(err))
	}

	// 2. 建立 Redis 連線 (cache + Pub/Sub relay), 兩者都關閉時不連
	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Relay.Enabled {
		redisClient, err = database.NewRedisClient(database.RedisConnection{
			Addr:          cfg.Redis.Addr,
			MasterName:    cfg.Redis.MasterName,
			SentinelAddrs: cfg.Redis.SentinelAddrs,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.RedisDB,
		})
		if err != nil {
			logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
		}
		defer redisClient.Close()
	}

	var store cache.Store = cache.Noop{}
	if cfg.Cache.Enabled {
		store = cache.WithDelayedDelete(
			cache.NewRedisStore(redisClient, cfg.Cache.ScanCount, cfg.Cache.OpTimeout),
			cfg.Cache.SecondDeleteDelay,
		)
	}

	// 3. 通知通道 (kafka / rabbitmq / none)
	notifier, closeNotifier := newNotifier(cfg)
	defer closeNotifier()

	// 4. 附件簽名
	signer := newSigner(cfg)

	// 5. 初始化 Repository
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	accounts := accountrepo.NewAccountRepository(pool)

	// 6. 連線註冊與推播
	registry := hub.NewRegistry()
	var relay app.Relay
	var pubsub *repository.RedisPubSub
	if cfg.Relay.Enabled {
		pubsub = repository.NewRedisPubSub(redisClient, cfg.Relay.Channel, cfg.InstanceID)
		relay = pubsub
	}
	broadcaster := app.NewBroadcaster(registry, relay, notifier, cfg.Fanout.SendTimeout)
	if pubsub != nil {
		if err := pubsub.Subscribe(ctx, broadcaster.HandleRelay); err != nil {
			logger.Log.Fatal("subscribe relay channel", zap.String("channel", cfg.Relay.Channel), zap.Error(err))
		}
	}

	// 7. 初始化 UseCases
	opts := app.Options{
		MaxMembers:         cfg.Conversation.MaxMembers,
		MinPageSize:        cfg.Conversation.MinPageSize,
		MaxPageSize:        cfg.Conversation.MaxPageSize,
		MessageMinPageSize: cfg.Conversation.MessageMinPageSize,
		MessageMaxPageSize: cfg.Conversation.MessageMaxPageSize,
		DetailTTL:          cfg.Cache.DetailTTL,
		ListTTL:            cfg.Cache.ListTTL,
	}
	conversationUC := app.NewConversationUseCase(convRepo, msgRepo, accounts, store, signer, opts)
	sendMessageUC := app.NewSendMessageUseCase(convRepo, msgRepo, store, broadcaster, signer)
	readReceiptUC := app.NewReadReceiptUseCase(convRepo, msgRepo, store, signer, opts)

	// 8. gRPC health / pprof
	if cfg.GRPCPort != "" {
		grpcHealth, err := database.StartGRPCHealthServer(cfg.GRPCPort, config.EnvConfig.ChatService)
		if err != nil {
			logger.Log.Fatal("start grpc health server", zap.Error(err))
		}
		defer grpcHealth.Shutdown()
	}
	testtool.StartPprof(cfg.PprofPort)

	// 9. 啟動 Fiber
	r := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	// 注册路由
	router.RegisterRoutes(r,
		handlers.NewConversationHandler(conversationUC),
		handlers.NewMessageHandler(sendMessageUC, readReceiptUC),
		app.NewChatWebsocketHandler(registry, sendMessageUC, readReceiptUC, cfg.Fanout.QueueSize, cfg.Fanout.PingInterval),
	)

	go func() {
		port := ":" + cfg.Port
		logger.Log.Info("Chat Service listening",
			zap.String("port", port),
			zap.String("instance", cfg.InstanceID),
			zap.String("notify", notifier.Driver()),
			zap.Bool("cache", cfg.Cache.Enabled),
			zap.Bool("relay", cfg.Relay.Enabled),
		)
		if err := r.Listen(port); err != nil {
			logger.Log.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	accountsOnline, connections := registry.Stats()
	logger.Log.Info("shutting down chat service",
		zap.Int("accounts_online", accountsOnline),
		zap.Int("connections", connections),
	)
	if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Log.Errorf("fiber shutdown", err)
	}
}

// newNotifier 依 notify.driver 建立通知通道, 回傳的 func 負責關閉連線
func newNotifier(cfg config.Chat) (repository.EventPublisher, func()) {
	switch cfg.Notify.Driver {
	case "kafka":
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("kafka writer init failed", zap.Error(err))
		}
		return repository.NewKafkaPublisher(writer), func() {
			if err := writer.Close(); err != nil {
				logger.Log.Warn("close kafka writer", zap.Error(err))
			}
		}

	case "rabbitmq":
		conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
			ConnectStr:    cfg.RabbitMQ.URL,
			RetryCount:    cfg.RabbitMQ.RetryCount,
			RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("rabbitmq connect failed", zap.Error(err))
		}
		ch, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
		if err != nil {
			logger.Log.Fatal("rabbitmq channel failed", zap.Error(err))
		}
		rabbit := database.NewRabbitRepository(ch)
		pub, err := repository.NewRabbitPublisher(rabbit, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Log.Fatal("declare rabbitmq exchange", zap.String("exchange", cfg.RabbitMQ.Exchange), zap.Error(err))
		}
		return pub, func() {
			rabbit.Close()
			conn.Close()
		}

	case "none", "":
		return repository.NoopPublisher{}, func() {}
	}

	logger.Log.Fatal("unknown notify driver", zap.String("driver", cfg.Notify.Driver))
	return nil, nil
}

func newSigner(cfg config.Chat) repository.AttachmentSigner {
	if !cfg.MinIO.Enabled {
		return repository.PassthroughSigner{}
	}
	mc, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.BucketName,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("minio connect failed", zap.String("endpoint", cfg.MinIO.Endpoint), zap.Error(err))
	}
	return repository.NewMinIOSigner(mc, cfg.MinIO.PresignExpiry)
}

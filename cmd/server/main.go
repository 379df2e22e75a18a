// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-mentor-go/internal/config"
	"ai-mentor-go/internal/handler"
	"ai-mentor-go/internal/middleware"
	"ai-mentor-go/internal/model"
	"ai-mentor-go/internal/reconcile"
	"ai-mentor-go/internal/repository"
	"ai-mentor-go/internal/service"
	"ai-mentor-go/pkg/database"
	"ai-mentor-go/pkg/es"
	"ai-mentor-go/pkg/kafka"
	"ai-mentor-go/pkg/llm"
	"ai-mentor-go/pkg/log"
	"ai-mentor-go/pkg/paystack"
	"ai-mentor-go/pkg/ratelimit"
	"ai-mentor-go/pkg/storage"
	"ai-mentor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 凭证缺失是启动期的致命错误，不留到请求期
	if err := config.Validate(&cfg); err != nil {
		log.Fatalf("配置校验失败: %v", err)
	}

	// 4. 初始化数据库与外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.Persona{},
		&model.Conversation{},
		&model.Message{},
		&model.Subscription{},
		&model.PitchEvaluation{},
		&model.ReconciliationEvent{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 5. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	personaRepo := repository.NewPersonaRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	subRepo := repository.NewSubscriptionRepository(database.DB)
	pitchRepo := repository.NewPitchRepository(database.DB)
	reconRepo := repository.NewReconciliationRepository(database.DB)

	// 6. 初始化 Service (依赖注入)
	verifier := token.NewVerifier(cfg.JWT.Secret)
	llmClient := llm.NewClient(cfg.LLM)
	paystackClient := paystack.NewClient(cfg.Paystack)

	userService := service.NewUserService(userRepo)
	ledgerService := service.NewLedgerService(userRepo)
	accessService := service.NewAccessService(personaRepo, cfg.Access.FreePersonaLimit)
	searchService := service.NewSearchService(cfg.Elasticsearch.IndexName)
	personaService := service.NewPersonaService(personaRepo, cfg.MinIO.BucketName)
	conversationService := service.NewConversationService(convRepo, messageRepo, personaRepo, searchService)
	chatService := service.NewChatService(accessService, ledgerService, convRepo, messageRepo, llmClient, searchService, kafka.ProduceReconciliationTask)
	pitchService := service.NewPitchService(accessService, pitchRepo, personaRepo, llmClient, cfg.LLM.Generation.PitchMaxTokens)
	subscriptionService := service.NewSubscriptionService(subRepo, ledgerService, paystackClient, cfg.Paystack.SecretKey, kafka.ProduceReconciliationTask)

	// 7. 启动后台 Kafka 消费者，把对账任务落库
	recorder := reconcile.NewRecorder(reconRepo)
	go kafka.StartConsumer(cfg.Kafka, recorder)

	// 8. 限流器：单实例用进程内滑动窗口，多实例切到 Redis 共享计数
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	if window <= 0 {
		window = 60 * time.Second
	}
	threshold := cfg.RateLimit.RequestsPerWindow
	if threshold <= 0 {
		threshold = 60
	}
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Store == "redis" {
		limiter = ratelimit.NewRedisLimiter(database.RDB, threshold, window)
	} else {
		limiter = ratelimit.NewMemoryLimiter(threshold, window)
	}

	// 9. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit.PathPrefix))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 10. 注册路由
	chatHandler := handler.NewChatHandler(chatService, userService, verifier)
	personaHandler := handler.NewPersonaHandler(accessService, personaService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	pitchHandler := handler.NewPitchHandler(pitchService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	userHandler := handler.NewUserHandler()

	authed := middleware.AuthMiddleware(verifier, userService)

	apiV1 := r.Group("/api/v1")
	{
		// webhook 通过签名认证，不走 Bearer 中间件
		apiV1.POST("/subscriptions/webhook", subscriptionHandler.Webhook)

		chat := apiV1.Group("/chat")
		chat.Use(authed)
		{
			chat.POST("", chatHandler.Stream)
		}

		personas := apiV1.Group("/personas")
		personas.Use(authed)
		{
			personas.GET("", personaHandler.List)
			personas.GET("/:id", personaHandler.Get)

			// 写操作仅限管理员
			personas.POST("", middleware.AdminAuthMiddleware(), personaHandler.Create)
			personas.POST("/:id/avatar", middleware.AdminAuthMiddleware(), personaHandler.UploadAvatar)
		}

		conversations := apiV1.Group("/conversations")
		conversations.Use(authed)
		{
			conversations.GET("", conversationHandler.List)
			conversations.GET("/search", conversationHandler.Search)
			conversations.GET("/:id", conversationHandler.Get)
			conversations.DELETE("/:id", conversationHandler.Delete)
		}

		pitch := apiV1.Group("/pitch")
		pitch.Use(authed)
		{
			pitch.POST("/evaluate", pitchHandler.Evaluate)
			pitch.GET("/history", pitchHandler.History)
			pitch.GET("/:id", pitchHandler.Get)
		}

		subscriptions := apiV1.Group("/subscriptions")
		subscriptions.Use(authed)
		{
			subscriptions.POST("/payment", subscriptionHandler.CreatePayment)
			subscriptions.GET("/active", subscriptionHandler.Active)
			subscriptions.GET("/credits", subscriptionHandler.Credits)
		}

		users := apiV1.Group("/users")
		users.Use(authed)
		{
			users.GET("/me", userHandler.Me)
		}
	}

	// WebSocket 聊天出口，token 直接走路径参数
	r.GET("/chat/:token", chatHandler.HandleWS)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者是一个阻塞循环，进程退出时自然结束。
	log.Info("服务已优雅关闭")
}

package main

import (
	"context"
	"database/sql"
	"donation-backend/config"
	"donation-backend/internal/api/admin"
	"donation-backend/internal/api/contact"
	"donation-backend/internal/api/donation"
	"donation-backend/internal/api/health"
	"donation-backend/internal/api/payment"
	"donation-backend/internal/api/user"
	"donation-backend/internal/cache"
	"donation-backend/internal/common"
	"donation-backend/internal/errors"
	"donation-backend/internal/events"
	"donation-backend/internal/idgen"
	"donation-backend/internal/jobs"
	"donation-backend/internal/middleware"
	"donation-backend/internal/repository/mysql"
	redisrepo "donation-backend/internal/repository/redis"
	"donation-backend/internal/service"
	"donation-backend/internal/storage"
	"donation-backend/internal/util"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	startupRetries  = 5
	shutdownTimeout = 10 * time.Second
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()
	cfg := config.AppConfig

	// 初始化日志
	util.InitLogger(cfg.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")
	ctx := context.Background()

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 数据库容器可能比应用晚启动
	if err := common.WithRetry(ctx, func() error { return db.PingContext(ctx) }, startupRetries); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := mysql.Migrate(ctx, db); err != nil {
		util.Logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// Redis 可选：序列号、追踪缓存和令牌黑名单
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			util.Logger.Fatal("连接 Redis 失败", zap.Error(err), zap.String("addr", cfg.RedisAddr))
		}
		util.Logger.Info("Redis 连接成功", zap.String("addr", cfg.RedisAddr))
	}

	var sequence idgen.Sequence = mysql.NewSequenceRepository(db)
	var tracking cache.TrackingCache = cache.NopTrackingCache{}
	var blacklist cache.TokenBlacklist = cache.NewMemoryTokenBlacklist()
	if redisClient != nil {
		tracking = cache.NewRedisTrackingCache(redisClient, cfg.TrackingCacheTTL)
		blacklist = cache.NewRedisTokenBlacklist(redisClient)
		if cfg.SequenceBackend == "redis" {
			sequence = redisrepo.NewSequenceRepository(redisClient)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(ctx, cfg.KafkaBrokers, startupRetries)
		if err != nil {
			util.Logger.Fatal("初始化 Kafka 失败", zap.Error(err))
		}
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	objectStore, err := storage.New(ctx, storage.Options{
		Driver:             cfg.StorageDriver,
		LocalPath:          cfg.LocalStoragePath,
		S3Region:           cfg.S3Region,
		S3Bucket:           cfg.S3Bucket,
		GCSProjectID:       cfg.GCSProjectID,
		GCSBucketName:      cfg.GCSBucketName,
		GCSCredentialsFile: cfg.GCSCredentialsFile,
	})
	if err != nil {
		util.Logger.Fatal("初始化存储失败", zap.Error(err), zap.String("driver", cfg.StorageDriver))
	}

	var notifier service.Notifier = service.NopNotifier{}
	emailService := service.NewEmailService(cfg)
	if emailService != nil {
		notifier = emailService
		defer emailService.Wait()
	}

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			util.Logger.Fatal("注册验证器失败", zap.Error(err))
		}
	}

	// 初始化存储库、服务和处理器
	userRepo := mysql.NewUserRepository(db)
	donationRepo := mysql.NewDonationRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	contactRepo := mysql.NewContactRepository(db)
	txManager := mysql.NewTxManager(db)
	ids := idgen.New(sequence)

	userService := service.NewUserService(userRepo, blacklist)
	donationService := service.NewDonationService(donationRepo, userRepo, txManager, ids, tracking, publisher)
	paymentService := service.NewPaymentService(paymentRepo, donationRepo, userRepo, txManager, ids,
		service.WithPublisher(publisher),
		service.WithNotifier(notifier),
		service.WithReceiptArchiver(service.NewReceiptService(objectStore)),
		service.WithSimulationDelay(cfg.PaymentSimulationDelay),
		service.WithSuccessRate(cfg.PaymentSuccessRate),
	)
	contactService := service.NewContactService(contactRepo, txManager, ids, notifier, publisher)
	adminService := service.NewAdminService(userRepo, donationRepo, paymentRepo)
	statsService := service.NewStatsService(userRepo, donationRepo)
	errorAnalytics := errors.NewErrorAnalytics()

	authHandler := user.NewAuthHandler(userService)
	profileHandler := user.NewProfileHandler(userService)
	donationHandler := donation.NewDonationHandler(donationService)
	paymentHandler := payment.NewPaymentHandler(paymentService)
	contactHandler := contact.NewContactHandler(contactService)
	adminHandler := admin.NewAdminHandler(adminService, statsService, donationService, contactService, errorAnalytics)

	// 过期订单清理
	scheduler, err := jobs.NewScheduler(paymentService, cfg.OrderSweepSpec, cfg.OrderTTL)
	if err != nil {
		util.Logger.Fatal("创建定时任务失败", zap.Error(err), zap.String("spec", cfg.OrderSweepSpec))
	}
	scheduler.Start()

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorAnalytics))
	r.Use(middleware.RecoveryMiddleware())

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.FrontendURLs
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
		middleware.HeaderRequestID,
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		middleware.HeaderRequestID,
	}
	r.Use(cors.New(corsConfig))

	authRequired := middleware.AuthMiddleware(userService)

	api := r.Group("/api")
	{
		api.GET("/health", health.Handler(time.Now))

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", authRequired, profileHandler.GetProfile)
			auth.PUT("/update", authRequired, profileHandler.UpdateProfile)
			auth.PUT("/password", authRequired, profileHandler.ChangePassword)
			auth.POST("/logout", authRequired, authHandler.Logout)
		}

		donations := api.Group("/donations")
		{
			donations.GET("/track/:donationId", donationHandler.TrackDonation)
			donations.POST("", authRequired, donationHandler.CreateDonation)
			donations.GET("", authRequired, donationHandler.ListMyDonations)
			donations.GET("/:id", authRequired, donationHandler.GetDonation)
			donations.PUT("/:id/cancel", authRequired, donationHandler.CancelDonation)
		}

		payments := api.Group("/payments", authRequired)
		{
			payments.POST("/create-order", paymentHandler.CreateOrder)
			payments.POST("/verify", paymentHandler.VerifyPayment)
			payments.GET("", paymentHandler.ListMyPayments)
			payments.GET("/:id", paymentHandler.GetPayment)
		}

		contacts := api.Group("/contact")
		{
			contacts.POST("", contactHandler.Submit)
			contacts.GET("/my-inquiries", contactHandler.MyInquiries)
		}

		// 管理员路由组
		adminRoutes := api.Group("/admin", authRequired, middleware.AdminMiddleware())
		{
			adminRoutes.GET("/stats", adminHandler.GetStats)
			adminRoutes.GET("/analytics/donations", adminHandler.GetDonationAnalytics)
			adminRoutes.GET("/errors", adminHandler.GetErrorStats)

			adminRoutes.GET("/donations", adminHandler.GetDonations)
			adminRoutes.PUT("/donations/:id/status", adminHandler.UpdateDonationStatus)

			adminRoutes.GET("/users", adminHandler.GetUsers)
			adminRoutes.GET("/users/:id", adminHandler.GetUserDetail)
			adminRoutes.PUT("/users/:id/status", adminHandler.UpdateUserStatus)

			adminRoutes.GET("/contacts", adminHandler.GetContacts)
			adminRoutes.PUT("/contacts/:id", adminHandler.UpdateContact)
		}
	}
	r.NoRoute(health.NotFound)

	if cfg.Debug {
		for _, route := range r.Routes() {
			util.Logger.Debug("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Error("服务器强制关闭", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)

	util.Logger.Info("服务器已优雅关闭")
}

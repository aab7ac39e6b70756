// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/config"
	"github.com/linweihsiang/salon-booking-backend/internal/common/jwt"
	"github.com/linweihsiang/salon-booking-backend/internal/common/metrics"
	commonMiddleware "github.com/linweihsiang/salon-booking-backend/internal/common/middleware"
	"github.com/linweihsiang/salon-booking-backend/internal/common/qrcode"
	appointmentHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/appointment"
	authHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/auth"
	catalogHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/catalog"
	marketingHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/marketing"
	orderHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/order"
	scheduleHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/schedule"
	storeHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/store"
	uploadHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/upload"
	userHandler "github.com/linweihsiang/salon-booking-backend/internal/handler/user"
	"github.com/linweihsiang/salon-booking-backend/internal/middleware"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
	appointmentService "github.com/linweihsiang/salon-booking-backend/internal/service/appointment"
	authService "github.com/linweihsiang/salon-booking-backend/internal/service/auth"
	catalogService "github.com/linweihsiang/salon-booking-backend/internal/service/catalog"
	marketingService "github.com/linweihsiang/salon-booking-backend/internal/service/marketing"
	orderService "github.com/linweihsiang/salon-booking-backend/internal/service/order"
	scheduleService "github.com/linweihsiang/salon-booking-backend/internal/service/schedule"
	storeService "github.com/linweihsiang/salon-booking-backend/internal/service/store"
	uploadService "github.com/linweihsiang/salon-booking-backend/internal/service/upload"
	userService "github.com/linweihsiang/salon-booking-backend/internal/service/user"
	"github.com/linweihsiang/salon-booking-backend/pkg/oss"
	"github.com/linweihsiang/salon-booking-backend/pkg/sms"
)

// appServices 聚合路由层以外也会用到的服务（定时任务等）
type appServices struct {
	apptRepo  *repository.AppointmentRepository
	couponSvc *marketingService.CouponService
	orderSvc  *orderService.OrderService
	smsSender sms.Sender
}

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	m *metrics.Metrics,
) *appServices {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	operationLogRepo := repository.NewOperationLogRepository(db)

	// 初始化外部服务客户端
	smsClient := newSMSClient(cfg, logger)
	uploader := newUploader(cfg, logger)

	// 初始化服务
	codeService := authService.NewCodeService(redisClient, smsClient, &authService.CodeServiceConfig{
		CodeLength: 6,
		ExpireIn:   time.Duration(cfg.SMS.CodeExpire) * time.Minute,
	})
	authSvc := authService.NewAuthService(db, userRepo, jwtManager, codeService)
	userSvc := userService.NewUserService(db, userRepo)
	productSvc := catalogService.NewProductService(db, productRepo)
	couponSvc := marketingService.NewCouponService(couponRepo)
	orderSvc := orderService.NewOrderService(db, orderRepo, couponSvc)
	scheduleSvc := scheduleService.NewScheduleService(scheduleRepo, apptRepo)
	storeSvc := storeService.NewStoreService(storeRepo)
	appointmentSvc := appointmentService.NewAppointmentService(db, apptRepo, scheduleSvc, storeSvc, qrcode.NewGenerator())
	uploadSvc := uploadService.NewUploadService(uploader, userRepo)

	// 初始化处理器
	authH := authHandler.NewHandler(authSvc, codeService)
	userH := userHandler.NewHandler(userSvc)
	productH := catalogHandler.NewHandler(productSvc)
	couponH := marketingHandler.NewCouponHandler(couponSvc)
	orderH := orderHandler.NewHandler(orderSvc)
	scheduleH := scheduleHandler.NewHandler(scheduleSvc)
	storeH := storeHandler.NewHandler(storeSvc)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc)
	uploadH := uploadHandler.NewHandler(uploadSvc)

	operationLogger := commonMiddleware.NewOperationLogger(operationLogRepo)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(corsConfig(cfg)))
	r.Use(middleware.AccessLog(logger))
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", "/metrics"},
		}))
	}
	if m != nil {
		r.Use(m.Middleware())
	}
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig(redisClient)))
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Prometheus 指标
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			public.POST("/auth/register", authH.Register)
			public.POST("/auth/login", authH.Login)
			public.POST("/auth/refresh", authH.RefreshToken)
			public.POST("/auth/password/reset/send-code", authH.SendResetCode)
			public.POST("/auth/password/reset", authH.ResetPassword)

			public.GET("/stylists", userH.ListStylists)
			public.GET("/stylists/:id", userH.GetStylist)
			public.GET("/stylists/:id/schedule", scheduleH.GetStylistSchedule)
			public.GET("/stylists/:id/slots", scheduleH.GetAvailableSlots)

			public.GET("/products", productH.List)
			public.GET("/products/:id", productH.Get)
			public.GET("/services", productH.ListServices)

			public.POST("/appointments/calculate", appointmentH.Calculate)

			public.GET("/coupons", couponH.ListAvailable)
			public.GET("/coupons/validate", couponH.ValidateCode)

			public.GET("/store/hours", storeH.GetHours)
			public.GET("/store/open", storeH.IsOpen)
		}

		// 用户端接口（需要登录）
		authed := v1.Group("")
		authed.Use(middleware.UserAuth(jwtManager))
		{
			authed.GET("/auth/me", authH.Me)
			authed.PUT("/auth/password", authH.ChangePassword)

			authed.GET("/users/profile", userH.GetProfile)
			authed.PUT("/users/profile", userH.UpdateProfile)
			authed.POST("/users/bindings/google", userH.BindGoogle)
			authed.DELETE("/users/bindings/google", userH.UnbindGoogle)
			authed.POST("/users/bindings/line", userH.BindLine)
			authed.DELETE("/users/bindings/line", userH.UnbindLine)
			authed.POST("/users/avatar", uploadH.UploadAvatar)
			authed.POST("/upload/image", uploadH.UploadImage)

			authed.POST("/appointments", appointmentH.Create)
			authed.GET("/appointments", appointmentH.ListMine)
			authed.GET("/appointments/:id", appointmentH.Get)
			authed.PUT("/appointments/:id/cancel", appointmentH.Cancel)
			authed.PUT("/appointments/:id/reschedule", appointmentH.Reschedule)
			authed.GET("/appointments/:id/qrcode", appointmentH.QRCode)

			authed.POST("/orders", orderH.Create)
			authed.POST("/orders/from-appointment", orderH.CreateFromAppointment)
			authed.GET("/orders", orderH.ListMine)
			authed.GET("/orders/:id", orderH.Get)
			authed.PUT("/orders/:id/coupon", orderH.ApplyCoupon)
			authed.DELETE("/orders/:id/coupon", orderH.RemoveCoupon)
			authed.POST("/orders/:id/items", orderH.AddItem)
			authed.PUT("/orders/:id/items/:detail_id", orderH.UpdateItem)
			authed.DELETE("/orders/:id/items/:detail_id", orderH.RemoveItem)
			authed.PUT("/orders/:id/cancel", orderH.Cancel)
		}

		// 设计师端接口
		stylist := v1.Group("")
		stylist.Use(middleware.StylistAuth(jwtManager))
		{
			stylist.PUT("/schedules", scheduleH.UpsertSchedule)
			stylist.GET("/schedules", scheduleH.GetMySchedule)
			stylist.DELETE("/schedules/:day", scheduleH.DeleteSchedule)
			stylist.GET("/schedules/:day/conflict", scheduleH.CheckConflict)

			stylist.POST("/time-off", scheduleH.RequestTimeOff)
			stylist.GET("/time-off", scheduleH.ListMyTimeOff)
			stylist.DELETE("/time-off/:id", scheduleH.CancelTimeOff)

			stylist.GET("/stylist/appointments", appointmentH.ListForStylist)
			stylist.POST("/stylist/appointments/check-in", appointmentH.CheckIn)
			stylist.PUT("/stylist/appointments/:id/confirm", appointmentH.Confirm)
			stylist.PUT("/stylist/appointments/:id/complete", appointmentH.Complete)
			stylist.PUT("/stylist/appointments/:id/no-show", appointmentH.MarkNoShow)
		}

		// 管理后台接口
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtManager))
		admin.Use(operationLogger.Log())
		{
			admin.GET("/users", userH.AdminListUsers)
			admin.PUT("/users/:id/role", userH.AdminSetRole)
			admin.PUT("/users/:id/active", userH.AdminSetActive)

			admin.POST("/products", productH.AdminCreate)
			admin.PUT("/products/:id", productH.AdminUpdate)
			admin.DELETE("/products/:id", productH.AdminDelete)
			admin.PUT("/products/:id/stock", productH.AdminAdjustStock)

			admin.GET("/coupons", couponH.AdminList)
			admin.POST("/coupons", couponH.AdminCreate)
			admin.POST("/coupons/bulk", couponH.AdminBulkCreate)
			admin.GET("/coupons/statistics", couponH.AdminStatistics)
			admin.GET("/coupons/:id", couponH.AdminGet)
			admin.PUT("/coupons/:id", couponH.AdminUpdate)
			admin.DELETE("/coupons/:id", couponH.AdminDelete)

			admin.GET("/orders", orderH.AdminList)
			admin.GET("/orders/statistics", orderH.AdminStatistics)
			admin.PUT("/orders/:id/status", orderH.AdminUpdateStatus)
			admin.DELETE("/orders/:id", orderH.AdminDelete)

			admin.GET("/time-off", scheduleH.AdminListTimeOff)
			admin.PUT("/time-off/:id/review", scheduleH.AdminReviewTimeOff)

			admin.PUT("/store/hours", storeH.AdminSetHours)
			admin.PUT("/store/hour", storeH.AdminSetHour)
			admin.GET("/store/closures", storeH.AdminListClosures)
			admin.POST("/store/closures", storeH.AdminCreateClosure)
			admin.DELETE("/store/closures/:id", storeH.AdminDeleteClosure)

			admin.GET("/appointments", appointmentH.AdminList)
			admin.PUT("/appointments/:id/status", appointmentH.AdminUpdateStatus)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})

	return &appServices{
		apptRepo:  apptRepo,
		couponSvc: couponSvc,
		orderSvc:  orderSvc,
		smsSender: smsClient,
	}
}

// newSMSClient 按配置创建短信客户端
func newSMSClient(cfg *config.Config, logger *zap.Logger) sms.Sender {
	if cfg.SMS.Provider == "aliyun" && cfg.SMS.AccessKeyID != "" {
		client, err := sms.NewClient(&sms.Config{
			AccessKeyID:     cfg.SMS.AccessKeyID,
			AccessKeySecret: cfg.SMS.AccessKeySecret,
			SignName:        cfg.SMS.SignName,
		})
		if err == nil {
			return client
		}
		logger.Warn("Failed to create SMS client, falling back to mock", zap.Error(err))
	}
	return sms.NewMockClient(cfg.SMS.SignName)
}

// newUploader 按配置创建对象存储上传器
func newUploader(cfg *config.Config, logger *zap.Logger) oss.Uploader {
	if cfg.OSS.Provider == "aliyun" && cfg.OSS.AccessKeyID != "" {
		uploader, err := oss.NewAliyunUploader(&oss.AliyunConfig{
			Endpoint:        cfg.OSS.Endpoint,
			AccessKeyID:     cfg.OSS.AccessKeyID,
			AccessKeySecret: cfg.OSS.AccessKeySecret,
			BucketName:      cfg.OSS.Bucket,
			Domain:          cfg.OSS.CustomDomain,
			BasePath:        cfg.OSS.UploadDir,
		})
		if err == nil {
			return uploader
		}
		logger.Warn("Failed to create OSS uploader, falling back to mock", zap.Error(err))
	}
	return oss.NewMockUploader()
}

// corsConfig 由应用配置构建 CORS 中间件配置
func corsConfig(cfg *config.Config) *middleware.CORSConfig {
	if len(cfg.CORS.AllowedOrigins) == 0 {
		return nil
	}
	return &middleware.CORSConfig{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}
}

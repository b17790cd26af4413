package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trailbound/config"
	"trailbound/cron"
	"trailbound/database"
	bookingRepoPkg "trailbound/database/repository/booking"
	guideRepoPkg "trailbound/database/repository/guide"
	hikerRepoPkg "trailbound/database/repository/hiker"
	platformRepoPkg "trailbound/database/repository/platform"
	webhookRepoPkg "trailbound/database/repository/webhook"
	"trailbound/handlers"
	"trailbound/middleware"
	"trailbound/routes"
	"trailbound/services/notification"
	"trailbound/services/payments"
	"trailbound/services/webhookqueue"
	"trailbound/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	guideRepo := guideRepoPkg.NewMongoGuideRepo()
	hikerRepo := hikerRepoPkg.NewMongoHikerRepo()
	platformRepo := platformRepoPkg.NewMongoPlatformRepo()
	webhookRepo := webhookRepoPkg.NewMongoWebhookRepo()

	// notification plumbing: payment flows enqueue, the worker delivers.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotifyQueueDB,
	})
	defer asynqClient.Close()
	dispatcher := notification.NewAsynqDispatcher(asynqClient, logger)

	notifSvc, err := notification.NewDefaultNotificationService(
		hikerRepo,
		guideRepo,
		notification.NewEmailClient(),
		notification.NewOpsChatClient(),
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
	}
	cron.InitNotifyWorker(notifSvc)

	// services.
	gateway := payments.NewStripeGateway()
	paymentSvc := &payments.DefaultPaymentService{
		Bookings:   bookingRepo,
		Guides:     guideRepo,
		Platform:   platformRepo,
		Gateway:    gateway,
		Notifier:   dispatcher,
		Logger:     logger,
		SuccessURL: config.AppConfig.CheckoutSuccessURL,
		CancelURL:  config.AppConfig.CheckoutCancelURL,
	}

	queueSvc := &webhookqueue.QueueService{
		Events:   webhookRepo,
		Bookings: bookingRepo,
		Guides:   guideRepo,
		Gateway:  gateway,
		Notifier: dispatcher,
		Logger:   logger,
	}

	// handlers.
	deps := routes.RouteDeps{
		Booking:    handlers.NewBookingHandler(paymentSvc, bookingRepo, logger),
		PaymentOps: handlers.NewPaymentOpsHandler(paymentSvc, queueSvc, logger),
		Webhook:    handlers.NewWebhookHandler(queueSvc, logger),
		Guide:      handlers.NewGuideHandler(guideRepo, logger),
		Admin:      handlers.NewAdminHandler(platformRepo, logger),
		Auth:       handlers.NewAuthHandler(guideRepo, hikerRepo),
	}
	routes.RegisterRoutes(router, deps)

	// recurring sweeps.
	scheduler := cron.StartScheduler(paymentSvc, queueSvc, logger)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("listening on :%s", config.AppConfig.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("forced shutdown: %v", err)
	}
}

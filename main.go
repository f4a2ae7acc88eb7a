package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"schedly/config"
	"schedly/cron"
	"schedly/database"
	bookingRepoPkg "schedly/database/repository/booking"
	serviceRepoPkg "schedly/database/repository/service"
	specialistRepoPkg "schedly/database/repository/specialist"
	timeslotRepoPkg "schedly/database/repository/timeslot"
	"schedly/handlers"
	"schedly/routes"
	"schedly/services/booking"
	"schedly/services/events"
	"schedly/services/notification"
	"schedly/services/reminder"
	"schedly/services/scheduling"
	"schedly/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitSweepLock()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	specialistRepo := specialistRepoPkg.NewMongoSpecialistRepo()
	serviceRepo := serviceRepoPkg.NewMongoServiceRepo()
	timeslotRepo := timeslotRepoPkg.NewMongoTimeSlotRepo()
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()

	clock := utils.SystemClock{}

	// services.
	slotCache := &scheduling.RedisSlotCache{
		Client: utils.GetCacheClient(),
		TTL:    config.SlotCacheTTL(),
		Logger: logger,
	}
	slotService := &scheduling.DefaultSlotService{
		Specialists: specialistRepo,
		Services:    serviceRepo,
		Slots:       timeslotRepo,
		Cache:       slotCache,
		Logger:      logger,
	}

	mailSender := notification.NewMailSender()

	queueOpt := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
	reminderQueue := reminder.NewAsynqQueue(queueOpt, "default")

	reminderScheduler := &reminder.DefaultScheduler{
		Bookings: bookingRepo,
		Queue:    reminderQueue,
		Sender:   mailSender,
		Clock:    clock,
		Logger:   logger,
	}

	bus := events.NewBus(logger)
	bus.Subscribe(notification.NewBookingSubscriber(mailSender, logger))

	bookingEngine := &booking.DefaultEngine{
		Specialists: specialistRepo,
		Services:    serviceRepo,
		Slots:       timeslotRepo,
		Bookings:    bookingRepo,
		Reminders:   reminderScheduler,
		Bus:         bus,
		SlotCache:   slotCache,
		Clock:       clock,
		Policy:      booking.PolicyFromConfig(),
		Logger:      logger,
	}

	// Background reminder machinery: the asynq worker serves the primary
	// delayed-job path, the cron sweep reconciles anything the queue lost.
	cron.InitReminderWorker(reminderScheduler)

	sweep := &reminder.Sweep{
		Scheduler: reminderScheduler,
		Bookings:  bookingRepo,
		Lock:      &reminder.RedisRunLock{Client: utils.GetSweepLockClient()},
		Clock:     clock,
		Logger:    logger,
		Horizon:   config.SweepHorizon(),
		LockTTL:   config.SweepInterval(),
	}
	sweepJob := cron.StartSweepJob(sweep)
	defer sweepJob.Stop()

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetSweepLockClient()},
		database.MongoClient,
	)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Slots:       handlers.NewSlotHandler(slotService, logger),
		Bookings:    handlers.NewBookingHandler(bookingEngine, logger),
		Specialists: handlers.NewSpecialistHandler(specialistRepo, slotCache, clock, logger),
		Services:    handlers.NewServiceHandler(serviceRepo, clock, logger),
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	if err := reminderQueue.Close(); err != nil {
		logger.Sugar().Warnf("main: failed to close reminder queue: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

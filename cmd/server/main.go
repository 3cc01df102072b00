package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Neeraj110/task-manager-app/internal/api"
	"github.com/Neeraj110/task-manager-app/internal/auth"
	"github.com/Neeraj110/task-manager-app/internal/config"
	"github.com/Neeraj110/task-manager-app/internal/hub"
	"github.com/Neeraj110/task-manager-app/internal/metrics"
	"github.com/Neeraj110/task-manager-app/internal/middleware"
	"github.com/Neeraj110/task-manager-app/internal/notification"
	"github.com/Neeraj110/task-manager-app/internal/pipeline"
	"github.com/Neeraj110/task-manager-app/internal/publisher"
	"github.com/Neeraj110/task-manager-app/internal/task"
	"github.com/Neeraj110/task-manager-app/internal/user"
	"github.com/Neeraj110/task-manager-app/internal/utils"
	"github.com/Neeraj110/task-manager-app/internal/ws"
)

func main() {
	cfgPath := flag.String("config", "./config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	sugar, err := utils.NewLogger(cfg.Development(), cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer sugar.Sync()
	sugar.Infof("starting taskflow (env=%s)", cfg.App.Env)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Mongo
	ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		sugar.Fatalf("mongo connect: %v", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		sugar.Fatalf("mongo ping: %v", err)
	}
	cancel()
	db := mc.Database(cfg.Mongo.Database)
	tasks, err := task.NewMongoRepository(rootCtx, db, cfg.Mongo.TasksCollection)
	if err != nil {
		sugar.Fatalf("task repository: %v", err)
	}
	store, err := notification.NewMongoStore(rootCtx, db, cfg.Mongo.NotificationsCollection)
	if err != nil {
		sugar.Fatalf("notification store: %v", err)
	}
	users := user.NewMongoDirectory(db, cfg.Mongo.UsersCollection)

	verifier, err := auth.NewVerifier(cfg.JWT)
	if err != nil {
		sugar.Fatalf("jwt verifier: %v", err)
	}

	// Redis backs the shared rate limiter; without it each instance limits by IP.
	var rdb *redis.Client
	perMinute := cfg.RatePerMinute()
	limit := middleware.NewIPRateLimiter(rootCtx, perMinute, perMinute, sugar).Handler()
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Pass, DB: cfg.Redis.DB})
		pctx, pcancel := context.WithTimeout(rootCtx, 5*time.Second)
		if _, err := rdb.Ping(pctx).Result(); err != nil {
			sugar.Warnw("redis unreachable, limiter will fail open until it recovers", "addr", cfg.Redis.Addr, "error", err)
		}
		pcancel()
		rl := middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), cfg.Redis.Prefix, cfg.Redis.RateLimit, cfg.RateWindow, sugar)
		limit = rl.MiddlewareByKey(middleware.ClientIP)
	}

	var sink pipeline.EventSink
	var kafkaSink *publisher.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink = publisher.NewKafkaSink(
			publisher.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.TopicTaskEvents),
			publisher.BreakerConfig{MaxFailures: cfg.Kafka.BreakerMaxFailures, Timeout: cfg.BreakerTimeout},
			sugar,
		)
		sink = kafkaSink
		sugar.Infow("task events published to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.TopicTaskEvents)
	}

	h := hub.New(sugar, m)
	notifications := notification.NewService(store, h, tasks, sugar, m)
	pipe := pipeline.New(h, notifications, sink, sugar)
	wsHandler := ws.NewHandler(h, verifier, ws.Options{
		PingInterval:   cfg.PingInterval,
		PongWait:       cfg.PongWait,
		WriteDeadline:  cfg.WriteDeadline,
		MaxMessageSize: cfg.WS.MaxMessageSizeBytes,
		SendBuffer:     cfg.WS.SendBuffer,
		RateLimit:      cfg.WS.RateLimitPerSec,
		RequireToken:   cfg.WS.RequireToken,
	}, sugar)

	app := api.NewServer(api.Deps{
		Tasks:         task.NewService(tasks, users),
		Notifications: notifications,
		Pipeline:      pipe,
		Hub:           h,
		WS:            wsHandler,
		Verifier:      verifier,
		RateLimit:     limit,
		Gatherer:      reg,
		ClientURL:     cfg.App.ClientURL,
		Logger:        sugar,
	})

	errs := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		sugar.Infow("listening", "addr", addr)
		errs <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		sugar.Errorw("server stopped", "error", err)
	case s := <-quit:
		sugar.Infow("signal received", "signal", s.String())
	}

	sugar.Info("shutting down taskflow...")
	if err := app.ShutdownWithTimeout(cfg.ShutdownGrace); err != nil {
		sugar.Warnw("fiber shutdown", "error", err)
	}
	h.Close()
	stop()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutCancel()
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			sugar.Warnw("kafka close", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := mc.Disconnect(shutCtx); err != nil {
		sugar.Warnw("mongo disconnect", "error", err)
	}
	sugar.Info("shutdown complete")
}

package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/advisor"
	"github.com/TumainiC/Medical-app/internal/config"
	"github.com/TumainiC/Medical-app/internal/consumer"
	httpapi "github.com/TumainiC/Medical-app/internal/http"
	"github.com/TumainiC/Medical-app/internal/logger"
	"github.com/TumainiC/Medical-app/internal/mqtt"
	"github.com/TumainiC/Medical-app/internal/repository"
	"github.com/TumainiC/Medical-app/internal/service"
	"github.com/TumainiC/Medical-app/internal/simulator"
	"github.com/TumainiC/Medical-app/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "medical-app")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis：快照缓存 + 采集 Stream。连不上时禁用采集管道，HTTP API 仍可用
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisAvailable := true
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, ingest pipeline disabled", zap.Error(err))
		redisAvailable = false
	}

	// 存储：DB 可用时用 PostgreSQL，否则回退内存 repo
	var (
		db         *sql.DB
		vitalsRepo repository.VitalsRepository
	)
	if cfg.DBEnabled {
		d, err := sql.Open("postgres", cfg.Database.GetDSN())
		if err == nil {
			err = d.Ping()
		}
		if err == nil {
			d.SetMaxOpenConns(cfg.Database.MaxConns)
			d.SetMaxIdleConns(cfg.Database.MaxIdle)
			pgRepo := repository.NewPostgresVitalsRepo(d)
			if err := pgRepo.EnsureSchema(ctx); err != nil {
				log.Fatal("Failed to ensure database schema", zap.Error(err))
			}
			db = d
			vitalsRepo = pgRepo
			log.Info("DB enabled for medical-app")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repository", zap.Error(err))
		}
	}
	if vitalsRepo == nil {
		vitalsRepo = repository.NewMemoryVitalsRepo()
	}

	// 异常检测模型：优先加载落盘模型，缺失时用模拟数据训练
	detector, err := service.BootstrapDetector(cfg.Model, cfg.Simulator, log)
	if err != nil {
		log.Fatal("Failed to bootstrap anomaly detector", zap.Error(err))
	}

	adv := advisor.New(cfg.Advisor.BaseURL, cfg.Advisor.APIKey, cfg.Advisor.Model, cfg.Advisor.Timeout, log)
	if adv.Enabled() {
		log.Info("AI advisor enabled", zap.String("model", cfg.Advisor.Model))
	} else {
		log.Info("AI advisor disabled, using rule-based recommendations")
	}

	analysisSvc := service.NewAnalysisService(detector, adv, log)
	sim := simulator.NewWithOptions(cfg.Simulator.Seed, cfg.Simulator.AnomalyRate, cfg.Simulator.Interval)

	var (
		kv           store.KV
		streamClient *redis.Client
	)
	if redisAvailable {
		kv = store.NewRedisKV(redisClient)
		streamClient = redisClient

		// 采集流消费：持久化 + 快照刷新
		vitalsConsumer := consumer.NewVitalsConsumer(cfg.Ingest, redisClient, vitalsRepo, kv, log)
		go func() {
			if err := vitalsConsumer.Start(ctx); err != nil {
				log.Error("Vitals consumer stopped", zap.Error(err))
			}
		}()

		// 可选：MQTT 实时接入（转投采集 Stream）
		if cfg.MQTT.Enabled {
			mqttClient, err := mqtt.NewClient(cfg.MQTT)
			if err != nil {
				log.Error("Failed to connect MQTT broker, live ingest disabled", zap.Error(err))
			} else {
				ingest := mqtt.NewVitalsIngest(cfg.MQTT, mqttClient, redisClient, cfg.Ingest.Stream, log)
				go func() {
					if err := ingest.Start(ctx); err != nil {
						log.Error("MQTT ingest stopped", zap.Error(err))
					}
				}()
				defer mqttClient.Disconnect()
			}
		}
	}

	handler := httpapi.NewHealthHandler(sim, analysisSvc, vitalsRepo, kv, streamClient, cfg.Ingest.Stream, log)
	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes(handler)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}

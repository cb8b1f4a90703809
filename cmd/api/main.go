package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"planning-poker/internal/config"
	"planning-poker/internal/db"
	apihttp "planning-poker/internal/http"
	"planning-poker/internal/repository"
	"planning-poker/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	sessionRepo := repository.NewPgSessionRepository(pool)
	issueRepo := repository.NewPgIssueRepository(pool)
	estimateRepo := repository.NewPgEstimateRepository(pool)
	statsRepo := repository.NewPgStatsRepository(pool)

	var (
		locker    service.ItemLocker
		publisher service.VerdictPublisher
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process item locks", zap.Error(err))
		} else {
			locker = service.NewRedisItemLocker(redisClient, time.Duration(cfg.ItemLockTTLMillis)*time.Millisecond, logger)
			publisher = service.NewRedisVerdictPublisher(redisClient)
		}
		cancel()
	}

	engine := service.NewConsensusEngine(cfg.PointScale, cfg.ConsensusMaxSpread)
	estimationSvc := service.NewEstimationService(logger, sessionRepo, issueRepo, estimateRepo, engine, locker, publisher)
	sessionSvc := service.NewSessionService(logger, sessionRepo, issueRepo)
	adminSvc := service.NewAdminService(logger, statsRepo, cfg.AdminConflictSpread)

	jwtSvc := service.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	if !jwtSvc.Enabled() {
		logger.Warn("jwt secret not configured, routes are unauthenticated")
	}

	router := apihttp.NewRouter(logger, jwtSvc,
		apihttp.NewSessionHandler(logger, sessionSvc),
		apihttp.NewEstimateHandler(logger, estimationSvc),
		apihttp.NewAdminHandler(logger, adminSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("point_scale", cfg.PointScale.String()),
		zap.Int("max_spread", cfg.ConsensusMaxSpread),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

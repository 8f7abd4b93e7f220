package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/crypto"
	"github.com/pqlammy/Gennerweb-sub000/internal/database"
	"github.com/pqlammy/Gennerweb-sub000/internal/lockout"
	"github.com/pqlammy/Gennerweb-sub000/internal/logger"
	"github.com/pqlammy/Gennerweb-sub000/internal/router"
	"github.com/pqlammy/Gennerweb-sub000/internal/scheduler"
)

func main() {
	// 加载配置
	cfg := config.Load()

	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithRotation(logger.ParseLogLevel(cfg.Log.Level), logger.RotationConfig{
			Filename: cfg.Log.File,
			Compress: true,
		})
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	} else if l, err := logger.New(logger.ParseLogLevel(cfg.Log.Level)); err == nil {
		logger.SetDefaultLogger(l)
	}
	defer logger.Sync()

	key, err := crypto.KeyFromSecret(cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatal("Invalid encryption key: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret must be configured")
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	guard := lockout.NewStore(lockout.Config{
		MaxAttempts:  cfg.Security.LoginMaxAttempts,
		Window:       cfg.Security.LoginWindow(),
		LockDuration: cfg.Security.LockoutDuration(),
	})

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, key, guard, cfg)

	// 启动定时任务
	manager := scheduler.Start(guard, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

package main

import (
	"log"

	"chatlink_backend/internal/app"
	"chatlink_backend/internal/config"
	"chatlink_backend/pkg/configwatcher"
	"chatlink_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 配置热更新
	go configwatcher.WatchConfig("configs/config.yaml", application.ApplyConfig)

	application.Run()
}

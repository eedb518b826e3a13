// main.go
package main

import (
	"github.com/denred/multi-player-guess-number/config"
	"github.com/denred/multi-player-guess-number/logger"
	"github.com/denred/multi-player-guess-number/persistence"
	"github.com/denred/multi-player-guess-number/server"
)

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}

	store, err := persistence.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
	}
	defer store.Close()

	var recorder persistence.Recorder
	if pg := cfg.Database.Postgres; pg.Host != "" {
		gormRecorder, err := persistence.NewGormRecorder(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to postgres at %s:%d: %v", pg.Host, pg.Port, err)
		}
		defer gormRecorder.Close()
		recorder = gormRecorder
		logger.Log.Infof("Game archive enabled (postgres at %s:%d)", pg.Host, pg.Port)
	} else {
		logger.Log.Info("Game archive disabled")
	}

	gameServer := server.NewGameServer(cfg, store, recorder)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Server stopped: %v", err)
	}
}

package main

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/joho/godotenv"

	"auth-backend/pkg/common/config"
	"auth-backend/pkg/core/user/model"
	"auth-backend/pkg/web/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		hlog.Info("Loaded environment from .env")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		hlog.Fatalf("Invalid configuration: %v", err)
	}

	db, err := cfg.InitDB()
	if err != nil {
		hlog.Fatalf("Failed to initialize database: %v", err)
	}

	if err := model.AutoMigrate(db); err != nil {
		hlog.Fatalf("Failed to migrate schema: %v", err)
	}

	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)

	if err := router.RegisterAPIs(h, cfg, db); err != nil {
		hlog.Fatalf("Failed to register routes: %v", err)
	}

	h.Spin()
}

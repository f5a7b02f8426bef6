package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"gorm.io/gorm"

	"auth-backend/pkg/common/config"
	"auth-backend/pkg/core/auth/token"
	dao "auth-backend/pkg/core/user/repository/dao/impl"
	"auth-backend/pkg/web/handler"
	"auth-backend/pkg/web/middleware"
)

// RegisterAPIs wires repositories, token issuance and handlers onto the
// server. Fails when the signing configuration is unusable.
func RegisterAPIs(h *server.Hertz, cfg *config.Config, db *gorm.DB) error {
	issuer, err := token.NewIssuer(cfg.Middleware.JWT)
	if err != nil {
		return err
	}

	users := dao.NewUserRepository(db)
	authHandler := handler.NewAuthHandler(users, issuer, cfg.Cookie)
	userHandler := handler.NewUserHandler(users)
	healthHandler := handler.NewHealthCheckHandler(db)

	h.Use(
		middleware.RecoveryMiddleware(cfg),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Middleware.CORS),
	)

	h.GET("/health", healthHandler.HealthCheck)

	h.POST("/register", authHandler.Register)
	h.POST("/login", authHandler.Login)
	h.GET("/logout", authHandler.Logout)
	h.GET("/refresh/:id", authHandler.Refresh)

	// Routes behind the access-token guard.
	authed := h.Group("/")
	authed.Use(middleware.AccessTokenMiddleware(cfg.Middleware.JWT))
	authed.GET("/me", userHandler.Me)

	return nil
}

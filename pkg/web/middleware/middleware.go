package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/cors"
	jwtmw "github.com/hertz-contrib/jwt"

	"auth-backend/pkg/common/config"
	"auth-backend/pkg/web/handler"
	"auth-backend/pkg/web/model"
)

// LoggerMiddleware emits one structured line per request.
func LoggerMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		latency := time.Since(start)

		hlog.CtxTracef(c, "| %3d | %13v | %15s | %-7s | %s | UA=%s",
			ctx.Response.StatusCode(),
			latency,
			ctx.ClientIP(),
			ctx.Method(),
			ctx.Path(),
			ctx.GetHeader("User-Agent"),
		)
	}
}

// RecoveryMiddleware converts panics into the JSON envelope so clients never
// see a raw stack trace. Stack detail is only echoed outside production.
func RecoveryMiddleware(cfg *config.Config) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())

				hlog.CtxErrorf(c, "[PANIC RECOVERED] %v\n%s", err, stack)

				if cfg.IsProd() {
					ctx.AbortWithStatusJSON(500, model.NewFailure(500, "Internal server error."))
				} else {
					ctx.AbortWithStatusJSON(500, map[string]interface{}{
						"code":  500,
						"error": fmt.Sprintf("%v", err),
						"stack": strings.Split(stack, "\n"),
					})
				}
			}
		}()
		ctx.Next(c)
	}
}

// CORSMiddleware applies the configured cross-origin policy.
func CORSMiddleware(corsConfig config.CORSConfig) app.HandlerFunc {
	return cors.New(
		cors.Config{
			AllowOrigins:     corsConfig.AllowOrigins,
			AllowMethods:     corsConfig.AllowMethods,
			AllowHeaders:     corsConfig.AllowHeaders,
			ExposeHeaders:    corsConfig.ExposeHeaders,
			AllowCredentials: corsConfig.AllowCredentials,
			MaxAge:           corsConfig.MaxAge,
		},
	)
}

// AccessTokenMiddleware guards routes that require a valid access token.
// The token is parsed with the access secret; the username inside the
// UserInfo claim becomes the request identity.
func AccessTokenMiddleware(cfg config.JWTAuthConfig) app.HandlerFunc {
	authMiddleware, err := jwtmw.New(&jwtmw.HertzJWTMiddleware{
		Realm:            cfg.Issuer,
		SigningAlgorithm: cfg.SigningMethod,
		Key:              []byte(cfg.Access.Secret),
		Timeout:          cfg.Access.ExpireDuration,
		TokenLookup:      "header: Authorization",
		TokenHeadName:    "Bearer",
		TimeFunc:         time.Now,
		IdentityKey:      handler.IdentityKey,
		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwtmw.ExtractClaims(ctx, c)
			info, ok := claims["UserInfo"].(map[string]interface{})
			if !ok {
				return ""
			}
			username, _ := info["username"].(string)
			return username
		},
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			hlog.CtxWarnf(ctx, "access token rejected path=%s: %s", c.Path(), message)
			c.JSON(code, model.NewFailure(code, message))
		},
	})
	if err != nil {
		panic(fmt.Sprintf("JWT middleware init failed: %v", err))
	}
	return authMiddleware.MiddlewareFunc()
}

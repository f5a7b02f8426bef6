package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServerConfig struct {
	Address string `json:"address"`
}

type CORSConfig struct {
	AllowOrigins     []string      `json:"allowOrigins"`
	AllowMethods     []string      `json:"allowMethods"`
	AllowHeaders     []string      `json:"allowHeaders"`
	ExposeHeaders    []string      `json:"exposeHeaders"`
	AllowCredentials bool          `json:"allowCredentials"`
	MaxAge           time.Duration `json:"maxAge"`
}

// TokenConfig holds the signing parameters for one token family.
// Access and refresh tokens use distinct secrets.
type TokenConfig struct {
	Secret         string        `json:"secret"`
	ExpireDuration time.Duration `json:"expireDuration"`
}

type JWTAuthConfig struct {
	Access        TokenConfig `json:"access"`
	Refresh       TokenConfig `json:"refresh"`
	Issuer        string      `json:"issuer"`
	SigningMethod string      `json:"signingMethod"`
}

// CookieConfig controls the refresh-token cookie set on login/register.
type CookieConfig struct {
	Name     string `json:"name"`
	MaxAge   int    `json:"maxAge"` // seconds
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
}

type MiddlewareConfig struct {
	JWT  JWTAuthConfig `json:"jwt"`
	CORS CORSConfig    `json:"cors"`
}

type DatabaseConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DBName      string `json:"dbname"`
	UseUnixSock bool   `json:"useUnixSock"`
	MinPoolSize int    `json:"minPoolSize"`
	MaxPoolSize int    `json:"maxPoolSize"`
	LogLevel    string `json:"logLevel"`
}

type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Middleware MiddlewareConfig `json:"middleware"`
	Cookie     CookieConfig     `json:"cookie"`
	Env        string           `json:"env"`
}

var defaultConfig = Config{
	Server: ServerConfig{
		Address: ":8080",
	},
	Database: DatabaseConfig{
		Host:        "localhost",
		Port:        3306,
		Username:    "root",
		Password:    "root",
		DBName:      "auth",
		UseUnixSock: false,
		MinPoolSize: 5,
		MaxPoolSize: 50,
		LogLevel:    "warn",
	},
	Middleware: MiddlewareConfig{
		JWT: JWTAuthConfig{
			Access: TokenConfig{
				Secret:         "dev-access-secret-change-me",
				ExpireDuration: 6 * time.Hour,
			},
			Refresh: TokenConfig{
				Secret:         "dev-refresh-secret-change-me",
				ExpireDuration: 24 * time.Hour,
			},
			Issuer:        "auth-backend",
			SigningMethod: "HS256",
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
	},
	Cookie: CookieConfig{
		Name:     "jwt",
		MaxAge:   24 * 60 * 60,
		Secure:   true,
		HTTPOnly: true,
	},
	Env: "development",
}

// IsProd reports whether the process runs in production mode.
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// Validate rejects configurations that cannot sign tokens. Called once at
// startup; an empty secret is fatal there rather than on a request path.
func (c *Config) Validate() error {
	if c.Middleware.JWT.Access.Secret == "" {
		return errors.New("access token secret is not set")
	}
	if c.Middleware.JWT.Refresh.Secret == "" {
		return errors.New("refresh token secret is not set")
	}
	if c.IsProd() {
		if c.Middleware.JWT.Access.Secret == defaultConfig.Middleware.JWT.Access.Secret ||
			c.Middleware.JWT.Refresh.Secret == defaultConfig.Middleware.JWT.Refresh.Secret {
			return errors.New("default signing secrets are not allowed in production")
		}
	}
	return nil
}

// Load builds the configuration. Precedence: environment > config file > defaults.
func Load() *Config {
	config := defaultConfig

	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(&config, configPath); err != nil {
			hlog.Warnf("Failed to load config file: %v", err)
		}
	}

	loadFromEnv(&config)

	return &config
}

func getConfigPath() string {
	if path := os.Getenv("APP_CONFIG"); path != "" {
		return path
	}

	searchPaths := []string{
		"./config.json",
		"../config.json",
		"/etc/auth-backend/config.json",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, config)
}

func loadFromEnv(config *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		config.Server.Address = v
	}

	if v := os.Getenv("APP_ENV"); v != "" {
		config.Env = v
	}

	// Secrets keep the env names existing deployments already use.
	if v := os.Getenv("ACCESS_TOKEN_SECRET"); v != "" {
		config.Middleware.JWT.Access.Secret = v
	}

	if v := os.Getenv("REFRESH_TOKEN_SECRET"); v != "" {
		config.Middleware.JWT.Refresh.Secret = v
	}

	if v := os.Getenv("ACCESS_TOKEN_EXPIRATION"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			config.Middleware.JWT.Access.ExpireDuration = duration
		} else {
			hlog.Warnf("Invalid ACCESS_TOKEN_EXPIRATION format: %v", err)
		}
	}

	if v := os.Getenv("REFRESH_TOKEN_EXPIRATION"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			config.Middleware.JWT.Refresh.ExpireDuration = duration
		} else {
			hlog.Warnf("Invalid REFRESH_TOKEN_EXPIRATION format: %v", err)
		}
	}

	if v := os.Getenv("JWT_ISSUER"); v != "" {
		config.Middleware.JWT.Issuer = v
	}

	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		config.Middleware.CORS.AllowOrigins = splitEnvList(v)
	}

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		config.Cookie.Secure = parseBool(v)
	}

	if v := os.Getenv("DB_HOST"); v != "" {
		config.Database.Host = v
	}

	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Database.Port = port
		}
	}

	if v := os.Getenv("DB_USER"); v != "" {
		config.Database.Username = v
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}

	if v := os.Getenv("DB_NAME"); v != "" {
		config.Database.DBName = v
	}

	if v := os.Getenv("DB_SOCKET"); v != "" {
		config.Database.UseUnixSock = parseBool(v)
	}

	if v := os.Getenv("DB_MIN_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MinPoolSize = size
		}
	}

	if v := os.Getenv("DB_MAX_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MaxPoolSize = size
		}
	}

	if v := os.Getenv("DB_LOG_LEVEL"); v != "" {
		config.Database.LogLevel = strings.ToLower(v)
	}
}

// splitEnvList splits a comma separated environment value.
func splitEnvList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func parseBool(value string) bool {
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes"
}

func (c *Config) InitDB() (*gorm.DB, error) {
	var dsn string
	charsetParam := "charset=utf8mb4&parseTime=True&loc=Local"

	if c.Database.UseUnixSock {
		// Host holds the socket path in this mode.
		dsn = fmt.Sprintf("%s:%s@unix(%s)/%s?%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.DBName,
			charsetParam)
	} else {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.DBName,
			charsetParam)
	}

	gormConfig := &gorm.Config{TranslateError: true}
	switch c.Database.LogLevel {
	case "silent":
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	case "error":
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	case "warn":
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	case "info":
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(c.Database.MinPoolSize)
	sqlDB.SetMaxOpenConns(c.Database.MaxPoolSize)

	return db, nil
}

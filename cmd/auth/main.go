package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	myPostgresRepo "github.com/iamabhishekbhol/JWT-Authentication/internal/adapters/db/postgres"
	myRedisRepo "github.com/iamabhishekbhol/JWT-Authentication/internal/adapters/db/redis"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/adapters/transport/http/dto"
	httpmw "github.com/iamabhishekbhol/JWT-Authentication/internal/adapters/transport/http/middleware"
	appjwt "github.com/iamabhishekbhol/JWT-Authentication/internal/app/auth/jwt"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/app/auth/password"
	appsvc "github.com/iamabhishekbhol/JWT-Authentication/internal/app/auth/service"
	authErrors "github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/errors"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/repo"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/infra/config"
	lg "github.com/iamabhishekbhol/JWT-Authentication/internal/infra/log"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/infra/migrate"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	var users repo.UserRepo
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
		if err != nil {
			zapLog.Fatal("failed to connect to database", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			zapLog.Fatal("db handle", zap.Error(err))
		}
		defer sqlDB.Close()
		if err := migrate.Up(sqlDB); err != nil {
			zapLog.Fatal("run migrations", zap.Error(err))
		}
		users = myPostgresRepo.NewPostgresUserRepo(db)

	case config.StoreBackendRedis:
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		users = myRedisRepo.NewRedisUserRepo(redisCli)
	}

	validate := validator.New()
	_ = validate.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		if len(pwd) < 6 {
			return false
		}
		var hasDigit, hasSpecial bool
		for _, r := range pwd {
			if unicode.IsDigit(r) {
				hasDigit = true
			}
			if strings.ContainsRune("!@#$%^&*", r) {
				hasSpecial = true
			}
		}
		return hasDigit && hasSpecial
	})

	jwtUtil, err := appjwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}

	svc, err := appsvc.New(users, jwtUtil, password.NewHasher(cfg.PasswordPepper), validate)
	if err != nil {
		zapLog.Fatal("failed to init auth service", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: cfg.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the Auth API")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	api := router.Group("/api")

	api.POST("/register", func(c *gin.Context) {
		var body dto.RegisterDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id, err := svc.Register(c.Request.Context(), body)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"userId":  id.String(),
		})
	})

	api.POST("/login", func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pair, err := svc.Login(c.Request.Context(), body)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "Login successful",
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	})

	api.POST("/token", func(c *gin.Context) {
		var body dto.RotateDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pair, err := svc.Rotate(c.Request.Context(), body)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	})

	api.POST("/logout", func(c *gin.Context) {
		var body dto.LogoutDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.Logout(c.Request.Context(), body); err != nil {
			handleError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/protected", httpmw.RequireAccessToken(svc), func(c *gin.Context) {
		claims, ok := httpmw.ClaimsFrom(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Access granted to the protected route",
			"user": gin.H{
				"id":       claims.Subject,
				"username": claims.Username,
			},
		})
	})

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	rootCtx, cancel := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}

func handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsPasswordTooLong(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case authErrors.IsTokenRevoked(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "refresh token revoked or not found"})
	case authErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case authErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case authErrors.IsStoreUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

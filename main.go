package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/NYARANGA-ROB/Smart/handlers"
	"github.com/NYARANGA-ROB/Smart/internal/advisory"
	"github.com/NYARANGA-ROB/Smart/internal/auth"
	"github.com/NYARANGA-ROB/Smart/internal/config"
	"github.com/NYARANGA-ROB/Smart/internal/crops"
	"github.com/NYARANGA-ROB/Smart/internal/database"
	"github.com/NYARANGA-ROB/Smart/internal/farms"
	"github.com/NYARANGA-ROB/Smart/internal/identity"
	"github.com/NYARANGA-ROB/Smart/internal/mailer"
	"github.com/NYARANGA-ROB/Smart/internal/storage"
	"github.com/NYARANGA-ROB/Smart/internal/users"
	"github.com/NYARANGA-ROB/Smart/internal/ws"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/metrics"
	"github.com/NYARANGA-ROB/Smart/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// log level is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: identity=%v mongo=%v redis=%v smtp=%v",
		cfg.Identity.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.SMTP.Host != "")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS for the configured frontend origin. OPTIONS preflights stop here.
	r.Use(func(c *gin.Context) {
		origin := cfg.CORS.FrontendURL
		if origin == "" {
			origin = "*"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis first: the blacklist and the rate limiter both want it.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimit(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Token verification: OIDC discovery against the identity realm, or the
	// insecure payload parser when explicitly opted in for integration runs.
	var tokens auth.TokenVerifier
	if cfg.Identity.URL != "" && cfg.Identity.Realm != "" && cfg.Identity.ClientID != "" {
		issuer := strings.TrimRight(cfg.Identity.URL, "/") + "/realms/" + cfg.Identity.Realm
		ov, err := auth.NewOIDCVerifier(ctx, issuer, cfg.Identity.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			tokens = ov
		}
	}
	if tokens == nil {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warn("enabling insecure token verifier (integration mode)")
			tokens = auth.NewInsecureVerifier()
		} else {
			logger.Fatalf("no token verifier available: configure IDENTITY_URL or set ALLOW_INSECURE_TOKEN=true")
		}
	}
	blacklist := auth.NewBlacklist(redisClient)
	verifier := auth.NewVerifier(tokens, blacklist)

	// MongoDB with retry to tolerate startup races against the database
	// container.
	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database(cfg.MongoDB.Database)

	userSvc := users.NewService(users.NewMongoRepository(db.Collection("users")))
	farmSvc := farms.NewService(farms.NewMongoRepository(db.Collection("farms")))
	cropSvc := crops.NewService(
		crops.NewMongoPlanRepository(db.Collection("cropPlans")),
		crops.NewMongoCatalogRepository(db.Collection("crops")),
	)
	advisorySvc := advisory.NewClient(cfg.Advisory)
	provider := identity.NewKeycloak(cfg.Identity)
	mail := mailer.NewDispatcher(mailer.NewSMTPSender(cfg.SMTP))
	hub := ws.NewHub()

	// Object storage is optional; without it the pest photo routes stay off.
	var store storage.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		ms, err := storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			logger.Warnf("failed to connect to MinIO (%s): %v", cfg.MinIO.Endpoint, err)
		} else {
			store = ms
			logger.Infof("Connected to MinIO: %s", cfg.MinIO.Endpoint)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"uptime":      time.Since(startTime).String(),
			"environment": cfg.Server.Environment,
		})
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := gin.H{
			"mongodb": client.Ping(c.Request.Context(), nil) == nil,
			"redis":   redisClient == nil || redisClient.Ping(c.Request.Context()).Err() == nil,
		}
		for _, ok := range deps {
			if !ok.(bool) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.Authenticate(verifier, true)
	farmAccess := middleware.RequireFarmAccess(farmSvc)

	api := r.Group("/api")
	handlers.NewAuthHandler(cfg, provider, userSvc, blacklist, mail).Register(api)
	handlers.NewUsersHandler(userSvc).Register(api, authRequired)
	handlers.NewFarmsHandler(farmSvc).Register(api, authRequired, farmAccess)
	handlers.NewCropsHandler(cropSvc, farmSvc, advisorySvc, hub).Register(api, authRequired, farmAccess)
	if store != nil {
		handlers.NewPestDetectionHandler(store, advisorySvc).Register(api, authRequired)
	} else {
		logger.Warnf("pest detection routes not registered because object storage is unavailable")
	}

	// Realtime rooms: auth is optional at connect time, private rooms check
	// claims at join time.
	r.GET("/ws", middleware.Authenticate(verifier, false), func(c *gin.Context) {
		ws.Serve(hub, c)
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting SmartAgriNet backend on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

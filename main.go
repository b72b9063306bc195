package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"gymstack-backend/common"
	"gymstack-backend/db"
	"gymstack-backend/middleware"
	"gymstack-backend/monitoring"
	"gymstack-backend/sections"
	"gymstack-backend/sections/common/auth"
	"gymstack-backend/sections/common/tenantctx"
	"gymstack-backend/sections/common/users"
	"gymstack-backend/sections/models"
	"gymstack-backend/sections/register"
	"gymstack-backend/sections/tenant/billing"
	"gymstack-backend/sections/tenant/notify"
	"gymstack-backend/services"
	"gymstack-backend/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func main() {
	// Set up structured logging with debug level
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	// Load environment variables
	if _, err := os.Stat(common.PRIVATE_CREDENTIALS_DOTENV); err == nil {
		if err := godotenv.Load(".env.private"); err != nil {
			slog.Error("Failed to load .env.private file", "error", err)
			os.Exit(1)
		}
	}

	cfgDir := getEnv("CONFIG_DIR", common.DEFAULT_CONFIG_DIR)

	// Load configuration
	cfg, err := common.LoadConfig(cfgDir)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Connect to Postgres and migrate the schema
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	err = database.Migrate(
		&models.Gym{},
		&models.User{},
		&models.GymMember{},
		&models.MembershipPlan{},
		&models.Member{},
		&models.Payment{},
		&models.Invoice{},
		&models.Notification{},
	)
	if err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Initialize Redis client
	redisClient, err := storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix, 0)
	if err != nil {
		slog.Error("Failed to initialize Redis client", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Select the payment gateway integration
	gateway, err := services.NewGateway(cfg)
	if err != nil {
		slog.Error("Failed to initialize payment gateway", "error", err)
		os.Exit(1)
	}
	slog.Info("Payment gateway selected", "gateway", gateway.Name())

	mailer := services.NewMailerService(cfg)
	if !mailer.Enabled() {
		slog.Info("No SendGrid API key provided - emails will be skipped")
	}

	jwtManager, err := auth.NewJWTManagerFromEnv()
	if err != nil {
		slog.Error("Failed to initialize JWT manager", "error", err)
		os.Exit(1)
	}

	monitoring.InitMetrics()

	deps := sections.NewDependencies(cfg, database, redisClient, gateway, mailer)

	// Initialize Gin router
	r := gin.Default()

	env := getEnv("APP_ENV", "production")
	trustedProxies := getEnv("TRUSTED_PROXIES", "")
	corsOrigins := getEnv("CORS_ORIGINS", "")

	if env != "development" && trustedProxies == "" {
		slog.Error("In production mode, TRUSTED_PROXIES must be set")
		os.Exit(1)
	} else if trustedProxies != "" {
		slog.Info("Setting trusted proxies", "proxies", trustedProxies)
		proxies := strings.Split(trustedProxies, ",")
		if err := r.SetTrustedProxies(proxies); err != nil {
			slog.Error("Failed to set trusted proxies", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("No trusted proxies set (TRUSTED_PROXIES not defined)")
	}

	// Configure CORS
	corsConfig := cors.DefaultConfig()

	if env != "development" && corsOrigins == "" {
		slog.Error("In production mode, CORS_ORIGINS must be set")
		os.Exit(1)
	} else if corsOrigins != "" {
		slog.Info("CORS origins set from CORS_ORIGINS")
		corsConfig.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		slog.Warn("Using default origin function in non-production mode (CORS_ORIGINS not defined)")
		corsConfig.AllowOriginFunc = func(origin string) bool {
			if origin == "http://localhost" || strings.HasPrefix(origin, "http://localhost:") {
				return true
			}
			return false
		}
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Gymstack-Frontend-Key"}
	r.Use(cors.New(corsConfig))

	// Require the frontend key on every request when one is configured
	if cfg.FrontendKey != "" {
		slog.Info("Frontend API key auth enabled")
		r.Use(middleware.APIFrontendKeyAuthMiddleware(cfg.FrontendKey))
	}

	// Resolve the tenant for every request
	resolver := tenantctx.NewResolver(database, redisClient)
	r.Use(tenantctx.Middleware(resolver))

	// Feature routes
	register.RegisterRoutes(r, deps, jwtManager)
	users.RegisterRoutes(r, deps, jwtManager)
	billing.RegisterRoutes(r, deps, jwtManager)
	notify.RegisterRoutes(r, deps, jwtManager)

	// Operational endpoints
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	slog.Info("Server starting", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

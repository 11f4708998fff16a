// Talentd - Talent management backend
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/arvena/talentd/internal/api"
	"github.com/arvena/talentd/internal/auth"
	"github.com/arvena/talentd/internal/automation"
	"github.com/arvena/talentd/internal/config"
	"github.com/arvena/talentd/internal/database"
	"github.com/arvena/talentd/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		runCLI()
		return
	}
	startServer()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	}))
}

func startServer() {
	logger := newLogger()
	slog.SetDefault(logger)
	logger.Info("starting talentd", "version", Version)

	db := connectDB(logger)
	logger.Info("database connected")

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations complete")

	configService := config.NewService(db)
	if err := configService.SetupDefaults(); err != nil {
		logger.Error("config defaults failed", "error", err)
		os.Exit(1)
	}
	cfg := configService.Load()

	jwtService := auth.NewJWTService(cfg.Auth)
	webhooks := automation.NewWebhookClient(cfg.Automation, logger)
	runner := automation.NewRunner(db, webhooks, logger)
	engine := automation.NewEngine(db, webhooks, logger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(db, jwtService, runner, engine, logger)
	authHandler := api.NewAuthHandler(db, jwtService)
	router := api.SetupRouter(handler, authHandler, cfg)

	srv := newHTTPServer(cfg.Server, router)
	logger.Info("server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// newHTTPServer applies the configured read/write timeouts (seconds)
func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
}

func connectDB(logger *slog.Logger) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		requireEnv("DB_HOST"),
		getEnv("DB_PORT", "5432"),
		requireEnv("DB_USER"),
		requireEnv("DB_PASSWORD"),
		requireEnv("DB_NAME"),
		getEnv("DB_SSLMODE", "disable"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	return db
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Fprintf(os.Stderr, "missing required env: %s\n", key)
		os.Exit(1)
	}
	return value
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// CLI
func runCLI() {
	logger := newLogger()
	switch os.Args[1] {
	case "serve":
		startServer()
	case "migrate":
		db := connectDB(logger)
		if err := database.RunMigrations(db, logger); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("Migrations complete")
	case "tenant":
		runTenantCmd(logger)
	case "user":
		runUserCmd(logger)
	case "secret":
		fmt.Println(config.GenerateJWTSecret())
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: talentd <command>
Commands:
  serve                         Start server
  migrate                       Run migrations
  secret                        Generate a JWT secret
  tenant list                   List tenants
  tenant create --code= --name= Create tenant (seeds roles and modules)
  tenant delete --code=         Delete tenant
  user list --tenant=           List users
  user create --tenant= --email= --password= [--role=] Create user`)
}

func runTenantCmd(logger *slog.Logger) {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	db := connectDB(logger)
	switch os.Args[2] {
	case "list":
		var tenants []models.Tenant
		db.Find(&tenants)
		for _, t := range tenants {
			fmt.Printf("%s - %s\n", t.Code, t.Name)
		}
	case "create":
		code, name := getFlag("--code"), getFlag("--name")
		if code == "" || name == "" {
			printUsage()
			return
		}
		tenant := models.Tenant{ID: uuid.New(), Code: code, Name: name, IsActive: true}
		if err := db.Create(&tenant).Error; err != nil {
			logger.Error("tenant create failed", "error", err)
			os.Exit(1)
		}
		if err := database.SeedTenant(db, tenant.ID); err != nil {
			logger.Error("tenant seed failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Tenant created: %s (%s)\n", code, tenant.ID)
	case "delete":
		code := getFlag("--code")
		if code == "" {
			printUsage()
			return
		}
		db.Where("code = ?", code).Delete(&models.Tenant{})
		fmt.Printf("Tenant deleted: %s\n", code)
	default:
		printUsage()
	}
}

func runUserCmd(logger *slog.Logger) {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	db := connectDB(logger)
	switch os.Args[2] {
	case "list":
		tenantCode := getFlag("--tenant")
		if tenantCode == "" {
			printUsage()
			return
		}
		var tenant models.Tenant
		if db.Where("code = ?", tenantCode).First(&tenant).Error != nil {
			logger.Error("tenant not found", "code", tenantCode)
			os.Exit(1)
		}
		var users []models.User
		db.Where("tenant_id = ?", tenant.ID).Find(&users)
		for _, u := range users {
			fmt.Printf("%s <%s>\n", u.FirstName+" "+u.LastName, u.Email)
		}
	case "create":
		tenantCode := getFlag("--tenant")
		email := getFlag("--email")
		password := getFlag("--password")
		if tenantCode == "" || email == "" || password == "" {
			printUsage()
			return
		}
		var tenant models.Tenant
		if db.Where("code = ?", tenantCode).First(&tenant).Error != nil {
			logger.Error("tenant not found", "code", tenantCode)
			os.Exit(1)
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			logger.Error("password hash failed", "error", err)
			os.Exit(1)
		}
		user := models.User{
			ID:           uuid.New(),
			TenantID:     tenant.ID,
			Email:        email,
			PasswordHash: hash,
			FirstName:    getFlag("--first"),
			LastName:     getFlag("--last"),
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			logger.Error("user create failed", "error", err)
			os.Exit(1)
		}
		if roleCode := getFlag("--role"); roleCode != "" {
			var role models.Role
			if db.Where("tenant_id = ? AND code = ?", tenant.ID, roleCode).First(&role).Error != nil {
				logger.Error("role not found", "code", roleCode)
				os.Exit(1)
			}
			if err := db.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", user.ID, role.ID).Error; err != nil {
				logger.Error("role assignment failed", "error", err)
				os.Exit(1)
			}
		}
		fmt.Printf("User created: %s\n", email)
	default:
		printUsage()
	}
}

func getFlag(name string) string {
	prefix := name + "="
	for _, arg := range os.Args {
		if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
			return arg[len(prefix):]
		}
	}
	return ""
}

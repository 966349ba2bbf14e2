// @title           Procurement API
// @version         1.0
// @description     Quote evaluation engine: landed cost, quote numbering, price anomalies and vendor recommendations.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"procurement/config"
	_ "procurement/docs"
	"procurement/handlers"
	"procurement/services"
	"procurement/storage"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origin)
			}
		}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "Accept", "Origin",
		"X-Requested-With", "Authorization", "User-Agent", "Cache-Control",
		"Accept-Language",
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS", "HEAD"}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour // Cache preflight requests for 12 hours
	return corsConfig
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := storage.InitGormDB(cfg.DSN(), cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := storage.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	store := storage.NewGormStore(db)
	defer store.Close()

	var notifier services.AnomalyNotifier
	var mailer *services.EmailService
	if cfg.MailEnabled() {
		mailer = services.NewEmailService(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.AlertFrom,
			To:       cfg.AlertTo,
		})
		notifier = mailer
		log.Println("Anomaly alert mail enabled")
	} else {
		log.Println("SMTP not configured, anomaly alert mail disabled")
	}

	engine := services.NewQuoteEngine(store, services.EngineOptions{
		QuoteNumberPrefix:  cfg.QuoteNumberPrefix,
		MaxAttempts:        cfg.SequenceMaxRetries,
		MinBaselineSamples: cfg.MinBaselineSamples,
		Policy:             cfg.Policy,
		Explainer:          services.NewOpenAIExplainer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.ExplainRatePerMin),
		ExplainTimeout:     cfg.ExplainTimeout,
		Notifier:           notifier,
	})
	catalog := services.NewCatalogService(store)

	cronLogger := cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger)),
	)
	if mailer != nil {
		digest := services.NewAnomalyDigest(store, mailer)
		if _, err := digest.Schedule(c, cfg.DigestCron); err != nil {
			log.Fatalf("Failed to schedule anomaly digest cron job: %v", err)
		}
		log.Printf("Anomaly digest scheduled (%s)", cfg.DigestCron)
	}
	c.Start()

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	r := handlers.NewRouter(handlers.RouterDeps{
		Engine:     engine,
		Catalog:    catalog,
		JWTSecret:  cfg.JWTSecret,
		Health:     sqlDB.PingContext,
		Middleware: []gin.HandlerFunc{cors.New(CORSConfig())},
	})
	r.MaxMultipartMemory = 8 << 20

	// Validate port is numeric
	portInt, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", cfg.Port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduling new digests and wait for a running one.
	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		log.Println("Warning: anomaly digest still running at shutdown")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	engine.Wait()
	log.Println("Server exiting")
}

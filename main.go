package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduverse_backend/config"
	"eduverse_backend/db"
	"eduverse_backend/jobs"
	"eduverse_backend/mailer"
	"eduverse_backend/middleware"
	"eduverse_backend/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found") // Non-fatal in production
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(ctx, db.Config{
		Driver:   db.Driver(cfg.DBDriver),
		DSN:      cfg.DBDSN,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	cancel()
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	defer database.Close()

	if cfg.SeedFile != "" {
		if err := db.SeedFromFile(context.Background(), database, cfg.SeedFile); err != nil {
			log.Printf("Warning: Error seeding initial data: %v", err)
		}
	}

	mail, err := mailer.New(mailer.Config{
		Driver:         cfg.MailDriver,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUser:       cfg.SMTPUser,
		SMTPPassword:   cfg.SMTPPassword,
		From:           cfg.MailFrom,
		FromName:       cfg.MailFromName,
		SendGridAPIKey: cfg.SendGridAPIKey,
	})
	if err != nil {
		log.Fatalf("Error configuring mailer: %v", err)
	}

	scheduler := jobs.NewScheduler(database)
	if err := scheduler.Start(cfg.OTPCleanupSchedule); err != nil {
		log.Fatalf("Error starting scheduler: %v", err)
	}
	defer scheduler.Stop()

	r := gin.Default()
	r.Use(middleware.RequestID())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
		middleware.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{
		"GET",
		"POST",
		"PUT",
		"DELETE",
		"PATCH",
	}
	r.Use(cors.New(corsConfig))

	routes.SetupRoutes(r, database, routes.Options{
		JWTSecret: []byte(cfg.JWTSecret),
		Mailer:    mail,
		OTPTTL:    cfg.OTPTTL,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	log.Printf("Server listening on :%s (%s)", cfg.ServerPort, cfg.Environment)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"

	"myclassmate-backend/internal/attendance"
	"myclassmate-backend/internal/faceclient"
	"myclassmate-backend/internal/notify"
	"myclassmate-backend/internal/participation"
	"myclassmate-backend/internal/platform/auth"
	"myclassmate-backend/internal/platform/db"
	"myclassmate-backend/internal/report"
	"myclassmate-backend/internal/roster"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if mode != "dev" && mode != "release" {
		log.Fatal("config mode must be dev or release")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	// services
	rosterSvc := roster.NewService(conn)
	attendanceSvc := attendance.NewService(conn, rosterSvc, cfg.Attendance.LateThresholdMinutes)
	participationSvc := participation.NewService(conn, rosterSvc, rosterSvc, attendanceSvc)
	reportSvc := report.NewService(conn)
	authSvc := auth.NewService(conn, cfg.JWT.Secret)
	face := faceclient.New(cfg.Face.BaseURL, time.Duration(cfg.Face.TimeoutSeconds)*time.Second)

	var email notify.EmailService
	if cfg.Email.Provider == "sendgrid" && cfg.Email.SendgridKey != "" {
		email = notify.NewSendgridEmail(cfg.Email.SendgridKey, cfg.Email.FromName, cfg.Email.FromAddress)
	} else {
		log.Printf("[INFO] email provider: console")
		email = notify.NewConsoleEmail()
	}
	job := notify.NewJob(rosterSvc, attendanceSvc, participationSvc, email)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		origins := cfg.CORS.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// /api/v1
	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, authSvc)

	jwtSecret := []byte(cfg.JWT.Secret)

	authed := api.Group("")
	authed.Use(auth.RequireAuth(jwtSecret))
	attendance.RegisterRoutes(authed, attendanceSvc, face)
	faceclient.RegisterRoutes(authed, face)
	participation.RegisterRoutes(authed, participationSvc)
	report.RegisterRoutes(authed, reportSvc)

	admin := api.Group("")
	admin.Use(auth.RequireAuth(jwtSecret), auth.RequireRole(auth.RoleAdmin))
	auth.RegisterAdminRoutes(admin, authSvc)
	notify.RegisterRoutes(admin, job)

	// daily summary trigger
	scheduler := cron.New()
	spec := cfg.Scheduler.Cron
	if spec == "" {
		spec = "0 18 * * *"
	}
	if _, err := scheduler.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := job.RunDailySummary(ctx, time.Now()); err != nil {
			log.Printf("[ERROR] daily summary run: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid scheduler cron %q: %v", spec, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"

	"tmi-forms-api/config"
	"tmi-forms-api/internal/document"
	"tmi-forms-api/internal/formdraft"
	"tmi-forms-api/internal/formsubmission"
	"tmi-forms-api/internal/formtemplate"
	"tmi-forms-api/internal/logs"
	"tmi-forms-api/internal/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"google.golang.org/genai"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.LoadConfig()
	config.InitLogger(cfg.LogLevel)
	log := config.Log

	store, activity, logService := openStores(cfg)

	r := gin.New()
	r.Use(middlewares.RequestLogger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
	}))

	templateService := &formtemplate.TemplateService{Store: store, Log: activity}
	formtemplate.RegisterRoutes(r, templateService)

	submissionService := &formsubmission.SubmissionService{
		Store:     store,
		Templates: templateService,
		Log:       activity,
		Bucket:    cfg.UploadBucket,
	}
	formsubmission.RegisterRoutes(r, submissionService)

	draftService := &formdraft.DraftService{Model: cfg.GeminiModel}
	if cfg.GeminiProject != "" {
		// Vertex AI with application default credentials.
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.GeminiProject,
			Location: cfg.GeminiLocation,
		})
		if err != nil {
			log.WithError(err).Warn("gemini client unavailable, drafts disabled")
		} else {
			draftService.Generator = client.Models
		}
	} else {
		log.Info("GEMINI_PROJECT not set, drafts disabled")
	}
	formdraft.RegisterRoutes(r, draftService)

	if logService != nil {
		logs.RegisterRoutes(r, logService)
	}

	// Cloud Run expects plain HTTP on $PORT bound to 0.0.0.0.
	log.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run("0.0.0.0:" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// openStores picks the document store and activity logger for DB_DRIVER.
// The activity log table and its query endpoint need postgres.
func openStores(cfg config.Config) (document.Store, logs.Logger, *logs.LogService) {
	log := config.Log
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "memory":
		log.Warn("using in-memory document store, data is lost on restart")
		return document.NewMemoryStore(), logs.ProcessLogger{}, nil
	case "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.DBDriver).Fatal("failed to connect to database")
	}

	store := &document.GormStore{DB: db}
	if err := store.Migrate(); err != nil {
		log.WithError(err).Fatal("failed to migrate documents table")
	}

	if cfg.DBDriver == "sqlite" {
		return store, logs.ProcessLogger{}, nil
	}

	if err := db.AutoMigrate(&logs.SystemLog{}); err != nil {
		log.WithError(err).Fatal("failed to migrate logs table")
	}
	logService := &logs.LogService{DB: db}
	return store, logService, logService
}

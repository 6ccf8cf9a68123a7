package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/config"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/handlers"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/metrics"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/middleware"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/ml"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/models"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// A missing .env is fine, deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("sql db handle unavailable")
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatal().Err(err).Msg("database ping failed")
	}
	if err := db.AutoMigrate(&models.Student{}, &models.Enrollment{}); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Cache is optional: with Redis down the service runs uncached.
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, caching and pub/sub disabled")
	}
	defer cache.Close()

	m := metrics.New()

	// Model plumbing
	store := ml.NewMetadataStore(cfg.Model.MetadataPath)
	resolver := ml.NewThresholdResolver(cfg.Model.PredThreshold, store)
	predictor := ml.NewPredictor(cfg.Model.ModelPath, resolver)
	trainer := ml.NewTrainer(cfg.Model.ModelPath, store)

	// A previously trained artifact goes live right away. Without one the
	// prediction endpoints answer 503 until the first retrain.
	if err := predictor.Reload(); err != nil {
		log.Warn().Err(err).Msg("no model artifact at startup, train via POST /api/retrain")
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	students := handlers.NewStudentsHandler(db, cache)
	enrollments := handlers.NewEnrollmentsHandler(db, cache)
	prediction := handlers.NewPredictionHandler(db, cache, predictor, m)
	training := handlers.NewTrainingHandler(cfg, trainer, predictor, m)
	threshold := handlers.NewThresholdHandler(resolver)
	export := handlers.NewExportHandler(db, cfg, m)

	api := router.Group("/api")
	{
		api.GET("/students", students.ListStudents)
		api.POST("/students", students.CreateStudent)
		api.GET("/students/:id", students.GetStudent)
		api.PUT("/students/:id", students.UpdateStudent)
		api.DELETE("/students/:id", students.DeleteStudent)

		api.GET("/enrollments", enrollments.ListEnrollments)
		api.POST("/enrollments", enrollments.CreateEnrollment)
		api.GET("/enrollments/:id", enrollments.GetEnrollment)
		api.PUT("/enrollments/:id", enrollments.UpdateEnrollment)
		api.DELETE("/enrollments/:id", enrollments.DeleteEnrollment)

		api.POST("/predict", prediction.Predict)
	}

	admin := router.Group("/api", middleware.AdminAuth(cfg.Admin.Token))
	{
		admin.POST("/predict_batch", prediction.PredictBatch)
		admin.POST("/retrain", training.Retrain)
		admin.GET("/settings/threshold", threshold.GetThreshold)
		admin.POST("/settings/threshold", threshold.SetThreshold)
		admin.POST("/export", export.ExportCSV)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

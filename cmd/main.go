package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nfcelis/examspot/config"
	"github.com/nfcelis/examspot/database"
	"github.com/nfcelis/examspot/internal/controller"
	adminctrl "github.com/nfcelis/examspot/internal/controller/admin"
	userctrl "github.com/nfcelis/examspot/internal/controller/user"
	"github.com/nfcelis/examspot/internal/logger"
	"github.com/nfcelis/examspot/internal/metrics"
	"github.com/nfcelis/examspot/internal/middleware"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
	"github.com/nfcelis/examspot/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title ExamSpot API
// @version 1.0
// @description Exam authoring and taking platform with automated grading and AI feedback.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	metrics.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewExamRepository,
			repository.NewQuestionRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewMaterialRepository,
		),

		fx.Provide(
			service.NewAuthService,
			service.NewExamService,
			service.NewQuestionService,
			service.NewAIGraderService,
			service.NewGradingService,
			service.NewAnswerBuffer,
			service.NewAttemptService,
			service.NewMaterialService,
			service.NewQuestionGeneratorService,
		),

		fx.Provide(
			controller.NewAuthController,
			adminctrl.NewExamController,
			adminctrl.NewMaterialController,
			userctrl.NewExamController,
			userctrl.NewAttemptController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(StartBackgroundWorkers),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())
	r.Use(metrics.MetricsMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", metrics.PrometheusHandler())

	return r
}

func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authCtrl *controller.AuthController,
	adminExamCtrl *adminctrl.ExamController,
	adminMaterialCtrl *adminctrl.MaterialController,
	userExamCtrl *userctrl.ExamController,
	attemptCtrl *userctrl.AttemptController,
) {
	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authCtrl.Register)
		authGroup.POST("/login", authCtrl.Login)
	}

	adminGroup := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.RequireRole(model.RoleTeacher))
	{
		adminGroup.POST("/exams", adminExamCtrl.CreateExam)
		adminGroup.GET("/exams", adminExamCtrl.ListExams)
		adminGroup.GET("/exams/:exam_id", adminExamCtrl.GetExam)
		adminGroup.PUT("/exams/:exam_id", adminExamCtrl.UpdateExam)
		adminGroup.DELETE("/exams/:exam_id", adminExamCtrl.DeleteExam)
		adminGroup.GET("/exams/:exam_id/attempts", adminExamCtrl.ListExamAttempts)

		adminGroup.POST("/exams/:exam_id/questions", adminExamCtrl.AddQuestion)
		adminGroup.PUT("/questions/:question_id", adminExamCtrl.UpdateQuestion)
		adminGroup.DELETE("/questions/:question_id", adminExamCtrl.DeleteQuestion)

		adminGroup.POST("/materials", adminMaterialCtrl.UploadMaterial)
		adminGroup.GET("/exams/:exam_id/materials", adminMaterialCtrl.ListMaterials)
		adminGroup.DELETE("/materials/:material_id", adminMaterialCtrl.DeleteMaterial)
		adminGroup.POST("/questions/generate", adminMaterialCtrl.GenerateQuestions)
	}

	studentGroup := api.Group("", middleware.AuthMiddleware(cfg))
	{
		studentGroup.GET("/exams", userExamCtrl.ListExams)
		studentGroup.GET("/exams/:exam_id", userExamCtrl.GetExam)

		studentGroup.POST("/exams/:exam_id/attempts", attemptCtrl.StartAttempt)
		studentGroup.GET("/attempts", attemptCtrl.ListMyAttempts)
		studentGroup.GET("/attempts/:attempt_id", attemptCtrl.GetAttempt)
		studentGroup.PUT("/attempts/:attempt_id/answers", attemptCtrl.SaveAnswer)
		studentGroup.POST("/attempts/:attempt_id/submit", attemptCtrl.SubmitAttempt)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("ExamSpot API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// StartBackgroundWorkers runs the autosave flush loop and the time-limit
// enforcement loop. Both stop on application shutdown; a final flush runs so
// buffered answers are not lost.
func StartBackgroundWorkers(
	lc fx.Lifecycle,
	cfg *config.Config,
	buffer *service.AnswerBuffer,
	attemptService service.AttemptService,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				flushTicker := time.NewTicker(cfg.Grading.FlushInterval)
				overdueTicker := time.NewTicker(time.Minute)
				defer flushTicker.Stop()
				defer overdueTicker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-flushTicker.C:
						buffer.Flush()
					case <-overdueTicker.C:
						attemptService.SubmitOverdueAttempts(ctx)
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			buffer.Flush()
			return nil
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Exam{},
		&model.Question{},
		&model.ExamAttempt{},
		&model.ExamAnswer{},
		&model.Material{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}

	// AutoMigrate cannot express a partial unique index; this one backstops
	// the one-active-attempt check against racing starts.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_attempt
		ON exam_attempts (exam_id, user_id)
		WHERE status = 'in_progress' AND deleted_at IS NULL`).Error
	if err != nil {
		log.Error().Err(err).Msg("Failed to create active-attempt index")
		return err
	}

	log.Info().Msg("Database migration completed successfully.")
	return nil
}

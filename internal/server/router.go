package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/studyloop/studyloop-backend/internal/handlers"
	"github.com/studyloop/studyloop-backend/internal/middleware"
)

type RouterConfig struct {
	IdentityMiddleware *middleware.IdentityMiddleware
	UserHandler        *handlers.UserHandler
	CourseHandler      *handlers.CourseHandler
	TopicHandler       *handlers.TopicHandler
	QuizHandler        *handlers.QuizHandler
	MasteryHandler     *handlers.MasteryHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Tracing
	router.Use(otelgin.Middleware("studyloop-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID", "X-User-Role"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.UserHandler.Register)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.IdentityMiddleware.RequireIdentity())

	// Users
	api.GET("/me", cfg.UserHandler.Me)

	// Courses
	api.POST("/courses", cfg.CourseHandler.CreateCourse)
	api.GET("/courses", cfg.CourseHandler.ListCourses)
	api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
	api.GET("/courses/:id/topics", cfg.CourseHandler.ListTopics)
	api.POST("/courses/:id/topics", cfg.TopicHandler.UploadTopic)
	api.POST("/topics/:id/index", cfg.TopicHandler.ReindexTopic)
	api.DELETE("/topics/:id", cfg.TopicHandler.DeleteTopic)

	// Questions
	api.POST("/topics/:id/questions/generate", cfg.QuizHandler.GenerateQuestions)
	api.POST("/topics/:id/questions/save", cfg.QuizHandler.SaveQuestions)
	api.GET("/topics/:id/questions", cfg.QuizHandler.ListQuestions)

	// Quiz attempts
	api.POST("/topics/:id/attempts", cfg.QuizHandler.StartAttempt)
	api.GET("/topics/:id/attempts", cfg.QuizHandler.ListAttempts)
	api.POST("/attempts/:id/submit", cfg.QuizHandler.SubmitAttempt)
	api.GET("/attempts/:id/results", cfg.QuizHandler.AttemptResults)
	api.GET("/attempts/:id/review", cfg.QuizHandler.ReviewAttempt)

	// Mastery
	api.GET("/courses/:id/mastery", cfg.MasteryHandler.StudentMastery)
	api.GET("/courses/:id/mastery/overview", cfg.MasteryHandler.CourseOverview)

	return router
}

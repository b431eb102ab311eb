package main

import (
	"context"
	"fmt"
	"os"

	"github.com/studyloop/studyloop-backend/internal/cache"
	"github.com/studyloop/studyloop-backend/internal/db"
	"github.com/studyloop/studyloop-backend/internal/handlers"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/mcq"
	"github.com/studyloop/studyloop-backend/internal/middleware"
	"github.com/studyloop/studyloop-backend/internal/observability"
	"github.com/studyloop/studyloop-backend/internal/openai"
	"github.com/studyloop/studyloop-backend/internal/outcomes"
	"github.com/studyloop/studyloop-backend/internal/repos"
	"github.com/studyloop/studyloop-backend/internal/semindex"
	"github.com/studyloop/studyloop-backend/internal/server"
	"github.com/studyloop/studyloop-backend/internal/services"
	"github.com/studyloop/studyloop-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "studyloop-backend", log),
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if shutdownTracing != nil {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err = db.AutoMigrateAll(thePG); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}

	// Course outcome catalogue
	outcomeSet, err := outcomes.Load(os.Getenv("COURSE_OUTCOMES_FILE"))
	if err != nil {
		log.Error("Could not load course outcomes", "error", err)
		os.Exit(1)
	}

	// OpenAI
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}

	// Semantic index
	indexDir := utils.GetEnv("INDEX_CACHE_DIR", "data/indexes", log)
	indexStore, err := semindex.NewFSStore(indexDir)
	if err != nil {
		log.Error("Could not init index store", "error", err, "dir", indexDir)
		os.Exit(1)
	}
	indexService, err := semindex.NewService(log, indexStore, openaiClient)
	if err != nil {
		log.Error("Could not init index service", "error", err)
		os.Exit(1)
	}

	// Question generation
	generator, err := mcq.NewGenerator(log, mcq.NewOpenAIBackend(openaiClient), outcomeSet)
	if err != nil {
		log.Error("Could not init question generator", "error", err)
		os.Exit(1)
	}
	pendingCache, err := cache.NewPendingBatchCache(log)
	if err != nil {
		log.Error("Could not init pending batch cache", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	topicRepo := repos.NewTopicRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	attemptRepo := repos.NewAttemptRepo(thePG, log)
	answerRepo := repos.NewAnswerRepo(thePG, log)
	coPerformanceRepo := repos.NewCOPerformanceRepo(thePG, log)
	progressRepo := repos.NewProgressRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	userService, err := services.NewUserService(log, userRepo)
	if err != nil {
		log.Error("Could not init UserService", "error", err)
		os.Exit(1)
	}
	courseService, err := services.NewCourseService(log, courseRepo, topicRepo)
	if err != nil {
		log.Error("Could not init CourseService", "error", err)
		os.Exit(1)
	}
	indexingService, err := services.NewIndexingService(log, thePG, courseRepo, topicRepo, documentRepo, questionRepo, indexService)
	if err != nil {
		log.Error("Could not init IndexingService", "error", err)
		os.Exit(1)
	}
	questionService, err := services.NewQuestionService(log, thePG, topicRepo, questionRepo, indexService, generator, pendingCache, outcomeSet)
	if err != nil {
		log.Error("Could not init QuestionService", "error", err)
		os.Exit(1)
	}
	quizService, err := services.NewQuizService(log, thePG, topicRepo, questionRepo, attemptRepo, answerRepo, coPerformanceRepo, progressRepo)
	if err != nil {
		log.Error("Could not init QuizService", "error", err)
		os.Exit(1)
	}
	masteryService, err := services.NewMasteryService(log, courseRepo, topicRepo, questionRepo, coPerformanceRepo, progressRepo)
	if err != nil {
		log.Error("Could not init MasteryService", "error", err)
		os.Exit(1)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	userHandler := handlers.NewUserHandler(log, userService)
	courseHandler := handlers.NewCourseHandler(log, courseService)
	topicHandler := handlers.NewTopicHandler(log, indexingService)
	quizHandler := handlers.NewQuizHandler(log, questionService, quizService)
	masteryHandler := handlers.NewMasteryHandler(log, masteryService, outcomeSet)

	// Middleware
	log.Info("Setting up middleware from main...")
	identityMiddleware := middleware.NewIdentityMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		IdentityMiddleware: identityMiddleware,
		UserHandler:        userHandler,
		CourseHandler:      courseHandler,
		TopicHandler:       topicHandler,
		QuizHandler:        quizHandler,
		MasteryHandler:     masteryHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}

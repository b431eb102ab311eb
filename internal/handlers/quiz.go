package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/mcq"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/response"
	"github.com/studyloop/studyloop-backend/internal/services"
)

type QuizHandler struct {
	log             *logger.Logger
	questionService services.QuestionService
	quizService     services.QuizService
}

func NewQuizHandler(log *logger.Logger, questionService services.QuestionService, quizService services.QuizService) *QuizHandler {
	return &QuizHandler{
		log:             log.With("handler", "QuizHandler"),
		questionService: questionService,
		quizService:     quizService,
	}
}

type generateRequest struct {
	Topics       []string `json:"topics" binding:"required"`
	NumQuestions int      `json:"num_questions" binding:"required"`
	COTags       []string `json:"co_tags"`
}

// POST /api/topics/:id/questions/generate
func (h *QuizHandler) GenerateQuestions(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.questionService.Generate(c.Request.Context(), actor, services.GenerateInput{
		TopicID:      topicID,
		Topics:       req.Topics,
		NumQuestions: req.NumQuestions,
		COTags:       req.COTags,
	})
	if err != nil {
		h.log.Error("GenerateQuestions failed", "error", err, "topic_id", topicID, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}

	response.RespondOK(c, gin.H{
		"topic_id":              result.TopicID,
		"topic_title":           result.TopicTitle,
		"questions":             result.Batch.Questions,
		"requested":             result.Batch.Requested,
		"generated":             result.Batch.Generated,
		"dropped":               result.Batch.Dropped,
		"retrieved_chunk_count": result.RetrievedChunkCount,
	})
}

type saveRequest struct {
	// Questions omitted means "save the pending generated batch as-is".
	Questions []mcq.Question `json:"questions"`
}

// POST /api/topics/:id/questions/save
func (h *QuizHandler) SaveQuestions(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	saved, err := h.questionService.Save(c.Request.Context(), actor, topicID, req.Questions)
	if err != nil {
		h.log.Error("SaveQuestions failed", "error", err, "topic_id", topicID, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"saved": saved})
}

// GET /api/topics/:id/questions
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	if _, ok := requestdata.ActorFrom(c.Request.Context()); !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	questions, err := h.questionService.ListByTopic(c.Request.Context(), topicID)
	if err != nil {
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": questions})
}

// POST /api/topics/:id/attempts
func (h *QuizHandler) StartAttempt(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	result, err := h.quizService.StartAttempt(c.Request.Context(), actor, topicID)
	if err != nil {
		h.log.Error("StartAttempt failed", "error", err, "topic_id", topicID, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{
		"attempt":   result.Attempt,
		"questions": result.Questions,
		"resumed":   result.Resumed,
	})
}

type submitRequest struct {
	TopicID uuid.UUID            `json:"topic_id" binding:"required"`
	Answers map[uuid.UUID]string `json:"answers"`
}

// POST /api/attempts/:id/submit
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_attempt_id", err)
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.quizService.Submit(c.Request.Context(), actor, services.SubmitInput{
		AttemptID: attemptID,
		TopicID:   req.TopicID,
		Answers:   req.Answers,
	})
	if err != nil {
		h.log.Error("SubmitAttempt failed", "error", err, "attempt_id", attemptID, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"score": result.Score, "total": result.Total})
}

// GET /api/topics/:id/attempts
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	attempts, err := h.quizService.ListAttempts(c.Request.Context(), actor, topicID)
	if err != nil {
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"attempts": attempts})
}

// GET /api/attempts/:id/results
func (h *QuizHandler) AttemptResults(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_attempt_id", err)
		return
	}
	results, err := h.quizService.Results(c.Request.Context(), actor, attemptID)
	if err != nil {
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, results)
}

// GET /api/attempts/:id/review
func (h *QuizHandler) ReviewAttempt(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_attempt_id", err)
		return
	}
	items, attempt, err := h.quizService.Review(c.Request.Context(), actor, attemptID)
	if err != nil {
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"attempt": attempt, "items": items})
}

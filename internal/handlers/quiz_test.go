package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/mcq"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/services"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type stubQuestionService struct {
	generate func(ctx context.Context, actor requestdata.Actor, in services.GenerateInput) (*services.GenerateResult, error)
}

func (s *stubQuestionService) Generate(ctx context.Context, actor requestdata.Actor, in services.GenerateInput) (*services.GenerateResult, error) {
	return s.generate(ctx, actor, in)
}

func (s *stubQuestionService) Save(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID, questions []mcq.Question) (int, error) {
	return 0, nil
}

func (s *stubQuestionService) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*types.GeneratedQuestion, error) {
	return nil, nil
}

func quizTestRouter(t *testing.T, questions services.QuestionService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { log.Sync() })

	handler := NewQuizHandler(log, questions, nil)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		actor := requestdata.Actor{UserID: uuid.New(), Role: types.RoleFaculty}
		c.Request = c.Request.WithContext(requestdata.WithActor(c.Request.Context(), actor))
		c.Next()
	})
	router.POST("/api/topics/:id/questions/generate", handler.GenerateQuestions)
	return router
}

func TestGenerateQuestionsResponseIncludesRetrievalCount(t *testing.T) {
	topicID := uuid.New()
	stub := &stubQuestionService{
		generate: func(ctx context.Context, actor requestdata.Actor, in services.GenerateInput) (*services.GenerateResult, error) {
			return &services.GenerateResult{
				TopicID:    in.TopicID,
				TopicTitle: "Neural Signaling",
				Batch: mcq.Batch{
					Questions: []mcq.Question{{
						Question:      "Which ion influx triggers neurotransmitter release?",
						Options:       []string{"Calcium", "Sodium", "Potassium", "Chloride"},
						CorrectAnswer: "Calcium",
						COTag:         "CO2",
					}},
					Requested: 1,
					Generated: 1,
				},
				RetrievedChunkCount: 7,
			}, nil
		},
	}
	router := quizTestRouter(t, stub)

	body := `{"topics":["synaptic transmission"],"num_questions":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/topics/"+topicID.String()+"/questions/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		TopicID             uuid.UUID      `json:"topic_id"`
		Questions           []mcq.Question `json:"questions"`
		Generated           int            `json:"generated"`
		RetrievedChunkCount *int           `json:"retrieved_chunk_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.RetrievedChunkCount == nil {
		t.Fatal("response omits retrieved_chunk_count")
	}
	if *payload.RetrievedChunkCount != 7 {
		t.Errorf("retrieved_chunk_count = %d, want 7", *payload.RetrievedChunkCount)
	}
	if payload.TopicID != topicID {
		t.Errorf("topic_id = %s, want %s", payload.TopicID, topicID)
	}
	if len(payload.Questions) != 1 || payload.Generated != 1 {
		t.Errorf("questions=%d generated=%d, want 1 and 1", len(payload.Questions), payload.Generated)
	}
}

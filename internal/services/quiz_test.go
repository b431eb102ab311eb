package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/types"
)

// The service runs its writes inside a gorm transaction, so the tests need a
// live handle even though all persistence goes through in-memory fakes.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	return db
}

type fakeAttemptRepo struct {
	byID map[uuid.UUID]*types.QuizAttempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{byID: map[uuid.UUID]*types.QuizAttempt{}}
}

func (r *fakeAttemptRepo) Create(dbc dbctx.Context, attempt *types.QuizAttempt) (*types.QuizAttempt, error) {
	if attempt == nil {
		return nil, nil
	}
	r.byID[attempt.ID] = attempt
	return attempt, nil
}

func (r *fakeAttemptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.QuizAttempt, error) {
	return r.byID[id], nil
}

func (r *fakeAttemptRepo) ListByStudentAndTopic(dbc dbctx.Context, studentID, topicID uuid.UUID) ([]*types.QuizAttempt, error) {
	var out []*types.QuizAttempt
	for _, a := range r.byID {
		if a.StudentID == studentID && a.TopicID == topicID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	a, ok := r.byID[id]
	if !ok {
		return nil
	}
	if v, ok := updates["score"].(int); ok {
		a.Score = v
	}
	if v, ok := updates["total_questions"].(int); ok {
		a.TotalQuestions = v
	}
	if v, ok := updates["submitted"].(bool); ok {
		a.Submitted = v
	}
	return nil
}

type fakeQuestionRepo struct {
	byTopic map[uuid.UUID][]*types.GeneratedQuestion
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{byTopic: map[uuid.UUID][]*types.GeneratedQuestion{}}
}

func (r *fakeQuestionRepo) Create(dbc dbctx.Context, questions []*types.GeneratedQuestion) ([]*types.GeneratedQuestion, error) {
	for _, q := range questions {
		r.byTopic[q.TopicID] = append(r.byTopic[q.TopicID], q)
	}
	return questions, nil
}

func (r *fakeQuestionRepo) ListByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.GeneratedQuestion, error) {
	return r.byTopic[topicID], nil
}

func (r *fakeQuestionRepo) CountByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error) {
	return int64(len(r.byTopic[topicID])), nil
}

func (r *fakeQuestionRepo) SoftDeleteByTopic(dbc dbctx.Context, topicID uuid.UUID) error {
	delete(r.byTopic, topicID)
	return nil
}

type fakeAnswerRepo struct {
	byAttempt map[uuid.UUID][]*types.StudentAnswer
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{byAttempt: map[uuid.UUID][]*types.StudentAnswer{}}
}

func (r *fakeAnswerRepo) Create(dbc dbctx.Context, answers []*types.StudentAnswer) ([]*types.StudentAnswer, error) {
	for _, a := range answers {
		r.byAttempt[a.AttemptID] = append(r.byAttempt[a.AttemptID], a)
	}
	return answers, nil
}

func (r *fakeAnswerRepo) ListByAttempt(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.StudentAnswer, error) {
	return r.byAttempt[attemptID], nil
}

func (r *fakeAnswerRepo) DeleteByAttempt(dbc dbctx.Context, attemptID uuid.UUID) error {
	delete(r.byAttempt, attemptID)
	return nil
}

type fakeCOPerfRepo struct {
	byAttempt map[uuid.UUID][]*types.COPerformance
}

func newFakeCOPerfRepo() *fakeCOPerfRepo {
	return &fakeCOPerfRepo{byAttempt: map[uuid.UUID][]*types.COPerformance{}}
}

func (r *fakeCOPerfRepo) Create(dbc dbctx.Context, rows []*types.COPerformance) ([]*types.COPerformance, error) {
	for _, row := range rows {
		r.byAttempt[row.AttemptID] = append(r.byAttempt[row.AttemptID], row)
	}
	return rows, nil
}

func (r *fakeCOPerfRepo) ListByStudentAndTopics(dbc dbctx.Context, studentID uuid.UUID, topicIDs []uuid.UUID) ([]*types.COPerformance, error) {
	var out []*types.COPerformance
	for _, rows := range r.byAttempt {
		for _, row := range rows {
			if row.StudentID != studentID {
				continue
			}
			for _, id := range topicIDs {
				if row.TopicID == id {
					out = append(out, row)
					break
				}
			}
		}
	}
	return out, nil
}

func (r *fakeCOPerfRepo) ListByTopics(dbc dbctx.Context, topicIDs []uuid.UUID) ([]*types.COPerformance, error) {
	var out []*types.COPerformance
	for _, rows := range r.byAttempt {
		for _, row := range rows {
			for _, id := range topicIDs {
				if row.TopicID == id {
					out = append(out, row)
					break
				}
			}
		}
	}
	return out, nil
}

func (r *fakeCOPerfRepo) ListByAttempt(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.COPerformance, error) {
	return r.byAttempt[attemptID], nil
}

func (r *fakeCOPerfRepo) DeleteByAttempt(dbc dbctx.Context, attemptID uuid.UUID) error {
	delete(r.byAttempt, attemptID)
	return nil
}

type fakeProgressRepo struct {
	rows []*types.TopicProgress
}

func (r *fakeProgressRepo) Create(dbc dbctx.Context, progress *types.TopicProgress) (*types.TopicProgress, error) {
	if progress.ID == uuid.Nil {
		progress.ID = uuid.New()
	}
	r.rows = append(r.rows, progress)
	return progress, nil
}

func (r *fakeProgressRepo) GetByStudentAndTopic(dbc dbctx.Context, studentID, topicID uuid.UUID) (*types.TopicProgress, error) {
	for _, p := range r.rows {
		if p.StudentID == studentID && p.TopicID == topicID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProgressRepo) CountCompleted(dbc dbctx.Context, studentID uuid.UUID, topicIDs []uuid.UUID) (int64, error) {
	var count int64
	for _, p := range r.rows {
		if p.StudentID != studentID || !p.Completed {
			continue
		}
		for _, id := range topicIDs {
			if p.TopicID == id {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeProgressRepo) CompletedCountsByTopic(dbc dbctx.Context, topicIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	for _, p := range r.rows {
		if !p.Completed {
			continue
		}
		for _, id := range topicIDs {
			if p.TopicID == id {
				out[p.TopicID]++
				break
			}
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	for _, p := range r.rows {
		if p.ID != id {
			continue
		}
		if v, ok := updates["viewed"].(bool); ok {
			p.Viewed = v
		}
		if v, ok := updates["viewed_at"].(time.Time); ok {
			p.ViewedAt = &v
		}
		if v, ok := updates["completed"].(bool); ok {
			p.Completed = v
		}
		if v, ok := updates["completed_at"].(time.Time); ok {
			p.CompletedAt = &v
		}
		return nil
	}
	return nil
}

type quizFixture struct {
	svc      *quizService
	attempts *fakeAttemptRepo
	answers  *fakeAnswerRepo
	coPerf   *fakeCOPerfRepo
	progress *fakeProgressRepo
	student  requestdata.Actor
	topicID  uuid.UUID
	q1, q2   *types.GeneratedQuestion
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { log.Sync() })

	f := &quizFixture{
		attempts: newFakeAttemptRepo(),
		answers:  newFakeAnswerRepo(),
		coPerf:   newFakeCOPerfRepo(),
		progress: &fakeProgressRepo{},
		student:  requestdata.Actor{UserID: uuid.New(), Role: types.RoleStudent},
		topicID:  uuid.New(),
	}

	questions := newFakeQuestionRepo()
	options := datatypes.JSON([]byte(`["Axon","Dendrite","Soma","Synapse"]`))
	f.q1 = &types.GeneratedQuestion{
		ID:            uuid.New(),
		TopicID:       f.topicID,
		QuestionText:  "Which structure carries signals away from the cell body?",
		Options:       options,
		CorrectAnswer: "Axon",
		COTag:         "CO1",
	}
	f.q2 = &types.GeneratedQuestion{
		ID:            uuid.New(),
		TopicID:       f.topicID,
		QuestionText:  "Which structure receives incoming signals?",
		Options:       options,
		CorrectAnswer: "Dendrite",
		COTag:         "CO2",
	}
	if _, err := questions.Create(dbctx.Context{}, []*types.GeneratedQuestion{f.q1, f.q2}); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	f.svc = &quizService{
		log:         log.With("service", "QuizService"),
		db:          testDB(t),
		questions:   questions,
		attempts:    f.attempts,
		answers:     f.answers,
		coPerf:      f.coPerf,
		progress:    f.progress,
		maxAttempts: 1,
		duration:    15 * time.Minute,
	}
	return f
}

func (f *quizFixture) openAttempt(t *testing.T, window time.Duration) *types.QuizAttempt {
	t.Helper()
	now := time.Now().UTC()
	attempt := &types.QuizAttempt{
		ID:            uuid.New(),
		StudentID:     f.student.UserID,
		TopicID:       f.topicID,
		AttemptNumber: 1,
		StartTime:     now.Add(-time.Minute),
		EndTime:       now.Add(window),
	}
	if _, err := f.attempts.Create(dbctx.Context{}, attempt); err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
	return attempt
}

func TestSubmitRejectsExpiredAttempt(t *testing.T) {
	f := newQuizFixture(t)
	attempt := f.openAttempt(t, -time.Second)

	_, err := f.svc.Submit(context.Background(), f.student, SubmitInput{
		AttemptID: attempt.ID,
		TopicID:   f.topicID,
		Answers:   map[uuid.UUID]string{f.q1.ID: "Axon"},
	})
	if !errors.Is(err, ErrAttemptExpired) {
		t.Fatalf("Submit after deadline = %v, want ErrAttemptExpired", err)
	}
	if rows, _ := f.answers.ListByAttempt(dbctx.Context{}, attempt.ID); len(rows) != 0 {
		t.Errorf("expired submission recorded %d answers, want 0", len(rows))
	}
	if f.attempts.byID[attempt.ID].Submitted {
		t.Error("expired submission marked the attempt submitted")
	}
}

func TestSubmitReplacesAnswersWholesale(t *testing.T) {
	f := newQuizFixture(t)
	attempt := f.openAttempt(t, 10*time.Minute)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, f.student, SubmitInput{
		AttemptID: attempt.ID,
		TopicID:   f.topicID,
		Answers:   map[uuid.UUID]string{f.q1.ID: "Axon"},
	})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if first.Score != 1 || first.Total != 2 {
		t.Fatalf("first Submit = %d/%d, want 1/2", first.Score, first.Total)
	}

	// A resubmission inside the window rebuilds every row, it never appends.
	// Answer comparison ignores case and surrounding whitespace.
	second, err := f.svc.Submit(ctx, f.student, SubmitInput{
		AttemptID: attempt.ID,
		TopicID:   f.topicID,
		Answers:   map[uuid.UUID]string{f.q1.ID: "Axon", f.q2.ID: " dendrite "},
	})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if second.Score != 2 || second.Total != 2 {
		t.Fatalf("second Submit = %d/%d, want 2/2", second.Score, second.Total)
	}

	answers, _ := f.answers.ListByAttempt(dbctx.Context{}, attempt.ID)
	if len(answers) != 2 {
		t.Errorf("attempt holds %d answer rows after resubmit, want 2", len(answers))
	}
	coRows, _ := f.coPerf.ListByAttempt(dbctx.Context{}, attempt.ID)
	if len(coRows) != 2 {
		t.Errorf("attempt holds %d CO rows after resubmit, want 2", len(coRows))
	}
	for _, row := range coRows {
		if row.CorrectAnswers != 1 || row.TotalQuestions != 1 {
			t.Errorf("%s = %d/%d after resubmit, want 1/1", row.COTag, row.CorrectAnswers, row.TotalQuestions)
		}
	}

	stored := f.attempts.byID[attempt.ID]
	if stored.Score != 2 || !stored.Submitted {
		t.Errorf("stored attempt score=%d submitted=%v, want score=2 submitted=true", stored.Score, stored.Submitted)
	}
}

func TestSubmitMarksCompletedOnce(t *testing.T) {
	f := newQuizFixture(t)
	attempt := f.openAttempt(t, 10*time.Minute)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, f.student, SubmitInput{
		AttemptID: attempt.ID,
		TopicID:   f.topicID,
		Answers:   map[uuid.UUID]string{f.q1.ID: "Axon"},
	}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	progress, _ := f.progress.GetByStudentAndTopic(dbctx.Context{}, f.student.UserID, f.topicID)
	if progress == nil || !progress.Completed || progress.CompletedAt == nil {
		t.Fatalf("first submission did not complete the topic: %+v", progress)
	}
	firstCompletedAt := *progress.CompletedAt

	if _, err := f.svc.Submit(ctx, f.student, SubmitInput{
		AttemptID: attempt.ID,
		TopicID:   f.topicID,
		Answers:   map[uuid.UUID]string{f.q1.ID: "Axon", f.q2.ID: "Dendrite"},
	}); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	progress, _ = f.progress.GetByStudentAndTopic(dbctx.Context{}, f.student.UserID, f.topicID)
	if !progress.Completed {
		t.Fatal("resubmission cleared the completed flag")
	}
	if !progress.CompletedAt.Equal(firstCompletedAt) {
		t.Errorf("resubmission moved completed_at from %v to %v", firstCompletedAt, *progress.CompletedAt)
	}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/repos"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/types"
	"github.com/studyloop/studyloop-backend/internal/utils"
)

// QuizQuestionView is a question as shown to a student mid-attempt: no
// correct answer.
type QuizQuestionView struct {
	QuestionID   uuid.UUID `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Options      []string  `json:"options"`
}

type StartAttemptResult struct {
	Attempt   *types.QuizAttempt
	Questions []QuizQuestionView
	Resumed   bool
}

type SubmitInput struct {
	AttemptID uuid.UUID
	TopicID   uuid.UUID
	Answers   map[uuid.UUID]string
}

type SubmitResult struct {
	Score int
	Total int
}

// ReviewItem pairs a question with the student's recorded answer.
type ReviewItem struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	StudentAnswer string   `json:"student_answer"`
	COTag         string   `json:"co_tag"`
}

// AttemptResults is the post-submit summary: the scored attempt plus its
// per-CO breakdown.
type AttemptResults struct {
	Attempt *types.QuizAttempt     `json:"attempt"`
	PerCO   []*types.COPerformance `json:"per_co"`
}

type QuizService interface {
	StartAttempt(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID) (*StartAttemptResult, error)
	Submit(ctx context.Context, actor requestdata.Actor, in SubmitInput) (*SubmitResult, error)
	ListAttempts(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID) ([]*types.QuizAttempt, error)
	Results(ctx context.Context, actor requestdata.Actor, attemptID uuid.UUID) (*AttemptResults, error)
	Review(ctx context.Context, actor requestdata.Actor, attemptID uuid.UUID) ([]ReviewItem, *types.QuizAttempt, error)
}

type quizService struct {
	log       *logger.Logger
	db        *gorm.DB
	topics    repos.TopicRepo
	questions repos.QuestionRepo
	attempts  repos.AttemptRepo
	answers   repos.AnswerRepo
	coPerf    repos.COPerformanceRepo
	progress  repos.ProgressRepo

	maxAttempts int
	duration    time.Duration
}

func NewQuizService(
	log *logger.Logger,
	db *gorm.DB,
	topics repos.TopicRepo,
	questions repos.QuestionRepo,
	attempts repos.AttemptRepo,
	answers repos.AnswerRepo,
	coPerf repos.COPerformanceRepo,
	progress repos.ProgressRepo,
) (QuizService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &quizService{
		log:         log.With("service", "QuizService"),
		db:          db,
		topics:      topics,
		questions:   questions,
		attempts:    attempts,
		answers:     answers,
		coPerf:      coPerf,
		progress:    progress,
		maxAttempts: utils.GetEnvAsInt("QUIZ_MAX_ATTEMPTS", 1, log),
		duration:    time.Duration(utils.GetEnvAsInt("QUIZ_DURATION_MINUTES", 15, log)) * time.Minute,
	}, nil
}

func (s *quizService) StartAttempt(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID) (*StartAttemptResult, error) {
	if actor.Role != types.RoleStudent {
		return nil, fmt.Errorf("%w: quiz attempts require student", ErrForbidden)
	}

	dbc := dbctx.Context{Ctx: ctx}
	topic, err := s.topics.GetByID(dbc, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, ErrTopicNotFound
	}

	questions, err := s.questions.ListByTopic(dbc, topicID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	existing, err := s.attempts.ListByStudentAndTopic(dbc, actor.UserID, topicID)
	if err != nil {
		return nil, err
	}

	// An open unsubmitted attempt inside its window is resumed rather than
	// counted against the limit.
	now := time.Now().UTC()
	for _, a := range existing {
		if !a.Submitted && !a.Expired(now) {
			return &StartAttemptResult{
				Attempt:   a,
				Questions: toQuestionViews(questions),
				Resumed:   true,
			}, nil
		}
	}
	if len(existing) >= s.maxAttempts {
		return nil, fmt.Errorf("%w: %d of %d attempts used", ErrAttemptLimit, len(existing), s.maxAttempts)
	}

	attempt := &types.QuizAttempt{
		ID:            uuid.New(),
		StudentID:     actor.UserID,
		TopicID:       topicID,
		AttemptNumber: len(existing) + 1,
		StartTime:     now,
	}
	attempt.SetEndTime(s.duration)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.attempts.Create(txc, attempt); err != nil {
			return err
		}
		return s.markViewed(txc, actor.UserID, topicID, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Quiz attempt started",
		"student_id", actor.UserID,
		"topic_id", topicID,
		"attempt_number", attempt.AttemptNumber,
	)
	return &StartAttemptResult{
		Attempt:   attempt,
		Questions: toQuestionViews(questions),
	}, nil
}

func (s *quizService) Submit(ctx context.Context, actor requestdata.Actor, in SubmitInput) (*SubmitResult, error) {
	if actor.Role != types.RoleStudent {
		return nil, fmt.Errorf("%w: quiz submission requires student", ErrForbidden)
	}

	dbc := dbctx.Context{Ctx: ctx}
	attempt, err := s.attempts.GetByID(dbc, in.AttemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil || attempt.StudentID != actor.UserID || attempt.TopicID != in.TopicID {
		return nil, ErrAttemptNotFound
	}

	now := time.Now().UTC()
	if attempt.Expired(now) {
		return nil, ErrAttemptExpired
	}

	questions, err := s.questions.ListByTopic(dbc, attempt.TopicID)
	if err != nil {
		return nil, err
	}

	var result SubmitResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}

		// Resubmission within the window replaces everything for the
		// attempt: answers and CO rows are rebuilt wholesale.
		if err := s.answers.DeleteByAttempt(txc, attempt.ID); err != nil {
			return err
		}
		if err := s.coPerf.DeleteByAttempt(txc, attempt.ID); err != nil {
			return err
		}

		score := 0
		rows := make([]*types.StudentAnswer, 0, len(questions))
		coStats := map[string]*types.COPerformance{}
		for _, q := range questions {
			given := strings.TrimSpace(in.Answers[q.ID])
			correct := strings.EqualFold(given, strings.TrimSpace(q.CorrectAnswer))
			if correct {
				score++
			}
			rows = append(rows, &types.StudentAnswer{
				AttemptID:     attempt.ID,
				QuestionID:    q.ID,
				QuestionText:  q.QuestionText,
				StudentAnswer: given,
				CorrectAnswer: strings.TrimSpace(q.CorrectAnswer),
				COTag:         q.COTag,
			})

			stat, ok := coStats[q.COTag]
			if !ok {
				stat = &types.COPerformance{
					StudentID: attempt.StudentID,
					TopicID:   attempt.TopicID,
					AttemptID: attempt.ID,
					COTag:     q.COTag,
				}
				coStats[q.COTag] = stat
			}
			stat.TotalQuestions++
			if correct {
				stat.CorrectAnswers++
			}
		}
		if _, err := s.answers.Create(txc, rows); err != nil {
			return err
		}

		coRows := make([]*types.COPerformance, 0, len(coStats))
		for _, stat := range coStats {
			if stat.TotalQuestions > 0 {
				stat.Percentage = 100 * float64(stat.CorrectAnswers) / float64(stat.TotalQuestions)
			}
			coRows = append(coRows, stat)
		}
		if _, err := s.coPerf.Create(txc, coRows); err != nil {
			return err
		}

		if err := s.attempts.UpdateFields(txc, attempt.ID, map[string]interface{}{
			"score":           score,
			"total_questions": len(questions),
			"submitted":       true,
		}); err != nil {
			return err
		}

		if err := s.markCompleted(txc, attempt.StudentID, attempt.TopicID, now); err != nil {
			return err
		}

		result = SubmitResult{Score: score, Total: len(questions)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Quiz submitted",
		"student_id", actor.UserID,
		"topic_id", attempt.TopicID,
		"attempt_id", attempt.ID,
		"score", result.Score,
		"total", result.Total,
	)
	return &result, nil
}

func (s *quizService) ListAttempts(ctx context.Context, actor requestdata.Actor, topicID uuid.UUID) ([]*types.QuizAttempt, error) {
	return s.attempts.ListByStudentAndTopic(dbctx.Context{Ctx: ctx}, actor.UserID, topicID)
}

func (s *quizService) Results(ctx context.Context, actor requestdata.Actor, attemptID uuid.UUID) (*AttemptResults, error) {
	dbc := dbctx.Context{Ctx: ctx}
	attempt, err := s.attempts.GetByID(dbc, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil || attempt.StudentID != actor.UserID {
		return nil, ErrAttemptNotFound
	}
	perCO, err := s.coPerf.ListByAttempt(dbc, attempt.ID)
	if err != nil {
		return nil, err
	}
	return &AttemptResults{Attempt: attempt, PerCO: perCO}, nil
}

func (s *quizService) Review(ctx context.Context, actor requestdata.Actor, attemptID uuid.UUID) ([]ReviewItem, *types.QuizAttempt, error) {
	dbc := dbctx.Context{Ctx: ctx}
	attempt, err := s.attempts.GetByID(dbc, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt == nil || attempt.StudentID != actor.UserID {
		return nil, nil, ErrAttemptNotFound
	}

	questions, err := s.questions.ListByTopic(dbc, attempt.TopicID)
	if err != nil {
		return nil, nil, err
	}
	answers, err := s.answers.ListByAttempt(dbc, attempt.ID)
	if err != nil {
		return nil, nil, err
	}
	byQuestion := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.StudentAnswer
	}

	items := make([]ReviewItem, 0, len(questions))
	for _, q := range questions {
		given, ok := byQuestion[q.ID]
		if !ok || given == "" {
			given = "No Answer"
		}
		items = append(items, ReviewItem{
			QuestionText:  q.QuestionText,
			Options:       decodeOptions(q.Options),
			CorrectAnswer: q.CorrectAnswer,
			StudentAnswer: given,
			COTag:         q.COTag,
		})
	}
	return items, attempt, nil
}

func (s *quizService) markViewed(dbc dbctx.Context, studentID, topicID uuid.UUID, now time.Time) error {
	progress, err := s.progress.GetByStudentAndTopic(dbc, studentID, topicID)
	if err != nil {
		return err
	}
	if progress == nil {
		_, err = s.progress.Create(dbc, &types.TopicProgress{
			StudentID: studentID,
			TopicID:   topicID,
			Viewed:    true,
			ViewedAt:  &now,
		})
		return err
	}
	if !progress.Viewed {
		return s.progress.UpdateFields(dbc, progress.ID, map[string]interface{}{
			"viewed":    true,
			"viewed_at": now,
		})
	}
	return nil
}

// markCompleted flips completed exactly once. A resubmission leaves
// completed_at untouched.
func (s *quizService) markCompleted(dbc dbctx.Context, studentID, topicID uuid.UUID, now time.Time) error {
	progress, err := s.progress.GetByStudentAndTopic(dbc, studentID, topicID)
	if err != nil {
		return err
	}
	if progress == nil {
		_, err = s.progress.Create(dbc, &types.TopicProgress{
			StudentID:   studentID,
			TopicID:     topicID,
			Viewed:      true,
			ViewedAt:    &now,
			Completed:   true,
			CompletedAt: &now,
		})
		return err
	}

	updates := map[string]interface{}{}
	if !progress.Completed {
		updates["completed"] = true
		updates["completed_at"] = now
	}
	if !progress.Viewed {
		updates["viewed"] = true
		updates["viewed_at"] = now
	}
	if len(updates) == 0 {
		return nil
	}
	return s.progress.UpdateFields(dbc, progress.ID, updates)
}

func toQuestionViews(questions []*types.GeneratedQuestion) []QuizQuestionView {
	out := make([]QuizQuestionView, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuizQuestionView{
			QuestionID:   q.ID,
			QuestionText: q.QuestionText,
			Options:      decodeOptions(q.Options),
		})
	}
	return out
}

func decodeOptions(raw []byte) []string {
	var opts []string
	if err := json.Unmarshal(raw, &opts); err != nil {
		return []string{}
	}
	return opts
}

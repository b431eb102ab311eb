package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/repos"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/types"
	"github.com/studyloop/studyloop-backend/internal/utils"
)

// RecommendedTopic is a remediation candidate for one weak CO tag.
type RecommendedTopic struct {
	TopicID     uuid.UUID `json:"topic_id"`
	TopicNo     int       `json:"topic_no"`
	Title       string    `json:"title"`
	TagSharePct int       `json:"tag_share_pct"`
}

type StudentMastery struct {
	CourseID          uuid.UUID                     `json:"course_id"`
	StudentID         uuid.UUID                     `json:"student_id"`
	PerCO             map[string]int                `json:"per_co"`
	Recommendations   map[string][]RecommendedTopic `json:"recommendations"`
	CompletedTopics   int                           `json:"completed_topics"`
	CompletionPercent int                           `json:"completion_percent"`
}

type CourseOverview struct {
	CourseID          uuid.UUID                    `json:"course_id"`
	PerCO             map[string]int               `json:"per_co"`
	TopicDistribution map[uuid.UUID]map[string]int `json:"topic_distribution"`
	TopicCompletions  map[uuid.UUID]int64          `json:"topic_completions"`
}

// MasteryService aggregates stored quiz results into per-CO mastery and
// remediation recommendations.
type MasteryService interface {
	StudentCourseMastery(ctx context.Context, actor requestdata.Actor, courseID uuid.UUID) (*StudentMastery, error)
	CourseMasteryOverview(ctx context.Context, courseID uuid.UUID) (*CourseOverview, error)
}

type masteryService struct {
	log       *logger.Logger
	courses   repos.CourseRepo
	topics    repos.TopicRepo
	questions repos.QuestionRepo
	coPerf    repos.COPerformanceRepo
	progress  repos.ProgressRepo

	weakThreshold      int
	relevanceThreshold int
}

func NewMasteryService(
	log *logger.Logger,
	courses repos.CourseRepo,
	topics repos.TopicRepo,
	questions repos.QuestionRepo,
	coPerf repos.COPerformanceRepo,
	progress repos.ProgressRepo,
) (MasteryService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &masteryService{
		log:                log.With("service", "MasteryService"),
		courses:            courses,
		topics:             topics,
		questions:          questions,
		coPerf:             coPerf,
		progress:           progress,
		weakThreshold:      utils.GetEnvAsInt("MASTERY_WEAK_THRESHOLD", 60, log),
		relevanceThreshold: utils.GetEnvAsInt("TOPIC_RELEVANCE_THRESHOLD", 40, log),
	}, nil
}

func (s *masteryService) StudentCourseMastery(ctx context.Context, actor requestdata.Actor, courseID uuid.UUID) (*StudentMastery, error) {
	dbc := dbctx.Context{Ctx: ctx}

	course, err := s.courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	topics, err := s.topics.ListByCourse(dbc, courseID)
	if err != nil {
		return nil, err
	}
	topicIDs := topicIDSet(topics)

	rows, err := s.coPerf.ListByStudentAndTopics(dbc, actor.UserID, topicIDs)
	if err != nil {
		return nil, err
	}
	perCO := pooledMastery(rows)

	distribution, err := s.topicDistribution(dbc, topics)
	if err != nil {
		return nil, err
	}
	recommendations := s.recommend(perCO, topics, distribution)

	completed, err := s.progress.CountCompleted(dbc, actor.UserID, topicIDs)
	if err != nil {
		return nil, err
	}

	return &StudentMastery{
		CourseID:          courseID,
		StudentID:         actor.UserID,
		PerCO:             perCO,
		Recommendations:   recommendations,
		CompletedTopics:   int(completed),
		CompletionPercent: completionPercent(int(completed), course.TopicsTarget),
	}, nil
}

func (s *masteryService) CourseMasteryOverview(ctx context.Context, courseID uuid.UUID) (*CourseOverview, error) {
	dbc := dbctx.Context{Ctx: ctx}

	course, err := s.courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	topics, err := s.topics.ListByCourse(dbc, courseID)
	if err != nil {
		return nil, err
	}

	// Pooled correct/total across all students, not an average of
	// per-student percentages.
	rows, err := s.coPerf.ListByTopics(dbc, topicIDSet(topics))
	if err != nil {
		return nil, err
	}

	distribution, err := s.topicDistribution(dbc, topics)
	if err != nil {
		return nil, err
	}

	completions, err := s.progress.CompletedCountsByTopic(dbc, topicIDSet(topics))
	if err != nil {
		return nil, err
	}

	return &CourseOverview{
		CourseID:          courseID,
		PerCO:             pooledMastery(rows),
		TopicDistribution: distribution,
		TopicCompletions:  completions,
	}, nil
}

// pooledMastery sums correct/total per tag and rounds to the nearest
// integer percentage. Tags with no recorded answers yield no entry.
func pooledMastery(rows []*types.COPerformance) map[string]int {
	type tally struct{ correct, total int }
	sums := map[string]*tally{}
	for _, row := range rows {
		t, ok := sums[row.COTag]
		if !ok {
			t = &tally{}
			sums[row.COTag] = t
		}
		t.correct += row.CorrectAnswers
		t.total += row.TotalQuestions
	}

	out := make(map[string]int, len(sums))
	for tag, t := range sums {
		if t.total == 0 {
			continue
		}
		out[tag] = int(math.Round(100 * float64(t.correct) / float64(t.total)))
	}
	return out
}

// topicDistribution computes, per topic, the share of its questions carrying
// each CO tag.
func (s *masteryService) topicDistribution(dbc dbctx.Context, topics []*types.Topic) (map[uuid.UUID]map[string]int, error) {
	out := make(map[uuid.UUID]map[string]int, len(topics))
	for _, topic := range topics {
		questions, err := s.questions.ListByTopic(dbc, topic.ID)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			continue
		}
		counts := map[string]int{}
		for _, q := range questions {
			counts[q.COTag]++
		}
		share := make(map[string]int, len(counts))
		for tag, n := range counts {
			share[tag] = int(math.Round(100 * float64(n) / float64(len(questions))))
		}
		out[topic.ID] = share
	}
	return out, nil
}

// recommend pairs each weak CO tag with the course topics whose content
// leans on that tag. Order within a tag is topic order; ties are not broken.
func (s *masteryService) recommend(perCO map[string]int, topics []*types.Topic, distribution map[uuid.UUID]map[string]int) map[string][]RecommendedTopic {
	out := map[string][]RecommendedTopic{}
	for tag, mastery := range perCO {
		if mastery >= s.weakThreshold {
			continue
		}
		for _, topic := range topics {
			share, ok := distribution[topic.ID][tag]
			if !ok || share < s.relevanceThreshold {
				continue
			}
			out[tag] = append(out[tag], RecommendedTopic{
				TopicID:     topic.ID,
				TopicNo:     topic.TopicNo,
				Title:       topic.Title,
				TagSharePct: share,
			})
		}
	}
	return out
}

func completionPercent(completed, target int) int {
	if target <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(completed) / float64(target)))
	if pct > 100 {
		pct = 100
	}
	return pct
}

func topicIDSet(topics []*types.Topic) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(topics))
	for _, t := range topics {
		ids = append(ids, t.ID)
	}
	return ids
}

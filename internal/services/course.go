package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/repos"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type CreateCourseInput struct {
	Title        string
	Description  string
	TopicsTarget int
	MaxTopics    int
}

// CourseService manages the course catalog and its topic listings.
type CourseService interface {
	CreateCourse(ctx context.Context, actor requestdata.Actor, in CreateCourseInput) (*types.Course, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	ListCourses(ctx context.Context) ([]*types.Course, error)
	ListTopics(ctx context.Context, courseID uuid.UUID) ([]*types.Topic, error)
}

type courseService struct {
	log     *logger.Logger
	courses repos.CourseRepo
	topics  repos.TopicRepo
}

func NewCourseService(log *logger.Logger, courses repos.CourseRepo, topics repos.TopicRepo) (CourseService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &courseService{
		log:     log.With("service", "CourseService"),
		courses: courses,
		topics:  topics,
	}, nil
}

func (s *courseService) CreateCourse(ctx context.Context, actor requestdata.Actor, in CreateCourseInput) (*types.Course, error) {
	if actor.Role != types.RoleFaculty {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrInvalidInput
	}

	course := &types.Course{
		ID:           uuid.New(),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		InstructorID: actor.UserID,
		TopicsTarget: in.TopicsTarget,
		MaxTopics:    in.MaxTopics,
	}
	if course.TopicsTarget <= 0 {
		course.TopicsTarget = 10
	}
	if course.MaxTopics <= 0 {
		course.MaxTopics = 10
	}

	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.courses.Create(dbc, course); err != nil {
		return nil, err
	}
	s.log.Info("course created", "course_id", course.ID, "instructor_id", actor.UserID)
	return course, nil
}

func (s *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	course, err := s.courses.GetByID(dbctx.Context{Ctx: ctx}, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *courseService) ListCourses(ctx context.Context) ([]*types.Course, error) {
	return s.courses.List(dbctx.Context{Ctx: ctx})
}

func (s *courseService) ListTopics(ctx context.Context, courseID uuid.UUID) ([]*types.Topic, error) {
	course, err := s.courses.GetByID(dbctx.Context{Ctx: ctx}, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return s.topics.ListByCourse(dbctx.Context{Ctx: ctx}, courseID)
}

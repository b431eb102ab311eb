package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/response"
	"github.com/studyloop/studyloop-backend/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
	}
}

type createCourseRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	TopicsTarget int    `json:"topics_target"`
	MaxTopics    int    `json:"max_topics"`
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courseService.CreateCourse(c.Request.Context(), actor, services.CreateCourseInput{
		Title:        req.Title,
		Description:  req.Description,
		TopicsTarget: req.TopicsTarget,
		MaxTopics:    req.MaxTopics,
	})
	if err != nil {
		h.log.Error("CreateCourse failed", "error", err, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.ListCourses(c.Request.Context())
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	course, err := h.courseService.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// GET /api/courses/:id/topics
func (h *CourseHandler) ListTopics(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	topics, err := h.courseService.ListTopics(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("ListTopics failed", "error", err, "course_id", courseID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"topics": topics})
}

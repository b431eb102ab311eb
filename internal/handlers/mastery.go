package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/outcomes"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/response"
	"github.com/studyloop/studyloop-backend/internal/services"
	"github.com/studyloop/studyloop-backend/internal/types"
)

type MasteryHandler struct {
	log            *logger.Logger
	masteryService services.MasteryService
	outcomeSet     outcomes.Set
}

func NewMasteryHandler(log *logger.Logger, masteryService services.MasteryService, outcomeSet outcomes.Set) *MasteryHandler {
	return &MasteryHandler{
		log:            log.With("handler", "MasteryHandler"),
		masteryService: masteryService,
		outcomeSet:     outcomeSet,
	}
}

// GET /api/courses/:id/mastery
// The caller's own per-CO mastery plus remediation recommendations.
func (h *MasteryHandler) StudentMastery(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	result, err := h.masteryService.StudentCourseMastery(c.Request.Context(), actor, courseID)
	if err != nil {
		h.log.Error("StudentMastery failed", "error", err, "course_id", courseID, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}

	// Aggregation leaves unanswered tags absent; the view shows the full
	// catalog with zeros so the chart axes are stable.
	result.PerCO = fillCatalog(result.PerCO, h.outcomeSet)
	response.RespondOK(c, result)
}

// GET /api/courses/:id/mastery/overview
// Course-wide pooled mastery and per-topic CO distribution.
func (h *MasteryHandler) CourseOverview(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if actor.Role != types.RoleFaculty {
		response.RespondError(c, http.StatusForbidden, "forbidden", services.ErrForbidden)
		return
	}
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	result, err := h.masteryService.CourseMasteryOverview(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("CourseOverview failed", "error", err, "course_id", courseID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	result.PerCO = fillCatalog(result.PerCO, h.outcomeSet)
	response.RespondOK(c, result)
}

func fillCatalog(perCO map[string]int, set outcomes.Set) map[string]int {
	out := make(map[string]int, len(set))
	for _, tag := range set.Tags() {
		out[tag] = perCO[tag]
	}
	for tag, pct := range perCO {
		out[tag] = pct
	}
	return out
}

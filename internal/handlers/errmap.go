package handlers

import (
	"errors"
	"net/http"

	"github.com/studyloop/studyloop-backend/internal/ingest"
	"github.com/studyloop/studyloop-backend/internal/mcq"
	"github.com/studyloop/studyloop-backend/internal/services"
)

// statusFor maps service sentinels onto HTTP status codes and stable error
// codes for the response envelope. Anything unmapped is a 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, mcq.ErrInvalidRequest),
		errors.Is(err, ingest.ErrInvalidChunking):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, services.ErrCourseNotFound):
		return http.StatusNotFound, "course_not_found"
	case errors.Is(err, services.ErrTopicNotFound):
		return http.StatusNotFound, "topic_not_found"
	case errors.Is(err, services.ErrAttemptNotFound):
		return http.StatusNotFound, "attempt_not_found"
	case errors.Is(err, services.ErrIndexNotFound):
		return http.StatusNotFound, "index_not_found"
	case errors.Is(err, services.ErrNoPendingBatch):
		return http.StatusNotFound, "no_pending_batch"
	case errors.Is(err, services.ErrDuplicateUser):
		return http.StatusConflict, "duplicate_user"
	case errors.Is(err, services.ErrDuplicateTopic):
		return http.StatusConflict, "duplicate_topic"
	case errors.Is(err, services.ErrTopicLimit):
		return http.StatusConflict, "topic_limit_reached"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrAttemptExpired):
		return http.StatusForbidden, "attempt_expired"
	case errors.Is(err, services.ErrAttemptLimit):
		return http.StatusForbidden, "attempt_limit_reached"
	case errors.Is(err, services.ErrNoRelevantContent):
		return http.StatusUnprocessableEntity, "no_relevant_content"
	case errors.Is(err, services.ErrNoQuestions):
		return http.StatusUnprocessableEntity, "no_questions"
	case errors.Is(err, mcq.ErrBackend), errors.Is(err, mcq.ErrBadPayload):
		return http.StatusBadGateway, "generation_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/response"
	"github.com/studyloop/studyloop-backend/internal/services"
)

type TopicHandler struct {
	log             *logger.Logger
	indexingService services.IndexingService
}

func NewTopicHandler(log *logger.Logger, indexingService services.IndexingService) *TopicHandler {
	return &TopicHandler{
		log:             log.With("handler", "TopicHandler"),
		indexingService: indexingService,
	}
}

// POST /api/courses/:id/topics
// Multipart upload: "file" plus topic_no, title and optional subtitle fields.
func (h *TopicHandler) UploadTopic(c *gin.Context) {
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
	topicNo, err := strconv.Atoi(c.PostForm("topic_no"))
	if err != nil || topicNo <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_no", err)
		return
	}
	title := c.PostForm("title")
	if title == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_title", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	result, err := h.indexingService.UploadTopic(c.Request.Context(), actor, services.UploadTopicInput{
		CourseID: courseID,
		TopicNo:  topicNo,
		Title:    title,
		Subtitle: c.PostForm("subtitle"),
		FileName: fileHeader.Filename,
		Raw:      raw,
	})
	if err != nil {
		h.log.Error("UploadTopic failed", "error", err, "course_id", courseID, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"topic":        result.Topic,
		"fingerprint":  result.Fingerprint,
		"index_status": result.IndexStatus,
		"chunk_count":  result.ChunkCount,
	})
}

// POST /api/topics/:id/index
// Rebuilds the topic's index from a re-supplied copy of its document.
func (h *TopicHandler) ReindexTopic(c *gin.Context) {
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
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	result, err := h.indexingService.ReindexTopic(c.Request.Context(), actor, topicID, raw)
	if err != nil {
		h.log.Error("ReindexTopic failed", "error", err, "topic_id", topicID, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{
		"fingerprint":  result.Fingerprint,
		"index_status": result.IndexStatus,
		"chunk_count":  result.ChunkCount,
	})
}

// DELETE /api/topics/:id
func (h *TopicHandler) DeleteTopic(c *gin.Context) {
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
	if err := h.indexingService.DeleteTopic(c.Request.Context(), actor, topicID); err != nil {
		h.log.Error("DeleteTopic failed", "error", err, "topic_id", topicID, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/requestdata"
	"github.com/studyloop/studyloop-backend/internal/response"
	"github.com/studyloop/studyloop-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{
		log:         log.With("handler", "UserHandler"),
		userService: userService,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"`
}

// POST /register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := h.userService.Register(c.Request.Context(), services.RegisterUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		h.log.Error("Register failed", "error", err)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := requestdata.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	user, err := h.userService.Me(c.Request.Context(), actor)
	if err != nil {
		h.log.Error("Me failed", "error", err, "user_id", actor.UserID)
		status, code := statusFor(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

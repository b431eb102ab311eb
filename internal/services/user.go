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

type RegisterUserInput struct {
	Email    string
	FullName string
	Role     string
}

// UserService provisions user rows and resolves the authenticated actor's
// profile. Authentication itself happens upstream; the core trusts the
// identity headers once the row exists.
type UserService interface {
	Register(ctx context.Context, in RegisterUserInput) (*types.User, error)
	Me(ctx context.Context, actor requestdata.Actor) (*types.User, error)
}

type userService struct {
	log   *logger.Logger
	users repos.UserRepo
}

func NewUserService(log *logger.Logger, users repos.UserRepo) (UserService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &userService{
		log:   log.With("service", "UserService"),
		users: users,
	}, nil
}

func (s *userService) Register(ctx context.Context, in RegisterUserInput) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)
	if email == "" || fullName == "" {
		return nil, ErrInvalidInput
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = types.RoleStudent
	}
	if role != types.RoleFaculty && role != types.RoleStudent {
		return nil, ErrInvalidInput
	}

	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.users.GetByEmail(dbc, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUser
	}

	user := &types.User{
		ID:       uuid.New(),
		Email:    email,
		FullName: fullName,
		Role:     role,
	}
	if _, err := s.users.Create(dbc, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) Me(ctx context.Context, actor requestdata.Actor) (*types.User, error) {
	user, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

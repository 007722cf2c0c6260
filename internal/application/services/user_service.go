package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// passwordCost is the bcrypt work factor for stored passwords
const passwordCost = bcrypt.DefaultCost

// DefaultAdmin describes the bootstrap administrator account
type DefaultAdmin struct {
	Username string
	Password string
	Name     string
}

// UserService handles user-related operations
type UserService struct {
	userRepo     ports.UserRepository
	defaultAdmin DefaultAdmin
	logger       *logger.Logger
	now          func() time.Time
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, defaultAdmin DefaultAdmin, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo:     userRepo,
		defaultAdmin: defaultAdmin,
		logger:       logger.WithComponent("user_service"),
		now:          time.Now,
	}
}

// ListUsers returns every user without password hashes
func (s *UserService) ListUsers(ctx context.Context) ([]entities.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users, nil
}

// CreateUser creates a new user
func (s *UserService) CreateUser(ctx context.Context, req ports.CreateUserRequest) (*entities.User, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("username, password and name are required: %w", entities.ErrMissingFields)
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &entities.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: hashedPassword,
		CreatedAt:    &now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User created successfully", "user_id", user.ID, "username", user.Username)

	created := user.Sanitized()
	return &created, nil
}

// UpdateUser updates a user's information. The password is re-hashed only when a new one is supplied.
func (s *UserService) UpdateUser(ctx context.Context, id int64, req ports.UpdateUserRequest) (*entities.User, error) {
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		return nil, fmt.Errorf("username cannot be empty: %w", entities.ErrMissingFields)
	}

	var hashedPassword string
	if req.Password != nil && *req.Password != "" {
		var err error
		if hashedPassword, err = hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.Update(ctx, id, func(u *entities.User) error {
		if req.Username != nil {
			u.Username = *req.Username
		}
		if req.Name != nil {
			u.Name = *req.Name
		}
		if hashedPassword != "" {
			u.PasswordHash = hashedPassword
		}
		now := s.now().UTC()
		u.UpdatedAt = &now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Infow("User updated successfully", "user_id", id, "password_changed", hashedPassword != "")

	updated := user.Sanitized()
	return &updated, nil
}

// DeleteUser deletes a user unless it is the last one
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Infow("User deleted successfully", "user_id", id)
	return nil
}

// ResetAdmin restores the default administrator credentials, creating the
// account when it does not exist.
func (s *UserService) ResetAdmin(ctx context.Context) (*entities.User, error) {
	hashedPassword, err := hashPassword(s.defaultAdmin.Password)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByUsername(ctx, s.defaultAdmin.Username)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		now := s.now().UTC()
		user := &entities.User{
			Username:     s.defaultAdmin.Username,
			Name:         s.defaultAdmin.Name,
			PasswordHash: hashedPassword,
			CreatedAt:    &now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create default admin: %w", err)
		}
		s.logger.LogUserAction(fmt.Sprint(user.ID), "reset_admin", map[string]interface{}{"created": true})
		created := user.Sanitized()
		return &created, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up default admin: %w", err)
	}

	user, err := s.userRepo.Update(ctx, existing.ID, func(u *entities.User) error {
		u.PasswordHash = hashedPassword
		now := s.now().UTC()
		u.UpdatedAt = &now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset default admin: %w", err)
	}

	s.logger.LogUserAction(fmt.Sprint(user.ID), "reset_admin", map[string]interface{}{"created": false})
	reset := user.Sanitized()
	return &reset, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

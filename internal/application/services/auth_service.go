package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/config"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// Claims represents the JWT claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// dummyHash is compared against when the username is unknown so both failure
// paths cost one bcrypt verification.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("motelhub-dummy-password"), passwordCost)

// AuthService handles authentication operations
type AuthService struct {
	userRepo     ports.UserRepository
	jwtConfig    config.JWTConfig
	defaultAdmin DefaultAdmin
	logger       *logger.Logger
	now          func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, jwtConfig config.JWTConfig, defaultAdmin DefaultAdmin, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		jwtConfig:    jwtConfig,
		defaultAdmin: defaultAdmin,
		logger:       logger.WithComponent("auth_service"),
		now:          time.Now,
	}
}

// Login verifies the credentials and returns the user with a signed token.
// Unknown usernames and wrong passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, entities.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		s.logger.LogSecurityEvent("login_failed", req.Username, "", map[string]interface{}{"reason": "unknown_user"})
		return nil, entities.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.LogSecurityEvent("login_failed", req.Username, "", map[string]interface{}{"reason": "bad_password"})
		return nil, entities.ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.Infow("User logged in successfully", "user_id", user.ID, "username", user.Username)

	return &ports.LoginResponse{
		User:      user.Sanitized(),
		Message:   "Login successful",
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Check makes sure at least one account exists, creating the default
// administrator on an empty store.
func (s *AuthService) Check(ctx context.Context) (*ports.AuthCheckResponse, error) {
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return &ports.AuthCheckResponse{HasUsers: true, Message: "Users exist"}, nil
	}

	hashedPassword, err := hashPassword(s.defaultAdmin.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	admin := &entities.User{
		Username:     s.defaultAdmin.Username,
		Name:         s.defaultAdmin.Name,
		PasswordHash: hashedPassword,
		CreatedAt:    &now,
	}

	created, err := s.userRepo.EnsureDefault(ctx, admin)
	if err != nil {
		return nil, fmt.Errorf("failed to create default admin: %w", err)
	}
	if !created {
		return &ports.AuthCheckResponse{HasUsers: true, Message: "Users exist"}, nil
	}

	s.logger.LogSecurityEvent("default_admin_created", admin.Username, "", nil)
	return &ports.AuthCheckResponse{HasUsers: true, Message: "Default administrator created"}, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithIssuer(s.jwtConfig.Issuer))

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &ports.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

func (s *AuthService) generateAccessToken(user *entities.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.jwtConfig.ExpiresIn)
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

package services

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/models"
)

// AuthService talks to the /auth endpoints
type AuthService struct {
	api Requester
}

func NewAuthService(api Requester) *AuthService {
	return &AuthService{api: api}
}

// Login exchanges credentials for a token and user profile
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.api.Post(ctx, "/auth/login", models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns the same shape as Login
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.api.Post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateToken asks the backend whether token is still good
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.TokenValidation, error) {
	var resp models.TokenValidation
	if err := s.api.Post(ctx, "/auth/validate", models.ValidateRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the user the current token belongs to
func (s *AuthService) Profile(ctx context.Context) (models.UserProfile, error) {
	var user models.UserProfile
	if err := s.api.Get(ctx, "/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

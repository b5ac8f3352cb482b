package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stoodioz/stoodioz-api/internal/domain/user"
	"github.com/stoodioz/stoodioz-api/internal/pkg/jwt"
	"github.com/stoodioz/stoodioz-api/internal/pkg/password"
)

type Service struct {
	users user.Repository
	jwt   *jwt.Service
}

func NewService(users user.Repository, jwtService *jwt.Service) *Service {
	return &Service{users: users, jwt: jwtService}
}

// Register creates the account and signs the user in.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         user.Role(req.Role),
		DisplayName:  req.DisplayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Role == user.RoleEngineer {
		u.IsAvailable = true
		if req.HourlyRateCents != nil {
			u.HourlyRate = sql.NullInt64{Int64: *req.HourlyRateCents, Valid: true}
		}
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", u.ID.String()).
		Str("role", string(u.Role)).
		Msg("user registered")
	return &AuthResponse{User: u, Tokens: tokens}, nil
}

// Login verifies credentials and returns a fresh token pair.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == user.ErrUserNotFound {
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, user.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to record last login")
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: u, Tokens: tokens}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (s *Service) issueTokens(u *user.User) (TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

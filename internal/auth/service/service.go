package service

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"journeyon_backend/internal/auth/repository"
	"journeyon_backend/internal/events"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/config"
	"journeyon_backend/platform/logger"
)

const accessTokenType = "access"

// Service implements account registration and token issuance.
type Service struct {
	repo repository.Repository
	cfg  config.AuthServiceConfig
	bus  events.Bus
	log  *logger.Logger
}

// New creates an auth service.
func New(repo repository.Repository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, plainPassword string) (repository.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return repository.User{}, apperr.Internal("hash password")
	}

	user, err := s.repo.Create(ctx, username, email, string(hash))
	if err != nil {
		return repository.User{}, err
	}

	s.log.Info("user registered", "userId", user.ID, "username", user.Username)
	s.bus.Publish(ctx, events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
	})
	return user, nil
}

// Login verifies credentials and issues an access token.
// The login may be the username or the email address.
func (s *Service) Login(ctx context.Context, login, plainPassword string) (string, repository.User, error) {
	user, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		// Do not reveal whether the account exists.
		return "", repository.User{}, apperr.Unauthorized("invalid_credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plainPassword)); err != nil {
		return "", repository.User{}, apperr.Unauthorized("invalid_credentials")
	}

	token, err := s.signAccessToken(user.ID)
	if err != nil {
		return "", repository.User{}, apperr.Internal("sign access token")
	}
	return token, user, nil
}

// GetMe returns the account of the given user.
func (s *Service) GetMe(ctx context.Context, userID int64) (repository.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) signAccessToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"type": accessTokenType,
		"exp":  now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":  now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}

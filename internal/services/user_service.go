package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/security"
	"github.com/mroshb/moodgram/pkg/errors"
	"github.com/mroshb/moodgram/pkg/logger"
)

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

type RegisterInput struct {
	Username        string
	DisplayName     string
	IsAccountPublic bool
	TelegramID      *int64
}

// Register validates and stores a new user under a fresh id
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := security.NormalizeUsername(in.Username)
	if !security.ValidateUsername(username) {
		return nil, errors.New(errors.ErrCodeValidation, "username must be 3-32 characters of a-z, 0-9, _ or .")
	}

	displayName := security.SanitizeDisplayName(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	user := &models.User{
		ID:              uuid.NewString(),
		Username:        username,
		DisplayName:     displayName,
		TelegramID:      in.TelegramID,
		IsAccountPublic: in.IsAccountPublic,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("User registered", "user_id", user.ID, "username", user.Username, "public", user.IsAccountPublic)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetUserByUsername(ctx, security.NormalizeUsername(username))
}

func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.users.GetUserByTelegramID(ctx, telegramID)
}

// SetAccountPublic flips the privacy flag. Pending requests are left alone;
// they still need an explicit approve or ignore.
func (s *UserService) SetAccountPublic(ctx context.Context, id string, public bool) error {
	if err := s.users.SetAccountPublic(ctx, id, public); err != nil {
		return err
	}
	logger.Info("Account privacy changed", "user_id", id, "public", public)
	return nil
}

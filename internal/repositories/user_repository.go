package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/pkg/errors"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return errors.Wrap(err, errors.ErrCodeAlreadyExists, "username or telegram account already registered")
		}
		return translateError(err, "failed to create user")
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username, case-insensitively
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", strings.ToLower(username))
}

// GetUserByTelegramID retrieves a user by Telegram ID
func (r *UserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.first(ctx, "telegram_id = ?", telegramID)
}

func (r *UserRepository) first(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where(where, arg).Take(&user)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if result.Error != nil {
		return nil, translateError(result.Error, "failed to get user")
	}

	return &user, nil
}

// SetAccountPublic updates the privacy flag without touching counters
func (r *UserRepository) SetAccountPublic(ctx context.Context, id string, public bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"is_account_public": public,
		"updated_at":        time.Now().UTC(),
	})
	if result.Error != nil {
		return translateError(result.Error, "failed to update privacy")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return nil
}

// AllUsers returns every user ordered by username
func (r *UserRepository) AllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, translateError(err, "failed to list users")
	}
	return users, nil
}

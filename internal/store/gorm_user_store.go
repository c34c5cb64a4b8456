package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mentorship/backend/internal/models"

	"gorm.io/gorm"
)

// GormUserStore implements UserStore using GORM.
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore creates a GORM-backed user store.
func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

// Create inserts a new user.
func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	var existing int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if existing > 0 {
		return ErrUserExists
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get returns the user with the given id.
func (s *GormUserStore) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// FindByLogin looks a user up by username or email.
func (s *GormUserStore) FindByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Search returns one page of users matching filter and the total match count.
func (s *GormUserStore) Search(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if filter.Username != "" {
		query = query.Where("username = ?", filter.Username)
	}
	if filter.Query != "" {
		query = query.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.ExcludeID != 0 {
		query = query.Where("id <> ?", filter.ExcludeID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := query.Order("id").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	return users, total, nil
}

// Ensure interface is satisfied at compile time.
var _ UserStore = (*GormUserStore)(nil)

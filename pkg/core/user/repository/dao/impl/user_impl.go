package dao

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "auth-backend/pkg/common/errors"
	"auth-backend/pkg/core/user/model"
	"auth-backend/pkg/core/user/repository/dao"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) dao.UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) QueryByID(id int64) (model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.User{}, apperrors.ErrUserNotFound
	case err != nil:
		return model.User{}, fmt.Errorf("user query failed: %w", apperrors.WrapGormError(err))
	default:
		return user, nil
	}
}

func (r *GormUserRepository) QueryByUsername(username string) (model.User, error) {
	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.User{}, apperrors.ErrUserNotFound
	case err != nil:
		return model.User{}, fmt.Errorf("user query failed: %w", apperrors.WrapGormError(err))
	default:
		return user, nil
	}
}

func (r *GormUserRepository) IsUsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", apperrors.WrapGormError(err))
	}
	return count > 0, nil
}

func (r *GormUserRepository) IsEmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", apperrors.WrapGormError(err))
	}
	return count > 0, nil
}

func (r *GormUserRepository) CreateUser(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.ErrDuplicateEntry
		}
		return fmt.Errorf("user creation failed: %w", apperrors.WrapGormError(err))
	}
	return nil
}

// UpdateRefreshToken overwrites the stored refresh token for a user.
// Concurrent logins race here; the last write wins and the losing session's
// cookie simply stops matching.
func (r *GormUserRepository) UpdateRefreshToken(userID int64, refreshToken string) error {
	result := r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("refresh_token", refreshToken)

	if result.Error != nil {
		return fmt.Errorf("refresh token update failed: %w", apperrors.WrapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) ClearRefreshTokenByValue(refreshToken string) (int64, error) {
	result := r.db.Model(&model.User{}).
		Where("refresh_token = ?", refreshToken).
		Update("refresh_token", "")

	if result.Error != nil {
		return 0, fmt.Errorf("refresh token clear failed: %w", apperrors.WrapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

package dao

import (
	"auth-backend/pkg/core/user/model"
)

type UserRepository interface {
	QueryByID(id int64) (model.User, error)
	QueryByUsername(username string) (model.User, error)
	IsUsernameExists(username string) (bool, error)
	IsEmailExists(email string) (bool, error)
	CreateUser(user *model.User) error
	UpdateRefreshToken(userID int64, refreshToken string) error
	// ClearRefreshTokenByValue blanks the refresh token on whichever row
	// currently stores the given value. Returns the number of rows touched.
	ClearRefreshTokenByValue(refreshToken string) (int64, error)
}

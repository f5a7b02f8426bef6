package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	RefreshToken string    `gorm:"type:varchar(512)"` // latest issued refresh token, empty after logout
	CreatedAt    time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName defines the mapped table name.
func (User) TableName() string {
	return "auth_users"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
